package allocation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bsm/redislock"

	"github.com/hospitalia/hospitalia/internal/shared"
)

const lockRetryInterval = 50 * time.Millisecond

// ItemLocker serializes engine operations per inventory item with Redis
// locks. Multi-item acquisition always proceeds in ascending item id order
// so two overlapping ReplaceAll calls cannot deadlock each other.
type ItemLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewItemLocker builds an ItemLocker. ttl bounds how long a crashed holder
// can keep an item locked; wait bounds how long Acquire blocks before
// giving up with shared.ErrBusy.
func NewItemLocker(rdb redislock.RedisClient, ttl, wait time.Duration) *ItemLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &ItemLocker{client: redislock.New(rdb), ttl: ttl, wait: wait}
}

// ItemLockKey builds the redis key guarding one inventory item.
func ItemLockKey(itemID int64) string {
	return fmt.Sprintf("allocation:item:%d:lock", itemID)
}

// Acquire obtains the locks for all given items and returns a release
// function. On failure nothing stays held.
func (l *ItemLocker) Acquire(ctx context.Context, itemIDs ...int64) (func(), error) {
	ids := dedupeSorted(itemIDs)
	retries := int(l.wait / lockRetryInterval)
	if retries < 1 {
		retries = 1
	}
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(lockRetryInterval), retries),
	}

	held := make([]*redislock.Lock, 0, len(ids))
	release := func() {
		// Release in reverse order, even when the request context is gone.
		ctx := context.WithoutCancel(ctx)
		for i := len(held) - 1; i >= 0; i-- {
			_ = held[i].Release(ctx)
		}
	}
	for _, id := range ids {
		lock, err := l.client.Obtain(ctx, ItemLockKey(id), l.ttl, opts)
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, fmt.Errorf("%w: item %d", shared.ErrBusy, id)
			}
			return nil, fmt.Errorf("allocation: obtain lock for item %d: %w", id, err)
		}
		held = append(held, lock)
	}
	return release, nil
}

func dedupeSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
