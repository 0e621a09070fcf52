package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hospitalia/hospitalia/internal/shared"
)

func newTestLocker(t *testing.T, wait time.Duration) *ItemLocker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewItemLocker(client, time.Minute, wait)
}

func TestItemLockerSerializesSameItem(t *testing.T) {
	locker := newTestLocker(t, 100*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, 1)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, 1)
	require.ErrorIs(t, err, shared.ErrBusy)

	release()
	release2, err := locker.Acquire(ctx, 1)
	require.NoError(t, err)
	release2()
}

func TestItemLockerDisjointItemsDoNotBlock(t *testing.T) {
	locker := newTestLocker(t, 100*time.Millisecond)
	ctx := context.Background()

	release1, err := locker.Acquire(ctx, 1)
	require.NoError(t, err)
	defer release1()

	release2, err := locker.Acquire(ctx, 2, 3)
	require.NoError(t, err)
	release2()
}

func TestItemLockerReleasesPartialAcquisitionOnFailure(t *testing.T) {
	locker := newTestLocker(t, 100*time.Millisecond)
	ctx := context.Background()

	releaseHeld, err := locker.Acquire(ctx, 5)
	require.NoError(t, err)

	// 3 is acquired before 5 (ascending order), then 5 times out; 3 must
	// be released so nothing stays held.
	_, err = locker.Acquire(ctx, 5, 3)
	require.ErrorIs(t, err, shared.ErrBusy)

	release3, err := locker.Acquire(ctx, 3)
	require.NoError(t, err)
	release3()

	releaseHeld()
}

func TestItemLockerDeduplicatesIDs(t *testing.T) {
	locker := newTestLocker(t, 100*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, 2, 2, 2)
	require.NoError(t, err)
	release()
}
