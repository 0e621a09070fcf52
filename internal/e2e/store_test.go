package e2e

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hospitalia/hospitalia/internal/allocation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type pairKey struct {
	pacienteID int64
	itemID     int64
}

// flowStore is an in-memory allocation.StorePort safe for concurrent HTTP
// handlers. Transactions run on a copy so a failed callback leaves the
// published state untouched.
type flowStore struct {
	mu          sync.Mutex
	items       map[int64]allocation.Item
	assignments map[pairKey]allocation.Assignment
	movements   []allocation.Movement
	seq         map[int64]int64
	ops         map[string]struct{}
}

func newFlowStore(items ...allocation.Item) *flowStore {
	s := &flowStore{
		items:       make(map[int64]allocation.Item),
		assignments: make(map[pairKey]allocation.Assignment),
		seq:         make(map[int64]int64),
		ops:         make(map[string]struct{}),
	}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *flowStore) onHand(itemID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[itemID].OnHand
}

func (s *flowStore) snapshot() *txState {
	tx := &txState{
		items:       make(map[int64]allocation.Item, len(s.items)),
		assignments: make(map[pairKey]allocation.Assignment, len(s.assignments)),
		movements:   append([]allocation.Movement(nil), s.movements...),
		seq:         make(map[int64]int64, len(s.seq)),
		ops:         make(map[string]struct{}, len(s.ops)),
	}
	for k, v := range s.items {
		tx.items[k] = v
	}
	for k, v := range s.assignments {
		tx.assignments[k] = v
	}
	for k, v := range s.seq {
		tx.seq[k] = v
	}
	for k := range s.ops {
		tx.ops[k] = struct{}{}
	}
	return tx
}

func (s *flowStore) WithTx(ctx context.Context, fn func(context.Context, allocation.TxStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := s.snapshot()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.items = tx.items
	s.assignments = tx.assignments
	s.movements = tx.movements
	s.seq = tx.seq
	s.ops = tx.ops
	return nil
}

func (s *flowStore) ListAssignedByPatient(ctx context.Context, pacienteID int64, kind allocation.Kind) ([]allocation.AssignedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []allocation.AssignedItem
	for key, a := range s.assignments {
		if key.pacienteID != pacienteID {
			continue
		}
		item, ok := s.items[key.itemID]
		if !ok || item.Kind != kind {
			continue
		}
		out = append(out, allocation.AssignedItem{
			Assignment:  a,
			Kind:        item.Kind,
			Nombre:      item.Nombre,
			Descripcion: item.Descripcion,
		})
	}
	return out, nil
}

// txState is the scratch copy flowStore transactions mutate.
type txState struct {
	items       map[int64]allocation.Item
	assignments map[pairKey]allocation.Assignment
	movements   []allocation.Movement
	seq         map[int64]int64
	ops         map[string]struct{}
}

func (tx *txState) GetItemForUpdate(ctx context.Context, itemID int64) (allocation.Item, error) {
	item, ok := tx.items[itemID]
	if !ok {
		return allocation.Item{}, allocation.ErrItemNotFound
	}
	return item, nil
}

func (tx *txState) SetOnHand(ctx context.Context, itemID, qty int64) error {
	item, ok := tx.items[itemID]
	if !ok {
		return allocation.ErrItemNotFound
	}
	if qty < 0 {
		return &allocation.InsufficientStockError{ItemID: itemID, Requested: -qty, Available: 0}
	}
	item.OnHand = qty
	tx.items[itemID] = item
	return nil
}

func (tx *txState) InsertMovement(ctx context.Context, m allocation.Movement) error {
	tx.seq[m.ItemID]++
	m.Seq = tx.seq[m.ItemID]
	tx.movements = append(tx.movements, m)
	tx.ops[m.OpID] = struct{}{}
	return nil
}

func (tx *txState) MovementExists(ctx context.Context, opID string) (bool, error) {
	_, ok := tx.ops[opID]
	return ok, nil
}

func (tx *txState) GetAssignment(ctx context.Context, pacienteID, itemID int64) (allocation.Assignment, error) {
	a, ok := tx.assignments[pairKey{pacienteID, itemID}]
	if !ok {
		return allocation.Assignment{}, allocation.ErrAssignmentNotFound
	}
	return a, nil
}

func (tx *txState) UpsertAssignment(ctx context.Context, a allocation.Assignment) (int64, error) {
	key := pairKey{a.PacienteID, a.ItemID}
	now := time.Now().UTC()
	prior, ok := tx.assignments[key]
	if ok {
		a.AsignadoEn = prior.AsignadoEn
		a.ActualizadoEn = now
		tx.assignments[key] = a
		return prior.Cantidad, nil
	}
	a.AsignadoEn = now
	a.ActualizadoEn = now
	tx.assignments[key] = a
	return 0, nil
}

func (tx *txState) DeleteAssignment(ctx context.Context, pacienteID, itemID int64) (int64, error) {
	key := pairKey{pacienteID, itemID}
	a, ok := tx.assignments[key]
	if !ok {
		return 0, allocation.ErrAssignmentNotFound
	}
	delete(tx.assignments, key)
	return a.Cantidad, nil
}

func (tx *txState) ListAssignments(ctx context.Context, pacienteID int64, kind allocation.Kind) ([]allocation.Assignment, error) {
	var out []allocation.Assignment
	for key, a := range tx.assignments {
		if key.pacienteID != pacienteID {
			continue
		}
		if item, ok := tx.items[key.itemID]; ok && item.Kind == kind {
			out = append(out, a)
		}
	}
	return out, nil
}
