package allocation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hospitalia/hospitalia/internal/shared"
)

// StorePort abstracts assignment/ledger persistence for the engine.
type StorePort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
	ListAssignedByPatient(ctx context.Context, pacienteID int64, kind Kind) ([]AssignedItem, error)
}

// TxStore exposes the transactional operations the engine composes.
// Implementations must discard every mutation when the callback passed to
// WithTx returns an error.
type TxStore interface {
	GetItemForUpdate(ctx context.Context, itemID int64) (Item, error)
	SetOnHand(ctx context.Context, itemID, qty int64) error
	InsertMovement(ctx context.Context, m Movement) error
	MovementExists(ctx context.Context, opID string) (bool, error)
	GetAssignment(ctx context.Context, pacienteID, itemID int64) (Assignment, error)
	UpsertAssignment(ctx context.Context, a Assignment) (int64, error)
	DeleteAssignment(ctx context.Context, pacienteID, itemID int64) (int64, error)
	ListAssignments(ctx context.Context, pacienteID int64, kind Kind) ([]Assignment, error)
}

// Locker serializes engine operations per inventory item. Acquire blocks
// with a bounded wait and returns shared.ErrBusy when the wait expires.
type Locker interface {
	Acquire(ctx context.Context, itemIDs ...int64) (func(), error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Engine validates and applies assign/update/release operations,
// coordinating the assignment store and the stock ledger so the two never
// diverge: on-hand plus the sum of active assignment quantities stays
// constant for every item.
type Engine struct {
	store StorePort
	locks Locker
	audit AuditPort
}

// NewEngine builds the Engine. audit may be nil.
func NewEngine(store StorePort, locks Locker, audit AuditPort) *Engine {
	return &Engine{store: store, locks: locks, audit: audit}
}

// AssignOrMerge applies the given items as deltas against the patient's
// existing assignments, leaving unmentioned items untouched. Items succeed
// or fail independently; a rejected item never aborts its siblings.
func (e *Engine) AssignOrMerge(ctx context.Context, pacienteID int64, kind Kind, items []AssignmentInput, opKey string) ([]ItemOutcome, error) {
	if pacienteID <= 0 {
		return nil, fmt.Errorf("%w: pacienteId requerido", shared.ErrValidation)
	}
	opKey = ensureOpKey(opKey)
	outcomes := make([]ItemOutcome, 0, len(items))
	for _, in := range items {
		outcomes = append(outcomes, e.mergeOne(ctx, pacienteID, kind, in, opKey))
	}
	e.recordAudit(ctx, pacienteID, kind, "assign_merge", map[string]any{"items": len(items), "op_key": opKey})
	return outcomes, nil
}

func (e *Engine) mergeOne(ctx context.Context, pacienteID int64, kind Kind, in AssignmentInput, opKey string) ItemOutcome {
	if in.Cantidad <= 0 {
		return rejectedOutcome(in.ItemID, ErrInvalidQuantity)
	}
	release, err := e.locks.Acquire(ctx, in.ItemID)
	if err != nil {
		return rejectedOutcome(in.ItemID, err)
	}
	defer release()

	err = e.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		item, err := tx.GetItemForUpdate(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if item.Kind != kind {
			return ErrKindMismatch
		}
		var prior int64
		existing, err := tx.GetAssignment(ctx, pacienteID, in.ItemID)
		switch {
		case err == nil:
			prior = existing.Cantidad
		case errors.Is(err, ErrAssignmentNotFound):
			prior = 0
		default:
			return err
		}
		opID := movementOpID(opKey, pacienteID, in.ItemID)
		delta := in.Cantidad - prior
		switch {
		case delta > 0:
			if err := debit(ctx, tx, in.ItemID, delta, opID, reasonAssign); err != nil {
				return err
			}
		case delta < 0:
			if err := credit(ctx, tx, in.ItemID, -delta, opID, reasonAssign); err != nil {
				return err
			}
		}
		_, err = tx.UpsertAssignment(ctx, Assignment{
			PacienteID: pacienteID,
			ItemID:     in.ItemID,
			Cantidad:   in.Cantidad,
			Meta:       in.Meta,
		})
		return err
	})
	if err != nil {
		return rejectedOutcome(in.ItemID, err)
	}
	return ItemOutcome{ItemID: in.ItemID, Applied: true, Cantidad: in.Cantidad}
}

// ReplaceAll makes the patient's assignments for the kind exactly match
// newItems: items missing from the target set are fully released, new ones
// are debited, changed ones move by their delta. The whole call is
// all-or-nothing; any failed debit leaves store and ledger untouched.
func (e *Engine) ReplaceAll(ctx context.Context, pacienteID int64, kind Kind, newItems []AssignmentInput, opKey string) ([]Assignment, error) {
	if pacienteID <= 0 {
		return nil, fmt.Errorf("%w: pacienteId requerido", shared.ErrValidation)
	}
	target := make(map[int64]AssignmentInput, len(newItems))
	for _, in := range newItems {
		if in.Cantidad <= 0 {
			return nil, ErrInvalidQuantity
		}
		// Duplicate ids in one request collapse to the last occurrence,
		// mirroring the upsert behaviour of the merge path.
		target[in.ItemID] = in
	}
	opKey = ensureOpKey(opKey)

	prior, err := e.store.ListAssignedByPatient(ctx, pacienteID, kind)
	if err != nil {
		return nil, err
	}
	ids := unionIDs(target, prior)
	release, err := e.locks.Acquire(ctx, ids...)
	if err != nil {
		return nil, err
	}
	defer release()

	var result []Assignment
	err = e.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		// The prior set is re-read inside the transaction; the pre-lock
		// read above only chose which locks to take.
		current, err := tx.ListAssignments(ctx, pacienteID, kind)
		if err != nil {
			return err
		}
		priorQty := make(map[int64]int64, len(current))
		for _, a := range current {
			priorQty[a.ItemID] = a.Cantidad
		}
		union := make([]int64, 0, len(priorQty)+len(target))
		seen := make(map[int64]struct{}, len(priorQty)+len(target))
		for id := range priorQty {
			union = append(union, id)
			seen[id] = struct{}{}
		}
		for id := range target {
			if _, ok := seen[id]; !ok {
				union = append(union, id)
			}
		}
		sort.Slice(union, func(i, j int) bool { return union[i] < union[j] })

		// Credits first: they cannot fail, so a later failed debit rolls
		// back a state that never went below any item's true availability.
		for _, id := range union {
			delta := target[id].Cantidad - priorQty[id]
			if delta < 0 {
				if err := credit(ctx, tx, id, -delta, movementOpID(opKey, pacienteID, id), reasonReplace); err != nil {
					return err
				}
			}
		}
		for _, id := range union {
			delta := target[id].Cantidad - priorQty[id]
			if delta > 0 {
				item, err := tx.GetItemForUpdate(ctx, id)
				if err != nil {
					return err
				}
				if item.Kind != kind {
					return ErrKindMismatch
				}
				if err := debit(ctx, tx, id, delta, movementOpID(opKey, pacienteID, id), reasonReplace); err != nil {
					return err
				}
			}
		}

		for _, id := range union {
			in, keep := target[id]
			if !keep {
				if _, err := tx.DeleteAssignment(ctx, pacienteID, id); err != nil {
					return err
				}
				continue
			}
			a := Assignment{PacienteID: pacienteID, ItemID: id, Cantidad: in.Cantidad, Meta: in.Meta}
			if _, err := tx.UpsertAssignment(ctx, a); err != nil {
				return err
			}
			result = append(result, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.recordAudit(ctx, pacienteID, kind, "replace_all", map[string]any{"items": len(target), "op_key": opKey})
	return result, nil
}

// Release removes the patient's assignment for the item and credits the
// full quantity back to stock. Both steps share one transaction, so a
// credit that cannot run undoes the removal and no quantity is lost.
func (e *Engine) Release(ctx context.Context, pacienteID, itemID int64, opKey string) (int64, error) {
	if pacienteID <= 0 || itemID <= 0 {
		return 0, fmt.Errorf("%w: pacienteId e itemId requeridos", shared.ErrValidation)
	}
	opKey = ensureOpKey(opKey)
	release, err := e.locks.Acquire(ctx, itemID)
	if err != nil {
		return 0, err
	}
	defer release()

	var freed int64
	err = e.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		qty, err := tx.DeleteAssignment(ctx, pacienteID, itemID)
		if err != nil {
			return err
		}
		freed = qty
		return credit(ctx, tx, itemID, qty, movementOpID(opKey, pacienteID, itemID), reasonRelease)
	})
	if err != nil {
		return 0, err
	}
	e.recordAudit(ctx, pacienteID, "", "release", map[string]any{"item_id": itemID, "cantidad": freed})
	return freed, nil
}

// ListByPatient returns the patient's active assignments joined with the
// item names, newest first. Read path only.
func (e *Engine) ListByPatient(ctx context.Context, pacienteID int64, kind Kind) ([]AssignedItem, error) {
	if pacienteID <= 0 {
		return nil, fmt.Errorf("%w: pacienteId requerido", shared.ErrValidation)
	}
	return e.store.ListAssignedByPatient(ctx, pacienteID, kind)
}

const (
	reasonAssign  = "ASIGNACION"
	reasonReplace = "REEMPLAZO"
	reasonRelease = "LIBERACION"
)

func ensureOpKey(key string) string {
	if key != "" {
		return key
	}
	return uuid.NewString()
}

// movementOpID scopes the caller's idempotency key to one (patient, item)
// ledger mutation, so a retried request skips already-recorded movements.
func movementOpID(opKey string, pacienteID, itemID int64) string {
	return fmt.Sprintf("%s:%d:%d", opKey, pacienteID, itemID)
}

func rejectedOutcome(itemID int64, err error) ItemOutcome {
	out := ItemOutcome{ItemID: itemID, Error: err.Error()}
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		out.Requested = stockErr.Requested
		out.Available = stockErr.Available
	}
	return out
}

func unionIDs(target map[int64]AssignmentInput, prior []AssignedItem) []int64 {
	seen := make(map[int64]struct{}, len(target)+len(prior))
	ids := make([]int64, 0, len(target)+len(prior))
	for id := range target {
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, a := range prior {
		if _, ok := seen[a.ItemID]; !ok {
			seen[a.ItemID] = struct{}{}
			ids = append(ids, a.ItemID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (e *Engine) recordAudit(ctx context.Context, pacienteID int64, kind Kind, action string, meta map[string]any) {
	if e.audit == nil {
		return
	}
	_ = e.audit.Record(ctx, shared.AuditLog{
		Action:   fmt.Sprintf("allocation:%s", action),
		Entity:   "patient_assignment",
		EntityID: fmt.Sprintf("%d:%s", pacienteID, kind),
		Meta:     meta,
		At:       time.Now().UTC(),
	})
}
