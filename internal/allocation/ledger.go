package allocation

import (
	"context"
	"time"
)

// Ledger operations run inside an engine transaction against the item row,
// which the store reads FOR UPDATE so concurrent debits of the same item
// serialize at the database. Every mutation is logged as a Movement with a
// per-item monotonic sequence number; the op id is unique, so a retried
// operation that was already recorded is skipped instead of applied twice.

// debit decreases an item's on-hand quantity. It fails with
// *InsufficientStockError when amount exceeds what is available; there are
// no partial debits.
func debit(ctx context.Context, tx TxStore, itemID, amount int64, opID, reason string) error {
	if amount <= 0 {
		return ErrInvalidQuantity
	}
	seen, err := tx.MovementExists(ctx, opID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}
	item, err := tx.GetItemForUpdate(ctx, itemID)
	if err != nil {
		return err
	}
	if amount > item.OnHand {
		return &InsufficientStockError{ItemID: itemID, Requested: amount, Available: item.OnHand}
	}
	if err := tx.SetOnHand(ctx, itemID, item.OnHand-amount); err != nil {
		return err
	}
	return tx.InsertMovement(ctx, Movement{
		ItemID:    itemID,
		Delta:     -amount,
		OpID:      opID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
}

// credit increases an item's on-hand quantity, releasing previously
// reserved stock. It only fails when the item itself is unknown.
func credit(ctx context.Context, tx TxStore, itemID, amount int64, opID, reason string) error {
	if amount < 0 {
		return ErrInvalidQuantity
	}
	if amount == 0 {
		return nil
	}
	seen, err := tx.MovementExists(ctx, opID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}
	item, err := tx.GetItemForUpdate(ctx, itemID)
	if err != nil {
		return err
	}
	if err := tx.SetOnHand(ctx, itemID, item.OnHand+amount); err != nil {
		return err
	}
	return tx.InsertMovement(ctx, Movement{
		ItemID:    itemID,
		Delta:     amount,
		OpID:      opID,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
}
