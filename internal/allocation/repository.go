package allocation

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospitalia/hospitalia/internal/platform/db"
)

// Repository persists assignments and the stock ledger in PostgreSQL.
// Both live in one schema on purpose: every engine operation mutates them
// inside a single transaction.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction with
// retry on serialization conflicts.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{tx: tx})
	})
}

// ListAssignedByPatient returns the patient's assignments of the given
// kind joined with the item descriptor, newest first.
func (r *Repository) ListAssignedByPatient(ctx context.Context, pacienteID int64, kind Kind) ([]AssignedItem, error) {
	const query = `
		SELECT a.paciente_id, a.item_id, a.cantidad, COALESCE(a.dosis, ''), COALESCE(a.frecuencia, ''),
		       COALESCE(a.via_administracion, ''), a.asignado_en, a.actualizado_en,
		       i.kind, i.nombre, COALESCE(i.descripcion, '')
		FROM patient_assignments a
		JOIN inventory_items i ON i.item_id = a.item_id
		WHERE a.paciente_id = $1 AND i.kind = $2
		ORDER BY a.asignado_en DESC`
	rows, err := r.pool.Query(ctx, query, pacienteID, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssignedItem
	for rows.Next() {
		var a AssignedItem
		if err := rows.Scan(
			&a.PacienteID, &a.ItemID, &a.Cantidad, &a.Meta.Dosis, &a.Meta.Frecuencia,
			&a.Meta.ViaAdministracion, &a.AsignadoEn, &a.ActualizadoEn,
			&a.Kind, &a.Nombre, &a.Descripcion,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type txStore struct {
	tx pgx.Tx
}

func (s *txStore) GetItemForUpdate(ctx context.Context, itemID int64) (Item, error) {
	const query = `
		SELECT item_id, kind, nombre, COALESCE(descripcion, ''), on_hand
		FROM inventory_items
		WHERE item_id = $1
		FOR UPDATE`
	var item Item
	err := s.tx.QueryRow(ctx, query, itemID).Scan(&item.ID, &item.Kind, &item.Nombre, &item.Descripcion, &item.OnHand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, err
	}
	return item, nil
}

func (s *txStore) SetOnHand(ctx context.Context, itemID, qty int64) error {
	if qty < 0 {
		return &InsufficientStockError{ItemID: itemID, Requested: -qty, Available: 0}
	}
	tag, err := s.tx.Exec(ctx, `UPDATE inventory_items SET on_hand = $2, actualizado_en = NOW() WHERE item_id = $1`, itemID, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (s *txStore) InsertMovement(ctx context.Context, m Movement) error {
	// The per-item sequence is computed under the item row lock, so it is
	// gapless and monotonic without a dedicated sequence object.
	const query = `
		INSERT INTO stock_movements (item_id, seq, delta, op_id, reason, created_at)
		SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4, $5
		FROM stock_movements WHERE item_id = $1`
	_, err := s.tx.Exec(ctx, query, m.ItemID, m.Delta, m.OpID, m.Reason, m.CreatedAt)
	return err
}

func (s *txStore) MovementExists(ctx context.Context, opID string) (bool, error) {
	var exists bool
	err := s.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM stock_movements WHERE op_id = $1)`, opID).Scan(&exists)
	return exists, err
}

func (s *txStore) GetAssignment(ctx context.Context, pacienteID, itemID int64) (Assignment, error) {
	const query = `
		SELECT paciente_id, item_id, cantidad, COALESCE(dosis, ''), COALESCE(frecuencia, ''),
		       COALESCE(via_administracion, ''), asignado_en, actualizado_en
		FROM patient_assignments
		WHERE paciente_id = $1 AND item_id = $2`
	var a Assignment
	err := s.tx.QueryRow(ctx, query, pacienteID, itemID).Scan(
		&a.PacienteID, &a.ItemID, &a.Cantidad, &a.Meta.Dosis, &a.Meta.Frecuencia,
		&a.Meta.ViaAdministracion, &a.AsignadoEn, &a.ActualizadoEn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, ErrAssignmentNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}

func (s *txStore) UpsertAssignment(ctx context.Context, a Assignment) (int64, error) {
	const query = `
		INSERT INTO patient_assignments (paciente_id, item_id, cantidad, dosis, frecuencia, via_administracion, asignado_en, actualizado_en)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NOW(), NOW())
		ON CONFLICT (paciente_id, item_id) DO UPDATE SET
			cantidad = EXCLUDED.cantidad,
			dosis = EXCLUDED.dosis,
			frecuencia = EXCLUDED.frecuencia,
			via_administracion = EXCLUDED.via_administracion,
			actualizado_en = NOW()
		RETURNING COALESCE((SELECT prev.cantidad FROM patient_assignments prev
		           WHERE prev.paciente_id = $1 AND prev.item_id = $2), 0)`
	var prior int64
	if err := s.tx.QueryRow(ctx, query,
		a.PacienteID, a.ItemID, a.Cantidad, a.Meta.Dosis, a.Meta.Frecuencia, a.Meta.ViaAdministracion,
	).Scan(&prior); err != nil {
		return 0, err
	}
	return prior, nil
}

func (s *txStore) DeleteAssignment(ctx context.Context, pacienteID, itemID int64) (int64, error) {
	var qty int64
	err := s.tx.QueryRow(ctx,
		`DELETE FROM patient_assignments WHERE paciente_id = $1 AND item_id = $2 RETURNING cantidad`,
		pacienteID, itemID,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAssignmentNotFound
		}
		return 0, err
	}
	return qty, nil
}

func (s *txStore) ListAssignments(ctx context.Context, pacienteID int64, kind Kind) ([]Assignment, error) {
	const query = `
		SELECT a.paciente_id, a.item_id, a.cantidad, COALESCE(a.dosis, ''), COALESCE(a.frecuencia, ''),
		       COALESCE(a.via_administracion, ''), a.asignado_en, a.actualizado_en
		FROM patient_assignments a
		JOIN inventory_items i ON i.item_id = a.item_id
		WHERE a.paciente_id = $1 AND i.kind = $2
		ORDER BY a.item_id`
	rows, err := s.tx.Query(ctx, query, pacienteID, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(
			&a.PacienteID, &a.ItemID, &a.Cantidad, &a.Meta.Dosis, &a.Meta.Frecuencia,
			&a.Meta.ViaAdministracion, &a.AsignadoEn, &a.ActualizadoEn,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
