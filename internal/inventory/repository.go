package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospitalia/hospitalia/internal/allocation"
	"github.com/hospitalia/hospitalia/internal/platform/db"
	"github.com/hospitalia/hospitalia/internal/shared"
)

// Repository persists inventory items in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `item_id, kind, nombre, COALESCE(descripcion, ''), on_hand, COALESCE(lote, ''),
	fecha_caducidad, COALESCE(categoria, ''), COALESCE(unidad_medida, ''), COALESCE(ubicacion, ''),
	responsable_id, creado_en, actualizado_en`

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(
		&it.ItemID, &it.Kind, &it.Nombre, &it.Descripcion, &it.CantidadStock, &it.Lote,
		&it.FechaCaducidad, &it.Categoria, &it.UnidadMedida, &it.Ubicacion,
		&it.ResponsableID, &it.CreadoEn, &it.ActualizadoEn,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, shared.ErrNotFound
		}
		return Item{}, err
	}
	return it, nil
}

// List returns items of one kind with an optional accent-folded search
// over name and description, newest updates first.
func (r *Repository) List(ctx context.Context, kind allocation.Kind, filters shared.ListFilters) ([]Item, int, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE kind = $1`
	countQuery := `SELECT COUNT(*) FROM inventory_items WHERE kind = $1`
	args := []any{string(kind)}

	if filters.Search != "" {
		term := "%" + shared.FoldSearchTerm(filters.Search) + "%"
		args = append(args, term)
		cond := ` AND (unaccent(lower(nombre)) LIKE $2 OR unaccent(lower(COALESCE(descripcion, ''))) LIKE $2)`
		query += cond
		countQuery += cond
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY actualizado_en DESC`
	if filters.Limit > 0 {
		argCount := len(args)
		query += ` LIMIT $` + strconv.Itoa(argCount+1) + ` OFFSET $` + strconv.Itoa(argCount+2)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, filters.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// Get returns one item by id and kind.
func (r *Repository) Get(ctx context.Context, kind allocation.Kind, id int64) (Item, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE item_id = $1 AND kind = $2`,
		id, string(kind))
	return scanItem(row)
}

// Create inserts a new item of the kind.
func (r *Repository) Create(ctx context.Context, kind allocation.Kind, input ItemInput) (Item, error) {
	stock := int64(0)
	if input.CantidadStock != nil {
		stock = *input.CantidadStock
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO inventory_items
			(kind, nombre, descripcion, on_hand, lote, fecha_caducidad, categoria, unidad_medida, ubicacion, responsable_id, creado_en, actualizado_en)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), $6, NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, NOW(), NOW())
		RETURNING `+itemColumns,
		string(kind), input.Nombre, input.Descripcion, stock, input.Lote, input.FechaCaducidad,
		input.Categoria, input.UnidadMedida, input.Ubicacion, input.ResponsableID)
	return scanItem(row)
}

// Update rewrites an item's record fields and, when the stock changed,
// logs the manual adjustment as a movement under the item row lock.
func (r *Repository) Update(ctx context.Context, kind allocation.Kind, id int64, input ItemInput, opID string) (Item, error) {
	var item Item
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current int64
		err := tx.QueryRow(ctx,
			`SELECT on_hand FROM inventory_items WHERE item_id = $1 AND kind = $2 FOR UPDATE`,
			id, string(kind)).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}

		stock := current
		if input.CantidadStock != nil {
			stock = *input.CantidadStock
		}
		row := tx.QueryRow(ctx, `
			UPDATE inventory_items SET
				nombre = $3, descripcion = NULLIF($4, ''), on_hand = $5, lote = NULLIF($6, ''),
				fecha_caducidad = $7, categoria = NULLIF($8, ''), unidad_medida = NULLIF($9, ''),
				ubicacion = NULLIF($10, ''), responsable_id = $11, actualizado_en = NOW()
			WHERE item_id = $1 AND kind = $2
			RETURNING `+itemColumns,
			id, string(kind), input.Nombre, input.Descripcion, stock, input.Lote, input.FechaCaducidad,
			input.Categoria, input.UnidadMedida, input.Ubicacion, input.ResponsableID)
		item, err = scanItem(row)
		if err != nil {
			return err
		}

		if delta := stock - current; delta != 0 {
			_, err = tx.Exec(ctx, `
				INSERT INTO stock_movements (item_id, seq, delta, op_id, reason, created_at)
				SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, 'AJUSTE', $4
				FROM stock_movements WHERE item_id = $1`,
				id, delta, opID, time.Now().UTC())
			return err
		}
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

// Delete removes an item that no patient currently holds.
func (r *Repository) Delete(ctx context.Context, kind allocation.Kind, id int64) error {
	var assigned int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_assignments WHERE item_id = $1`, id).Scan(&assigned)
	if err != nil {
		return err
	}
	if assigned > 0 {
		return ErrHasAssignments
	}
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM inventory_items WHERE item_id = $1 AND kind = $2`, id, string(kind))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListMovements returns the ledger trail for one item, newest first.
func (r *Repository) ListMovements(ctx context.Context, itemID int64, limit int) ([]allocation.Movement, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT item_id, seq, delta, op_id, COALESCE(reason, ''), created_at
		FROM stock_movements
		WHERE item_id = $1
		ORDER BY seq DESC
		LIMIT $2`, itemID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []allocation.Movement
	for rows.Next() {
		var m allocation.Movement
		if err := rows.Scan(&m.ItemID, &m.Seq, &m.Delta, &m.OpID, &m.Reason, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
