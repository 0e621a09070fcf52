package hospitals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospitalia/hospitalia/internal/platform/db"
	"github.com/hospitalia/hospitalia/internal/shared"
)

// Repository persists hospitals in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a hospital repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const hospitalColumns = `id, nombre, direccion, telefono, nivel, creado_en, actualizado_en`

func scanHospital(row pgx.Row) (Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Nombre, &h.Direccion, &h.Telefono, &h.Nivel, &h.CreadoEn, &h.ActualizadoEn)
	return h, err
}

func (r *Repository) List(ctx context.Context, filters shared.ListFilters) ([]Hospital, int, error) {
	where := ``
	args := []any{}
	if filters.Search != "" {
		where = ` WHERE unaccent(lower(nombre)) LIKE '%' || $1 || '%'`
		args = append(args, shared.FoldSearchTerm(filters.Search))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hospitales`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count hospitales: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filters.Page > 1 {
		offset = (filters.Page - 1) * limit
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM hospitales%s ORDER BY nombre LIMIT $%d OFFSET $%d`,
		hospitalColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list hospitales: %w", err)
	}
	defer rows.Close()

	var out []Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, h)
	}
	return out, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Hospital, error) {
	h, err := scanHospital(r.pool.QueryRow(ctx,
		`SELECT `+hospitalColumns+` FROM hospitales WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Hospital{}, shared.ErrNotFound
	}
	return h, err
}

func (r *Repository) Create(ctx context.Context, input Input) (Hospital, error) {
	now := time.Now()
	h, err := scanHospital(r.pool.QueryRow(ctx,
		`INSERT INTO hospitales (nombre, direccion, telefono, nivel, creado_en, actualizado_en)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 RETURNING `+hospitalColumns,
		input.Nombre, input.Direccion, input.Telefono, input.Nivel, now))
	if db.IsUniqueViolation(err) {
		return Hospital{}, shared.ErrConflict
	}
	return h, err
}

func (r *Repository) Update(ctx context.Context, id int64, input Input) (Hospital, error) {
	h, err := scanHospital(r.pool.QueryRow(ctx,
		`UPDATE hospitales
		 SET nombre = $1, direccion = $2, telefono = $3, nivel = $4, actualizado_en = $5
		 WHERE id = $6
		 RETURNING `+hospitalColumns,
		input.Nombre, input.Direccion, input.Telefono, input.Nivel, time.Now(), id))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Hospital{}, shared.ErrNotFound
	case db.IsUniqueViolation(err):
		return Hospital{}, shared.ErrConflict
	}
	return h, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM hospitales WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return ErrHasServices
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
