package services

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

// Repository persists wards in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a ward repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const servicioColumns = `id, hospital_id, nombre, descripcion, capacidad, creado_en, actualizado_en`

func scanServicio(row pgx.Row) (Servicio, error) {
	var s Servicio
	err := row.Scan(&s.ID, &s.HospitalID, &s.Nombre, &s.Descripcion, &s.Capacidad, &s.CreadoEn, &s.ActualizadoEn)
	return s, err
}

// List returns wards, optionally scoped to one hospital.
func (r *Repository) List(ctx context.Context, hospitalID int64, filters shared.ListFilters) ([]Servicio, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if hospitalID > 0 {
		args = append(args, hospitalID)
		where += fmt.Sprintf(` AND hospital_id = $%d`, len(args))
	}
	if filters.Search != "" {
		args = append(args, shared.FoldSearchTerm(filters.Search))
		where += fmt.Sprintf(` AND unaccent(lower(nombre)) LIKE '%%' || $%d || '%%'`, len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM servicios`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count servicios: %w", err)
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
	query := fmt.Sprintf(`SELECT %s FROM servicios%s ORDER BY nombre LIMIT $%d OFFSET $%d`,
		servicioColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list servicios: %w", err)
	}
	defer rows.Close()

	var out []Servicio
	for rows.Next() {
		s, err := scanServicio(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Servicio, error) {
	s, err := scanServicio(r.pool.QueryRow(ctx,
		`SELECT `+servicioColumns+` FROM servicios WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Servicio{}, shared.ErrNotFound
	}
	return s, err
}

func (r *Repository) Create(ctx context.Context, input Input) (Servicio, error) {
	now := time.Now()
	s, err := scanServicio(r.pool.QueryRow(ctx,
		`INSERT INTO servicios (hospital_id, nombre, descripcion, capacidad, creado_en, actualizado_en)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 RETURNING `+servicioColumns,
		input.HospitalID, input.Nombre, input.Descripcion, input.Capacidad, now))
	if db.IsForeignKeyViolation(err) {
		return Servicio{}, ErrHospitalRequired
	}
	return s, err
}

func (r *Repository) Update(ctx context.Context, id int64, input Input) (Servicio, error) {
	s, err := scanServicio(r.pool.QueryRow(ctx,
		`UPDATE servicios
		 SET hospital_id = $1, nombre = $2, descripcion = $3, capacidad = $4, actualizado_en = $5
		 WHERE id = $6
		 RETURNING `+servicioColumns,
		input.HospitalID, input.Nombre, input.Descripcion, input.Capacidad, time.Now(), id))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Servicio{}, shared.ErrNotFound
	case db.IsForeignKeyViolation(err):
		return Servicio{}, ErrHospitalRequired
	}
	return s, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM servicios WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return ErrHasPatients
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
