package nurses

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

// Repository persists nursing staff in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a nurse repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const enfermeroColumns = `id, cedula, nombre, apellidos, especialidad, servicio_id,
	correo, telefono, creado_en, actualizado_en`

func scanEnfermero(row pgx.Row) (Enfermero, error) {
	var e Enfermero
	err := row.Scan(&e.ID, &e.Cedula, &e.Nombre, &e.Apellidos, &e.Especialidad,
		&e.ServicioID, &e.Correo, &e.Telefono, &e.CreadoEn, &e.ActualizadoEn)
	return e, err
}

func (r *Repository) List(ctx context.Context, servicioID int64, filters shared.ListFilters) ([]Enfermero, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if servicioID > 0 {
		args = append(args, servicioID)
		where += fmt.Sprintf(` AND servicio_id = $%d`, len(args))
	}
	if filters.Search != "" {
		args = append(args, shared.FoldSearchTerm(filters.Search))
		where += fmt.Sprintf(
			` AND (unaccent(lower(nombre || ' ' || apellidos)) LIKE '%%' || $%d || '%%'
			   OR lower(cedula) LIKE '%%' || $%d || '%%')`,
			len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM enfermeros`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count enfermeros: %w", err)
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
	query := fmt.Sprintf(`SELECT %s FROM enfermeros%s ORDER BY apellidos, nombre LIMIT $%d OFFSET $%d`,
		enfermeroColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list enfermeros: %w", err)
	}
	defer rows.Close()

	var out []Enfermero
	for rows.Next() {
		e, err := scanEnfermero(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Enfermero, error) {
	e, err := scanEnfermero(r.pool.QueryRow(ctx,
		`SELECT `+enfermeroColumns+` FROM enfermeros WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Enfermero{}, shared.ErrNotFound
	}
	return e, err
}

func (r *Repository) Create(ctx context.Context, input Input) (Enfermero, error) {
	now := time.Now()
	e, err := scanEnfermero(r.pool.QueryRow(ctx,
		`INSERT INTO enfermeros (cedula, nombre, apellidos, especialidad, servicio_id,
			correo, telefono, creado_en, actualizado_en)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 RETURNING `+enfermeroColumns,
		input.Cedula, input.Nombre, input.Apellidos, input.Especialidad,
		input.ServicioID, input.Correo, input.Telefono, now))
	if db.IsUniqueViolation(err) {
		return Enfermero{}, ErrCedulaTaken
	}
	return e, err
}

func (r *Repository) Update(ctx context.Context, id int64, input Input) (Enfermero, error) {
	e, err := scanEnfermero(r.pool.QueryRow(ctx,
		`UPDATE enfermeros
		 SET cedula = $1, nombre = $2, apellidos = $3, especialidad = $4, servicio_id = $5,
			 correo = $6, telefono = $7, actualizado_en = $8
		 WHERE id = $9
		 RETURNING `+enfermeroColumns,
		input.Cedula, input.Nombre, input.Apellidos, input.Especialidad,
		input.ServicioID, input.Correo, input.Telefono, time.Now(), id))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Enfermero{}, shared.ErrNotFound
	case db.IsUniqueViolation(err):
		return Enfermero{}, ErrCedulaTaken
	}
	return e, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	var scheduled int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM turnos WHERE enfermero_id = $1 AND fecha_fin > NOW()`, id).Scan(&scheduled); err != nil {
		return err
	}
	if scheduled > 0 {
		return ErrHasShifts
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM enfermeros WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
