package shifts

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

// Repository persists shifts in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a shift repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const turnoColumns = `id, enfermero_id, tipo, fecha_inicio, fecha_fin, creado_en, actualizado_en`

func scanTurno(row pgx.Row) (Turno, error) {
	var t Turno
	err := row.Scan(&t.ID, &t.EnfermeroID, &t.Tipo, &t.FechaInicio, &t.FechaFin, &t.CreadoEn, &t.ActualizadoEn)
	return t, err
}

// List returns shifts, optionally scoped to one nurse and a date window.
func (r *Repository) List(ctx context.Context, enfermeroID int64, desde, hasta time.Time) ([]Turno, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if enfermeroID > 0 {
		args = append(args, enfermeroID)
		where += fmt.Sprintf(` AND enfermero_id = $%d`, len(args))
	}
	if !desde.IsZero() {
		args = append(args, desde)
		where += fmt.Sprintf(` AND fecha_fin >= $%d`, len(args))
	}
	if !hasta.IsZero() {
		args = append(args, hasta)
		where += fmt.Sprintf(` AND fecha_inicio <= $%d`, len(args))
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+turnoColumns+` FROM turnos`+where+` ORDER BY fecha_inicio`, args...)
	if err != nil {
		return nil, fmt.Errorf("list turnos: %w", err)
	}
	defer rows.Close()

	var out []Turno
	for rows.Next() {
		t, err := scanTurno(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Turno, error) {
	t, err := scanTurno(r.pool.QueryRow(ctx,
		`SELECT `+turnoColumns+` FROM turnos WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Turno{}, shared.ErrNotFound
	}
	return t, err
}

// Create inserts a shift inside a transaction so the overlap check and the
// insert see the same roster.
func (r *Repository) Create(ctx context.Context, input Input) (Turno, error) {
	var created Turno
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		var overlapping int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM turnos
			 WHERE enfermero_id = $1 AND fecha_inicio < $3 AND fecha_fin > $2`,
			input.EnfermeroID, input.FechaInicio, input.FechaFin).Scan(&overlapping); err != nil {
			return err
		}
		if overlapping > 0 {
			return ErrOverlap
		}
		now := time.Now()
		t, err := scanTurno(tx.QueryRow(ctx,
			`INSERT INTO turnos (enfermero_id, tipo, fecha_inicio, fecha_fin, creado_en, actualizado_en)
			 VALUES ($1, $2, $3, $4, $5, $5)
			 RETURNING `+turnoColumns,
			input.EnfermeroID, input.Tipo, input.FechaInicio, input.FechaFin, now))
		if db.IsForeignKeyViolation(err) {
			return ErrNurseRequired
		}
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return Turno{}, err
	}
	return created, nil
}

// Update rewrites a shift, re-running the overlap check against the rest of
// the roster.
func (r *Repository) Update(ctx context.Context, id int64, input Input) (Turno, error) {
	var updated Turno
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		var overlapping int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM turnos
			 WHERE enfermero_id = $1 AND id <> $2 AND fecha_inicio < $4 AND fecha_fin > $3`,
			input.EnfermeroID, id, input.FechaInicio, input.FechaFin).Scan(&overlapping); err != nil {
			return err
		}
		if overlapping > 0 {
			return ErrOverlap
		}
		t, err := scanTurno(tx.QueryRow(ctx,
			`UPDATE turnos
			 SET enfermero_id = $1, tipo = $2, fecha_inicio = $3, fecha_fin = $4, actualizado_en = $5
			 WHERE id = $6
			 RETURNING `+turnoColumns,
			input.EnfermeroID, input.Tipo, input.FechaInicio, input.FechaFin, time.Now(), id))
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return shared.ErrNotFound
		case db.IsForeignKeyViolation(err):
			return ErrNurseRequired
		case err != nil:
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return Turno{}, err
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM turnos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
