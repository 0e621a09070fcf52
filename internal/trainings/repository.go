package trainings

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

// Repository persists training sessions in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a training repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const capacitacionColumns = `c.id, c.titulo, c.descripcion, c.fecha, c.duracion_horas, c.cupo,
	(SELECT COUNT(*) FROM inscripciones i WHERE i.capacitacion_id = c.id) AS inscritos,
	c.creado_en, c.actualizado_en`

func scanCapacitacion(row pgx.Row) (Capacitacion, error) {
	var c Capacitacion
	err := row.Scan(&c.ID, &c.Titulo, &c.Descripcion, &c.Fecha, &c.DuracionHoras,
		&c.Cupo, &c.Inscritos, &c.CreadoEn, &c.ActualizadoEn)
	return c, err
}

func (r *Repository) List(ctx context.Context, filters shared.ListFilters) ([]Capacitacion, int, error) {
	where := ``
	args := []any{}
	if filters.Search != "" {
		args = append(args, shared.FoldSearchTerm(filters.Search))
		where = ` WHERE unaccent(lower(c.titulo)) LIKE '%' || $1 || '%'`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM capacitaciones c`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count capacitaciones: %w", err)
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
	query := fmt.Sprintf(`SELECT %s FROM capacitaciones c%s ORDER BY c.fecha DESC LIMIT $%d OFFSET $%d`,
		capacitacionColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list capacitaciones: %w", err)
	}
	defer rows.Close()

	var out []Capacitacion
	for rows.Next() {
		c, err := scanCapacitacion(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Capacitacion, error) {
	c, err := scanCapacitacion(r.pool.QueryRow(ctx,
		`SELECT `+capacitacionColumns+` FROM capacitaciones c WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Capacitacion{}, shared.ErrNotFound
	}
	return c, err
}

func (r *Repository) Create(ctx context.Context, input Input) (Capacitacion, error) {
	now := time.Now()
	return scanCapacitacion(r.pool.QueryRow(ctx,
		`INSERT INTO capacitaciones AS c (titulo, descripcion, fecha, duracion_horas, cupo, creado_en, actualizado_en)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING `+capacitacionColumns,
		input.Titulo, input.Descripcion, input.Fecha, input.DuracionHoras, input.Cupo, now))
}

func (r *Repository) Update(ctx context.Context, id int64, input Input) (Capacitacion, error) {
	c, err := scanCapacitacion(r.pool.QueryRow(ctx,
		`UPDATE capacitaciones AS c
		 SET titulo = $1, descripcion = $2, fecha = $3, duracion_horas = $4, cupo = $5, actualizado_en = $6
		 WHERE c.id = $7
		 RETURNING `+capacitacionColumns,
		input.Titulo, input.Descripcion, input.Fecha, input.DuracionHoras, input.Cupo, time.Now(), id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Capacitacion{}, shared.ErrNotFound
	}
	return c, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM capacitaciones WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Enroll adds a nurse to a session. The seat check and the insert run in one
// transaction with the session row locked, so the cupo cannot be oversold by
// concurrent enrollments.
func (r *Repository) Enroll(ctx context.Context, capacitacionID, enfermeroID int64) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.RepeatableRead}, func(tx pgx.Tx) error {
		var cupo, inscritos int
		err := tx.QueryRow(ctx,
			`SELECT cupo, (SELECT COUNT(*) FROM inscripciones WHERE capacitacion_id = id)
			 FROM capacitaciones WHERE id = $1 FOR UPDATE`, capacitacionID).Scan(&cupo, &inscritos)
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}
		if inscritos >= cupo {
			return ErrFull
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO inscripciones (capacitacion_id, enfermero_id, inscrito_en) VALUES ($1, $2, $3)`,
			capacitacionID, enfermeroID, time.Now())
		switch {
		case db.IsUniqueViolation(err):
			return ErrAlreadyEnrolled
		case db.IsForeignKeyViolation(err):
			return ErrNurseRequired
		}
		return err
	})
}

// Unenroll removes a nurse from a session.
func (r *Repository) Unenroll(ctx context.Context, capacitacionID, enfermeroID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM inscripciones WHERE capacitacion_id = $1 AND enfermero_id = $2`,
		capacitacionID, enfermeroID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotEnrolled
	}
	return nil
}

// Enrollments returns who is enrolled in a session.
func (r *Repository) Enrollments(ctx context.Context, capacitacionID int64) ([]Inscripcion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT capacitacion_id, enfermero_id, inscrito_en
		 FROM inscripciones WHERE capacitacion_id = $1 ORDER BY inscrito_en`, capacitacionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Inscripcion
	for rows.Next() {
		var i Inscripcion
		if err := rows.Scan(&i.CapacitacionID, &i.EnfermeroID, &i.InscritoEn); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
