package patients

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

// Repository persists patients in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a patient repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const pacienteColumns = `id, numero_expediente, nombre, apellidos, fecha_nacimiento, sexo,
	servicio_id, diagnostico, estado, creado_en, actualizado_en`

func scanPaciente(row pgx.Row) (Paciente, error) {
	var p Paciente
	err := row.Scan(&p.ID, &p.NumeroExpediente, &p.Nombre, &p.Apellidos, &p.FechaNacimiento,
		&p.Sexo, &p.ServicioID, &p.Diagnostico, &p.Estado, &p.CreadoEn, &p.ActualizadoEn)
	return p, err
}

// List returns patients, optionally scoped to one ward. The search term
// matches name, surname and expediente number.
func (r *Repository) List(ctx context.Context, servicioID int64, filters shared.ListFilters) ([]Paciente, int, error) {
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
			   OR lower(numero_expediente) LIKE '%%' || $%d || '%%')`,
			len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM pacientes`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count pacientes: %w", err)
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
	query := fmt.Sprintf(`SELECT %s FROM pacientes%s ORDER BY apellidos, nombre LIMIT $%d OFFSET $%d`,
		pacienteColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list pacientes: %w", err)
	}
	defer rows.Close()

	var out []Paciente
	for rows.Next() {
		p, err := scanPaciente(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *Repository) Get(ctx context.Context, id int64) (Paciente, error) {
	p, err := scanPaciente(r.pool.QueryRow(ctx,
		`SELECT `+pacienteColumns+` FROM pacientes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Paciente{}, shared.ErrNotFound
	}
	return p, err
}

func (r *Repository) Create(ctx context.Context, input Input) (Paciente, error) {
	now := time.Now()
	p, err := scanPaciente(r.pool.QueryRow(ctx,
		`INSERT INTO pacientes (numero_expediente, nombre, apellidos, fecha_nacimiento, sexo,
			servicio_id, diagnostico, estado, creado_en, actualizado_en)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		 RETURNING `+pacienteColumns,
		input.NumeroExpediente, input.Nombre, input.Apellidos, input.FechaNacimiento,
		input.Sexo, input.ServicioID, input.Diagnostico, input.Estado, now))
	switch {
	case db.IsUniqueViolation(err):
		return Paciente{}, ErrExpedienteTaken
	case db.IsForeignKeyViolation(err):
		return Paciente{}, ErrWardRequired
	}
	return p, err
}

func (r *Repository) Update(ctx context.Context, id int64, input Input) (Paciente, error) {
	p, err := scanPaciente(r.pool.QueryRow(ctx,
		`UPDATE pacientes
		 SET numero_expediente = $1, nombre = $2, apellidos = $3, fecha_nacimiento = $4,
			 sexo = $5, servicio_id = $6, diagnostico = $7, estado = $8, actualizado_en = $9
		 WHERE id = $10
		 RETURNING `+pacienteColumns,
		input.NumeroExpediente, input.Nombre, input.Apellidos, input.FechaNacimiento,
		input.Sexo, input.ServicioID, input.Diagnostico, input.Estado, time.Now(), id))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Paciente{}, shared.ErrNotFound
	case db.IsUniqueViolation(err):
		return Paciente{}, ErrExpedienteTaken
	case db.IsForeignKeyViolation(err):
		return Paciente{}, ErrWardRequired
	}
	return p, err
}

// Delete removes a patient unless assignments still reference them.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	var held int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_assignments WHERE paciente_id = $1`, id).Scan(&held); err != nil {
		return err
	}
	if held > 0 {
		return ErrHasAssignments
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM pacientes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
