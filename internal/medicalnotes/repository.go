package medicalnotes

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospitalia/hospitalia/internal/platform/db"
	"github.com/hospitalia/hospitalia/internal/shared"
)

// Repository persists clinical notes in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a note repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const notaColumns = `id, paciente_id, enfermero_id, titulo, contenido, creado_en`

func scanNota(row pgx.Row) (Nota, error) {
	var n Nota
	err := row.Scan(&n.ID, &n.PacienteID, &n.EnfermeroID, &n.Titulo, &n.Contenido, &n.CreadoEn)
	return n, err
}

func (r *Repository) Create(ctx context.Context, input Input) (Nota, error) {
	n, err := scanNota(r.pool.QueryRow(ctx,
		`INSERT INTO notas_medicas (paciente_id, enfermero_id, titulo, contenido, creado_en)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+notaColumns,
		input.PacienteID, input.EnfermeroID, input.Titulo, input.Contenido, time.Now()))
	if db.IsForeignKeyViolation(err) {
		return Nota{}, ErrPatientRequired
	}
	return n, err
}

func (r *Repository) Get(ctx context.Context, id int64) (Nota, error) {
	n, err := scanNota(r.pool.QueryRow(ctx,
		`SELECT `+notaColumns+` FROM notas_medicas WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Nota{}, shared.ErrNotFound
	}
	return n, err
}

func (r *Repository) ListByPatient(ctx context.Context, pacienteID int64) ([]Nota, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+notaColumns+` FROM notas_medicas WHERE paciente_id = $1 ORDER BY creado_en DESC`,
		pacienteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Nota
	for rows.Next() {
		n, err := scanNota(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// PatientHeader resolves the identity block printed at the top of the PDF.
func (r *Repository) PatientHeader(ctx context.Context, pacienteID int64) (PatientHeader, error) {
	var h PatientHeader
	err := r.pool.QueryRow(ctx,
		`SELECT p.numero_expediente, p.nombre || ' ' || p.apellidos, COALESCE(s.nombre, '')
		 FROM pacientes p
		 LEFT JOIN servicios s ON s.id = p.servicio_id
		 WHERE p.id = $1`, pacienteID).Scan(&h.NumeroExpediente, &h.NombreCompleto, &h.Servicio)
	if errors.Is(err, pgx.ErrNoRows) {
		return PatientHeader{}, shared.ErrNotFound
	}
	return h, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM notas_medicas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
