package stats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository computes dashboard aggregates in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a stats repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Resumen computes the console summary block in a single round trip.
func (r *Repository) Resumen(ctx context.Context) (Resumen, error) {
	var s Resumen
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM hospitales),
			(SELECT COUNT(*) FROM servicios),
			(SELECT COUNT(*) FROM pacientes),
			(SELECT COUNT(*) FROM pacientes WHERE estado = 'ACTIVO'),
			(SELECT COUNT(*) FROM enfermeros),
			(SELECT COUNT(*) FROM inventory_items WHERE kind = 'MEDICAMENTO'),
			(SELECT COUNT(*) FROM inventory_items WHERE kind = 'INSUMO'),
			(SELECT COALESCE(SUM(on_hand), 0) FROM inventory_items WHERE kind = 'MEDICAMENTO'),
			(SELECT COALESCE(SUM(on_hand), 0) FROM inventory_items WHERE kind = 'INSUMO'),
			(SELECT COALESCE(SUM(cantidad), 0) FROM patient_assignments),
			(SELECT COUNT(*) FROM inventory_items WHERE kind = 'MEDICAMENTO' AND on_hand = 0),
			(SELECT COUNT(*) FROM inventory_items WHERE kind = 'INSUMO' AND on_hand = 0)`,
	).Scan(
		&s.TotalHospitales, &s.TotalServicios, &s.TotalPacientes, &s.PacientesActivos,
		&s.TotalEnfermeros, &s.TotalMedicamentos, &s.TotalInsumos,
		&s.StockMedicamentos, &s.StockInsumos, &s.RecursosAsignados,
		&s.MedicamentosSinStock, &s.InsumosSinStock,
	)
	if err != nil {
		return Resumen{}, fmt.Errorf("stats resumen: %w", err)
	}
	return s, nil
}

// Ocupacion returns admitted-patient counts per ward.
func (r *Repository) Ocupacion(ctx context.Context) ([]ServicioOcupacion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.nombre, s.capacidad,
			(SELECT COUNT(*) FROM pacientes p WHERE p.servicio_id = s.id AND p.estado = 'ACTIVO')
		FROM servicios s
		ORDER BY s.nombre`)
	if err != nil {
		return nil, fmt.Errorf("stats ocupacion: %w", err)
	}
	defer rows.Close()

	var out []ServicioOcupacion
	for rows.Next() {
		var o ServicioOcupacion
		if err := rows.Scan(&o.ServicioID, &o.Nombre, &o.Capacidad, &o.Admitidos); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
