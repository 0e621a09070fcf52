// Package stats computes console dashboard aggregates: census, stock and
// staffing counters. Results are cached in Redis with a version key that
// gets bumped whenever the underlying records change.
package stats

// Resumen is the dashboard aggregate block.
type Resumen struct {
	TotalHospitales      int64 `json:"totalHospitales"`
	TotalServicios       int64 `json:"totalServicios"`
	TotalPacientes       int64 `json:"totalPacientes"`
	PacientesActivos     int64 `json:"pacientesActivos"`
	TotalEnfermeros      int64 `json:"totalEnfermeros"`
	TotalMedicamentos    int64 `json:"totalMedicamentos"`
	TotalInsumos         int64 `json:"totalInsumos"`
	StockMedicamentos    int64 `json:"stockMedicamentos"`
	StockInsumos         int64 `json:"stockInsumos"`
	RecursosAsignados    int64 `json:"recursosAsignados"`
	MedicamentosSinStock int64 `json:"medicamentosSinStock"`
	InsumosSinStock      int64 `json:"insumosSinStock"`
}

// ServicioOcupacion is the per-ward occupancy row.
type ServicioOcupacion struct {
	ServicioID int64  `json:"servicioId"`
	Nombre     string `json:"nombre"`
	Capacidad  int64  `json:"capacidad"`
	Admitidos  int64  `json:"admitidos"`
}
