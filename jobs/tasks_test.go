package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/hospitalia/hospitalia/internal/jobs"
)

type fakeDB struct {
	rows *fakeRows
	err  error
}

func (f *fakeDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

// fakeRows mimics pgx scan semantics: a NULL value only fits a pointer
// destination.
type fakeRows struct {
	rows [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		src := row[i]
		if src == nil {
			p, ok := d.(**string)
			if !ok {
				return fmt.Errorf("cannot scan NULL into %T", d)
			}
			*p = nil
			continue
		}
		switch p := d.(type) {
		case *int64:
			*p = src.(int64)
		case *string:
			*p = src.(string)
		case **string:
			v := src.(string)
			*p = &v
		case *time.Time:
			*p = src.(time.Time)
		default:
			return fmt.Errorf("unsupported scan destination %T", d)
		}
	}
	return nil
}

func testDeps(db DB, reg *prometheus.Registry) Deps {
	return Deps{
		Pool:    db,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: jobmetrics.NewMetrics(reg),
	}
}

func TestExpiryScanToleratesMissingLot(t *testing.T) {
	caducidad := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)
	db := &fakeDB{rows: &fakeRows{rows: [][]any{
		{int64(1), "Amoxicilina 500mg", "L-2209", caducidad},
		{int64(2), "Insulina glargina", nil, caducidad.AddDate(0, 0, 5)},
	}}}
	reg := prometheus.NewRegistry()
	deps := testDeps(db, reg)

	task, err := NewExpiryTask(ExpiryPayload{WithinDays: 15})
	require.NoError(t, err)
	require.NoError(t, deps.HandleExpiryScan(context.Background(), task))
	require.Equal(t, 1.0, counterValue(t, reg, "hospitalia_jobs_total",
		map[string]string{"job": "expiry_scan", "status": "success"}))
}

func TestLedgerCheckReportsNegativeBalances(t *testing.T) {
	db := &fakeDB{rows: &fakeRows{rows: [][]any{
		{int64(7), int64(-3), int64(-3)},
	}}}
	reg := prometheus.NewRegistry()
	deps := testDeps(db, reg)

	require.NoError(t, deps.HandleLedgerCheck(context.Background(), nil))
	require.Equal(t, 1.0, counterValue(t, reg, "hospitalia_ledger_violations_total",
		map[string]string{"check": "negative_stock"}))
}

func TestLowStockScanRecordsQueryFailure(t *testing.T) {
	db := &fakeDB{err: errors.New("connection refused")}
	reg := prometheus.NewRegistry()
	deps := testDeps(db, reg)

	task, err := NewLowStockTask(LowStockPayload{Threshold: 5})
	require.NoError(t, err)
	require.Error(t, deps.HandleLowStockScan(context.Background(), task))
	require.Equal(t, 1.0, counterValue(t, reg, "hospitalia_jobs_total",
		map[string]string{"job": "low_stock_scan", "status": "failure"}))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if matchesLabels(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchesLabels(m *dto.Metric, labels map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		got[l.GetName()] = l.GetValue()
	}
	for k, v := range labels {
		if got[k] != v {
			return false
		}
	}
	return true
}
