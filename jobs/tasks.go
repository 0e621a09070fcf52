// Package jobs defines the background tasks of the console: periodic
// ledger consistency checks, low-stock alerts and expiry scans.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"

	jobmetrics "github.com/hospitalia/hospitalia/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerCheck verifies movement-sum and non-negative invariants.
	TaskLedgerCheck = "ledger:check"
	// TaskLowStockScan flags items whose stock fell under their threshold.
	TaskLowStockScan = "inventory:low_stock"
	// TaskExpiryScan flags medications close to their expiry date.
	TaskExpiryScan = "inventory:expiry"
)

// LowStockPayload configures a low-stock scan run.
type LowStockPayload struct {
	Threshold int64 `json:"threshold"`
}

// ExpiryPayload configures an expiry scan run.
type ExpiryPayload struct {
	WithinDays int `json:"withinDays"`
}

// NewLedgerCheckTask constructs the consistency check task.
func NewLedgerCheckTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerCheck, nil)
}

// NewLowStockTask constructs a low-stock scan task.
func NewLowStockTask(payload LowStockPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data), nil
}

// NewExpiryTask constructs an expiry scan task.
func NewExpiryTask(payload ExpiryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExpiryScan, data), nil
}

// DB is the query surface the task handlers need. *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Deps carries what the task handlers need.
type Deps struct {
	Pool    DB
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// HandleLedgerCheck reports items whose on-hand quantity went negative. The
// movement sum is logged alongside for diagnosis. Items receive their initial
// stock without a movement row, so the sum is not compared against on-hand.
func (d Deps) HandleLedgerCheck(ctx context.Context, _ *asynq.Task) error {
	tracker := d.Metrics.Track("ledger_check")
	return tracker.End(d.ledgerCheck(ctx))
}

func (d Deps) ledgerCheck(ctx context.Context) error {
	rows, err := d.Pool.Query(ctx, `
		SELECT i.item_id, i.on_hand, COALESCE(SUM(m.delta), 0)
		FROM inventory_items i
		LEFT JOIN stock_movements m ON m.item_id = i.item_id
		GROUP BY i.item_id, i.on_hand
		HAVING i.on_hand < 0`)
	if err != nil {
		return fmt.Errorf("ledger check query: %w", err)
	}
	defer rows.Close()

	violations := 0
	for rows.Next() {
		var itemID, onHand, sum int64
		if err := rows.Scan(&itemID, &onHand, &sum); err != nil {
			return err
		}
		violations++
		d.Logger.Error("ledger violation",
			slog.Int64("item_id", itemID),
			slog.Int64("on_hand", onHand),
			slog.Int64("movement_sum", sum))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	d.Metrics.AddViolations("negative_stock", violations)
	return nil
}

// HandleLowStockScan logs every item at or below the configured threshold.
func (d Deps) HandleLowStockScan(ctx context.Context, t *asynq.Task) error {
	tracker := d.Metrics.Track("low_stock_scan")
	var payload LowStockPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	if payload.Threshold <= 0 {
		payload.Threshold = 10
	}
	return tracker.End(d.lowStockScan(ctx, payload.Threshold))
}

func (d Deps) lowStockScan(ctx context.Context, threshold int64) error {
	rows, err := d.Pool.Query(ctx, `
		SELECT item_id, kind, nombre, on_hand
		FROM inventory_items
		WHERE on_hand <= $1
		ORDER BY on_hand`, threshold)
	if err != nil {
		return fmt.Errorf("low stock query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, onHand int64
		var kind, nombre string
		if err := rows.Scan(&itemID, &kind, &nombre, &onHand); err != nil {
			return err
		}
		d.Logger.Warn("stock bajo",
			slog.Int64("item_id", itemID),
			slog.String("kind", kind),
			slog.String("nombre", nombre),
			slog.Int64("on_hand", onHand))
	}
	return rows.Err()
}

// HandleExpiryScan logs medications expiring within the configured window.
func (d Deps) HandleExpiryScan(ctx context.Context, t *asynq.Task) error {
	tracker := d.Metrics.Track("expiry_scan")
	var payload ExpiryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return tracker.End(asynq.SkipRetry)
	}
	if payload.WithinDays <= 0 {
		payload.WithinDays = 30
	}
	return tracker.End(d.expiryScan(ctx, payload.WithinDays))
}

func (d Deps) expiryScan(ctx context.Context, withinDays int) error {
	rows, err := d.Pool.Query(ctx, `
		SELECT item_id, nombre, lote, fecha_caducidad
		FROM inventory_items
		WHERE kind = 'MEDICAMENTO'
		  AND fecha_caducidad IS NOT NULL
		  AND fecha_caducidad <= NOW() + ($1 || ' days')::interval
		ORDER BY fecha_caducidad`, withinDays)
	if err != nil {
		return fmt.Errorf("expiry query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID int64
		var nombre string
		var lote *string
		var fecha time.Time
		// lote is nullable; scanning through a pointer keeps rows
		// without a lot number from aborting the whole scan.
		if err := rows.Scan(&itemID, &nombre, &lote, &fecha); err != nil {
			return err
		}
		loteVal := ""
		if lote != nil {
			loteVal = *lote
		}
		d.Logger.Warn("medicamento por caducar",
			slog.Int64("item_id", itemID),
			slog.String("nombre", nombre),
			slog.String("lote", loteVal),
			slog.Time("fecha_caducidad", fecha))
	}
	return rows.Err()
}
