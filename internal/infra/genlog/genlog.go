package genlog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

// Sink persists generation progress on its own pool connection, outside any
// pipeline transaction, so entries survive a rolled-back or crashed run.
type Sink struct {
	pool *pgxpool.Pool
}

var _ interfaces.ProgressSink = (*Sink)(nil)

func NewSink(pool *pgxpool.Pool) *Sink {
	return &Sink{pool: pool}
}

// Append writes one log entry. It never returns an error, a failed write is
// logged and swallowed so the pipeline keeps going.
func (s *Sink) Append(ctx context.Context, orderID int64, step, message string, status consts.LogStatus, details any) {
	var payload []byte
	if details != nil {
		var err error
		payload, err = json.Marshal(details)
		if err != nil {
			payload, _ = json.Marshal(map[string]string{"serialization_error": err.Error()})
		}
	}

	_, err := s.pool.Exec(ctx, `INSERT INTO site_generation_logs(order_id, step, message, status, details, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		orderID, step, message, status, payload, time.Now())
	if err != nil {
		slog.Error("err appending generation log", "orderID", orderID, "step", step, "error", err)
	}
}

// GetLogs returns an order's log entries in insertion order.
func (s *Sink) GetLogs(ctx context.Context, orderID int64) ([]db.GenerationLog, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, order_id, step, message, status, details, created_at
		FROM site_generation_logs WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []db.GenerationLog
	for rows.Next() {
		var l db.GenerationLog
		if err := rows.Scan(&l.ID, &l.OrderID, &l.Step, &l.Message, &l.Status, &l.Details, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
