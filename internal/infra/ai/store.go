package ai

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

// RoutingStore resolves which model configuration serves a task type.
type RoutingStore interface {
	GetRouting(ctx context.Context, taskType string) (*db.TaskRouting, error)
	GetConfig(ctx context.Context, configID int64) (*db.AIConfig, error)
}

type PgRoutingStore struct {
	pool *pgxpool.Pool
}

var _ RoutingStore = (*PgRoutingStore)(nil)

func NewPgRoutingStore(pool *pgxpool.Pool) *PgRoutingStore {
	return &PgRoutingStore{pool: pool}
}

func (s *PgRoutingStore) GetRouting(ctx context.Context, taskType string) (*db.TaskRouting, error) {
	var r db.TaskRouting
	err := s.pool.QueryRow(ctx, `SELECT task_type, primary_config_id, fallback_config_id, temperature
		FROM ai_task_routing WHERE task_type = $1`, taskType).Scan(
		&r.TaskType, &r.PrimaryConfigID, &r.FallbackConfigID, &r.Temperature)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (s *PgRoutingStore) GetConfig(ctx context.Context, configID int64) (*db.AIConfig, error) {
	var c db.AIConfig
	err := s.pool.QueryRow(ctx, `SELECT id, provider, model_name, api_key, base_url, max_tokens
		FROM ai_configs WHERE id = $1`, configID).Scan(
		&c.ID, &c.Provider, &c.ModelName, &c.APIKey, &c.BaseURL, &c.MaxTokens)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
