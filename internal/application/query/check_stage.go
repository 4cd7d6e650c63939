package query

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	appConsts "github.com/viniciussvasques/crm-innexar/internal/application/consts"
	"github.com/viniciussvasques/crm-innexar/internal/application/dto"
	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/config"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db/repo"
	"github.com/viniciussvasques/crm-innexar/internal/infra/genlog"
)

// CheckStage reports where an order sits in the pipeline, coarse enough for
// a customer-facing progress screen and for deciding whether a run looks
// healthy.
type CheckStage struct {
	cfg  config.GeneratorConfig
	pool *pgxpool.Pool
	sink *genlog.Sink
}

func NewCheckStage(cfg config.GeneratorConfig, pool *pgxpool.Pool, sink *genlog.Sink) *CheckStage {
	return &CheckStage{cfg: cfg, pool: pool, sink: sink}
}

func (q *CheckStage) Execute(ctx context.Context, orderID int64) (*dto.StageResponse, error) {
	orders := repo.NewOrderRepo(q.pool)
	order, err := orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("err finding order, %v", err)
	}
	if order == nil {
		return nil, errs.NotFoundError{Entity: "order", ID: fmt.Sprintf("%d", orderID)}
	}

	resp := &dto.StageResponse{
		OrderID:    orderID,
		Status:     order.Status,
		Stage:      stageOf(order.Status),
		SiteURL:    order.SiteURL,
		FilesCount: countWorkspaceFiles(filepath.Join(q.cfg.WorkspaceRoot, fmt.Sprintf("site-%d", orderID))),
	}

	logs, err := q.sink.GetLogs(ctx, orderID)
	if err == nil && len(logs) > 0 {
		resp.LastStep = logs[len(logs)-1].Step
	}
	return resp, nil
}

func countWorkspaceFiles(dir string) int {
	count := 0
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return nil
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	return count
}

func stageOf(status consts.OrderStatus) appConsts.Stage {
	switch status {
	case consts.OrderStatusGenerating:
		return appConsts.StageInProgress
	case consts.OrderStatusReview:
		return appConsts.StageGenerated
	case consts.OrderStatusDelivered:
		return appConsts.StageDelivered
	default:
		return appConsts.StageNotStarted
	}
}
