package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db/repo"
)

// Sweeper picks up orders whose generation never started or died without a
// retry, completed onboarding but still sitting in building.
type Sweeper struct {
	orders *repo.OrderRepo
	client *Client
}

func NewSweeper(orders *repo.OrderRepo, client *Client) *Sweeper {
	return &Sweeper{orders: orders, client: client}
}

func (s *Sweeper) Sweep(ctx context.Context) error {
	stuck, err := s.orders.FindStuckOrders(ctx)
	if err != nil {
		return fmt.Errorf("err finding stuck orders, %v", err)
	}

	for i := range stuck {
		order := &stuck[i]
		onboarding, err := s.orders.GetOnboarding(ctx, order.ID)
		if err != nil {
			slog.Error("err loading onboarding during sweep", "orderID", order.ID, "error", err)
			continue
		}
		if onboarding == nil || !onboarding.IsComplete {
			continue
		}

		note := fmt.Sprintf("Geração retomada automaticamente em %s", time.Now().Format(time.RFC3339))
		if order.AdminNotes != nil && *order.AdminNotes != "" {
			note = *order.AdminNotes + "\n" + note
		}
		order.AdminNotes = &note
		order.Status = consts.OrderStatusGenerating
		if err := s.orders.SaveOrder(ctx, order); err != nil {
			slog.Error("err marking stuck order generating", "orderID", order.ID, "error", err)
			continue
		}
		if err := s.client.EnqueueGeneration(ctx, order.ID, true); err != nil {
			slog.Error("err enqueueing stuck order", "orderID", order.ID, "error", err)
			continue
		}
		slog.Info("stuck order picked up", "orderID", order.ID)
	}
	return nil
}

// NewSchedulerWithSweep emits a sweep task every two minutes.
func NewSchedulerWithSweep(cfg Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		},
		&asynq.SchedulerOpts{Logger: slogAdapter{}},
	)
	if _, err := scheduler.Register("@every 2m", asynq.NewTask(TypeSiteSweep, nil)); err != nil {
		return nil, fmt.Errorf("err registering sweep schedule, %v", err)
	}
	return scheduler, nil
}
