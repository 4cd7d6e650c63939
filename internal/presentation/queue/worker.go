package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/application/processors"
)

// ProcessorFactory builds a fresh pipeline per task execution, so no state
// leaks between generation runs.
type ProcessorFactory func() *processors.GenerateSite

// Worker consumes generation tasks off redis.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	factory ProcessorFactory
	sweeper *Sweeper
}

func NewWorker(cfg Config, factory ProcessorFactory, sweeper *Sweeper) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		},
		asynq.Config{
			Concurrency:    cfg.Concurrency,
			RetryDelayFunc: RetryDelay,
			Logger:         slogAdapter{},
		},
	)

	mux := asynq.NewServeMux()
	w := &Worker{server: server, mux: mux, factory: factory, sweeper: sweeper}
	mux.HandleFunc(TypeSiteGenerate, w.handleGenerate)
	mux.HandleFunc(TypeSiteSweep, w.handleSweep)
	return w
}

func (w *Worker) handleGenerate(ctx context.Context, task *asynq.Task) error {
	var payload GenerateSitePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("err unmarshalling generation payload, %v: %w", err, asynq.SkipRetry)
	}

	retried, _ := asynq.GetRetryCount(ctx)
	slog.Info("generation task started", "orderID", payload.OrderID, "resume", payload.Resume, "retried", retried)

	// Retries resume, only the first attempt honors the enqueued flag.
	resume := payload.Resume || retried > 0
	err := w.factory().Handle(ctx, payload.OrderID, resume)

	// Missing routing or credentials cannot heal by retrying, an admin has
	// to step in and re-trigger. Everything else stays retryable.
	var cfgErr errs.ConfigError
	if errors.As(err, &cfgErr) {
		slog.Warn("generation blocked on configuration", "orderID", payload.OrderID, "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

func (w *Worker) handleSweep(ctx context.Context, _ *asynq.Task) error {
	return w.sweeper.Sweep(ctx)
}

func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// slogAdapter plugs slog into asynq's logger interface.
type slogAdapter struct{}

func (slogAdapter) Debug(args ...any) { slog.Debug(fmt.Sprint(args...)) }
func (slogAdapter) Info(args ...any)  { slog.Info(fmt.Sprint(args...)) }
func (slogAdapter) Warn(args ...any)  { slog.Warn(fmt.Sprint(args...)) }
func (slogAdapter) Error(args ...any) { slog.Error(fmt.Sprint(args...)) }
func (slogAdapter) Fatal(args ...any) { slog.Error(fmt.Sprint(args...)) }
