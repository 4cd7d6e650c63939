package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeSiteGenerate = "site:generate"
	TypeSiteSweep    = "site:sweep"
)

const (
	generateMaxRetry = 3
	generateTimeout  = 15 * time.Minute
)

// GenerateSitePayload is the site:generate task body.
type GenerateSitePayload struct {
	OrderID int64 `json:"order_id"`
	Resume  bool  `json:"resume"`
}

// RetryDelay backs off linearly, a minute more per attempt.
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	return time.Duration(n+1) * time.Minute
}

// Client enqueues generation tasks.
type Client struct {
	client *asynq.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}),
	}
}

// EnqueueGeneration schedules one generation run. The task id keyed by
// order deduplicates concurrent enqueues, an already pending task wins.
func (c *Client) EnqueueGeneration(ctx context.Context, orderID int64, resume bool) error {
	payload, err := json.Marshal(GenerateSitePayload{OrderID: orderID, Resume: resume})
	if err != nil {
		return fmt.Errorf("err marshalling generation payload, %v", err)
	}
	task := asynq.NewTask(TypeSiteGenerate, payload)

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.TaskID(fmt.Sprintf("site:generate:%d", orderID)),
		asynq.MaxRetry(generateMaxRetry),
		asynq.Timeout(generateTimeout),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		slog.Info("generation already queued", "orderID", orderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("err enqueueing generation for order %d, %v", orderID, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
