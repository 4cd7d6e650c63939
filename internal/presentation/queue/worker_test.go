package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/viniciussvasques/crm-innexar/internal/application/processors"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/config"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

type stubOrders struct {
	order      *db.Order
	onboarding *db.Onboarding
	getErr     error
}

func (s *stubOrders) GetOrder(_ context.Context, _ int64) (*db.Order, error) {
	return s.order, s.getErr
}

func (s *stubOrders) FindOrderByIdentifier(_ context.Context, _ string) (*db.Order, error) {
	return s.order, s.getErr
}

func (s *stubOrders) GetOnboarding(_ context.Context, _ int64) (*db.Onboarding, error) {
	return s.onboarding, nil
}

func (s *stubOrders) SaveOrder(_ context.Context, _ *db.Order) error { return nil }

type stubSink struct{}

func (stubSink) Append(_ context.Context, _ int64, _, _ string, _ consts.LogStatus, _ any) {}

func testWorker(orders *stubOrders) *Worker {
	factory := func() *processors.GenerateSite {
		return processors.NewGenerateSite(
			config.GeneratorConfig{}, orders, nil, nil, stubSink{}, nil, nil, nil, nil)
	}
	return NewWorker(Config{RedisAddr: "127.0.0.1:6379"}, factory, nil)
}

func generateTask(t *testing.T, orderID int64) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(GenerateSitePayload{OrderID: orderID})
	require.NoError(t, err)
	return asynq.NewTask(TypeSiteGenerate, payload)
}

func TestConfigErrorIsNotRetried(t *testing.T) {
	// A building order with no onboarding fails on configuration, retrying
	// cannot fix that.
	w := testWorker(&stubOrders{
		order: &db.Order{ID: 42, Status: consts.OrderStatusBuilding},
	})

	err := w.handleGenerate(context.Background(), generateTask(t, 42))
	require.Error(t, err)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestTransientErrorStaysRetryable(t *testing.T) {
	w := testWorker(&stubOrders{getErr: fmt.Errorf("connection reset")})

	err := w.handleGenerate(context.Background(), generateTask(t, 42))
	require.Error(t, err)
	require.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestGarbagePayloadIsDropped(t *testing.T) {
	w := testWorker(&stubOrders{})

	err := w.handleGenerate(context.Background(), asynq.NewTask(TypeSiteGenerate, []byte("{not json")))
	require.Error(t, err)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
