package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/viniciussvasques/crm-innexar/internal/application/dto"
	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db/repo"
)

// GetOrder resolves an order by payment session id, short id or numeric id.
type GetOrder struct {
	pool *pgxpool.Pool
}

func NewGetOrder(pool *pgxpool.Pool) *GetOrder {
	return &GetOrder{pool: pool}
}

func (q *GetOrder) Execute(ctx context.Context, identifier string) (*dto.OrderResponse, error) {
	orders := repo.NewOrderRepo(q.pool)
	order, err := orders.FindOrderByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("err finding order, %v", err)
	}
	if order == nil {
		return nil, errs.NotFoundError{Entity: "order", ID: identifier}
	}

	return toOrderResponse(order), nil
}

func toOrderResponse(order *db.Order) *dto.OrderResponse {
	return &dto.OrderResponse{
		ID:                   order.ID,
		ShortID:              ShortID(order.StripeSessionID),
		CustomerName:         order.CustomerName,
		CustomerEmail:        order.CustomerEmail,
		Status:               order.Status,
		TotalPrice:           order.TotalPrice,
		Currency:             order.Currency,
		DeliveryDays:         order.DeliveryDays,
		ExpectedDeliveryDate: order.ExpectedDeliveryDate,
		SiteURL:              order.SiteURL,
		RepositoryURL:        order.RepositoryURL,
		OnboardingComplete:   order.OnboardingCompletedAt != nil,
		CreatedAt:            order.CreatedAt,
	}
}

// ShortID is the customer-facing order reference, the session id's tail.
func ShortID(sessionID string) string {
	if len(sessionID) <= 8 {
		return strings.ToUpper(sessionID)
	}
	return strings.ToUpper(sessionID[len(sessionID)-8:])
}
