package commands

import (
	"context"
	"fmt"

	"github.com/viniciussvasques/crm-innexar/internal/application/dto"
	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db/repo"
	"github.com/viniciussvasques/crm-innexar/internal/presentation/queue"
	dbs "github.com/viniciussvasques/crm-innexar/pkg/db"
)

// StartGeneration is the admin's manual trigger. Force regenerates an order
// that already reached review.
type StartGeneration struct {
	uowFactory *dbs.UOWFactory
	client     *queue.Client
}

func NewStartGeneration(uowFactory *dbs.UOWFactory, client *queue.Client) *StartGeneration {
	return &StartGeneration{uowFactory: uowFactory, client: client}
}

func (c *StartGeneration) Execute(ctx context.Context, orderID int64, req *dto.StartGenerationRequest) (*dto.StartGenerationResponse, error) {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting tx, %v", err)
	}
	defer uow.Rollback()

	orders := repo.NewOrderRepo(tx)
	order, err := orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("err finding order, %v", err)
	}
	if order == nil {
		return nil, errs.NotFoundError{Entity: "order", ID: fmt.Sprintf("%d", orderID)}
	}

	onboarding, err := orders.GetOnboarding(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if onboarding == nil || !onboarding.IsComplete {
		return nil, errs.ValidationError{Msg: "onboarding is not complete"}
	}

	switch order.Status {
	case consts.OrderStatusDelivered, consts.OrderStatusCancelled:
		return nil, errs.ValidationError{Msg: fmt.Sprintf("order is %s", order.Status)}
	case consts.OrderStatusReview:
		if !req.Force {
			return &dto.StartGenerationResponse{
				OrderID: orderID,
				Queued:  false,
				Message: "order is already in review, pass force to regenerate",
			}, uow.Commit()
		}
	}

	order.Status = consts.OrderStatusGenerating
	if err := orders.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("error commiting tx, %v", err)
	}

	if err := c.client.EnqueueGeneration(ctx, orderID, !req.Force); err != nil {
		return nil, err
	}
	return &dto.StartGenerationResponse{OrderID: orderID, Queued: true, Message: "generation queued"}, nil
}
