package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	dbm "github.com/viniciussvasques/crm-innexar/internal/infra/db"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db/repo"
	"github.com/viniciussvasques/crm-innexar/internal/infra/mail"
	dbs "github.com/viniciussvasques/crm-innexar/pkg/db"
	"github.com/viniciussvasques/crm-innexar/pkg/env"
)

type PaymentConfig struct {
	apiKey       string
	webhookKey   string
	deliveryDays int
}

func NewPaymentConfig() *PaymentConfig {
	return &PaymentConfig{
		apiKey:       env.GetEnv("STRIPE_KEY", ""),
		webhookKey:   env.GetEnv("STRIPE_WEBHOOK", ""),
		deliveryDays: 7,
	}
}

// Payment turns confirmed checkouts into site orders.
type Payment struct {
	uowFactory *dbs.UOWFactory
	notifier   interfaces.Notifier
	cfg        *PaymentConfig
}

func NewPayment(uowFactory *dbs.UOWFactory, notifier interfaces.Notifier, cfg *PaymentConfig) *Payment {
	stripe.Key = cfg.apiKey
	stripe.SetHTTPClient(&http.Client{Timeout: 10 * time.Second})
	return &Payment{
		uowFactory: uowFactory,
		notifier:   notifier,
		cfg:        cfg,
	}
}

func (c *Payment) Webhook(ctx context.Context, req []byte, stripeHeader string) error {
	event, err := webhook.ConstructEvent(req, stripeHeader, c.cfg.webhookKey)
	if err != nil {
		return fmt.Errorf("error creating event, %v", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("error parsing checkout session, %v", err)
		}
		return c.confirmCheckout(ctx, &session)
	default:
		slog.Info("ignoring stripe event", "type", event.Type)
		return nil
	}
}

func (c *Payment) confirmCheckout(ctx context.Context, session *stripe.CheckoutSession) error {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return fmt.Errorf("error starting tx, %v", err)
	}
	defer uow.Rollback()

	orders := repo.NewOrderRepo(tx)
	existing, err := orders.FindOrderByIdentifier(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("err checking existing order, %v", err)
	}

	now := time.Now()
	if existing != nil {
		// Stripe retries webhooks, a confirmed order stays as is.
		if existing.PaidAt != nil {
			return uow.Commit()
		}
		existing.Status = consts.OrderStatusOnboardingPending
		existing.PaidAt = &now
		if err := orders.SaveOrder(ctx, existing); err != nil {
			return err
		}
		return uow.Commit()
	}

	expectedDelivery := now.AddDate(0, 0, c.cfg.deliveryDays)
	order := &dbm.Order{
		StripeSessionID:      session.ID,
		Status:               consts.OrderStatusOnboardingPending,
		TotalPrice:           float64(session.AmountTotal) / 100,
		Currency:             strings.ToUpper(string(session.Currency)),
		DeliveryDays:         c.cfg.deliveryDays,
		ExpectedDeliveryDate: &expectedDelivery,
		RevisionsIncluded:    2,
		CreatedAt:            now,
		UpdatedAt:            now,
		PaidAt:               &now,
	}
	if session.Customer != nil {
		order.StripeCustomerID = session.Customer.ID
	}
	if session.CustomerDetails != nil {
		order.CustomerName = session.CustomerDetails.Name
		order.CustomerEmail = session.CustomerDetails.Email
		if session.CustomerDetails.Phone != "" {
			phone := session.CustomerDetails.Phone
			order.CustomerPhone = &phone
		}
	}

	if err := orders.CreateOrder(ctx, order); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("error commiting tx, %v", err)
	}

	slog.Info("order created from checkout", "orderID", order.ID, "session", session.ID)
	if c.notifier != nil && order.CustomerEmail != "" {
		c.notifier.Send(mail.TemplatePaymentConfirmed, order.CustomerEmail, map[string]string{
			"CustomerName": order.CustomerName,
			"OrderID":      fmt.Sprintf("%d", order.ID),
		})
	}
	return nil
}
