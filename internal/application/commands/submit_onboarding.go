package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/viniciussvasques/crm-innexar/internal/application/dto"
	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	dbm "github.com/viniciussvasques/crm-innexar/internal/infra/db"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db/repo"
	"github.com/viniciussvasques/crm-innexar/internal/infra/mail"
	"github.com/viniciussvasques/crm-innexar/internal/presentation/queue"
	dbs "github.com/viniciussvasques/crm-innexar/pkg/db"
)

// SubmitOnboarding stores the customer's brief and, once it is complete,
// hands the order to the generation pipeline.
type SubmitOnboarding struct {
	uowFactory *dbs.UOWFactory
	client     *queue.Client
	notifier   interfaces.Notifier
}

func NewSubmitOnboarding(uowFactory *dbs.UOWFactory, client *queue.Client, notifier interfaces.Notifier) *SubmitOnboarding {
	return &SubmitOnboarding{
		uowFactory: uowFactory,
		client:     client,
		notifier:   notifier,
	}
}

func (c *SubmitOnboarding) Execute(ctx context.Context, identifier string, req *dto.SubmitOnboardingRequest) error {
	uow := c.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return fmt.Errorf("error starting tx, %v", err)
	}
	defer uow.Rollback()

	orders := repo.NewOrderRepo(tx)
	order, err := orders.FindOrderByIdentifier(ctx, identifier)
	if err != nil {
		return fmt.Errorf("err finding order, %v", err)
	}
	if order == nil {
		return errs.NotFoundError{Entity: "order", ID: identifier}
	}
	if order.PaidAt == nil {
		return errs.ValidationError{Msg: "order is not paid yet"}
	}
	// Once generation ran, the brief is frozen, edits go through revisions.
	switch order.Status {
	case consts.OrderStatusGenerating, consts.OrderStatusReview, consts.OrderStatusDelivered, consts.OrderStatusCancelled:
		return errs.ValidationError{Msg: fmt.Sprintf("onboarding can no longer change, order is %s", order.Status)}
	}

	onboarding := toOnboarding(order.ID, req)
	if err := orders.UpsertOnboarding(ctx, onboarding); err != nil {
		return err
	}

	completed := false
	if req.IsComplete && order.OnboardingCompletedAt == nil {
		now := time.Now()
		order.OnboardingCompletedAt = &now
		// The pipeline flips building to generating when it actually starts,
		// keeping the order visible to the stuck-order sweep until then.
		order.Status = consts.OrderStatusBuilding
		completed = true
	}
	if err := orders.SaveOrder(ctx, order); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("error commiting tx, %v", err)
	}

	if completed {
		if err := c.client.EnqueueGeneration(ctx, order.ID, false); err != nil {
			// The sweep will pick the order up, so the submission still
			// succeeds.
			slog.Error("err enqueueing generation after onboarding", "orderID", order.ID, "error", err)
		}
		if c.notifier != nil {
			c.notifier.Send(mail.TemplateSiteInProgress, order.CustomerEmail, map[string]string{
				"CustomerName": order.CustomerName,
				"OrderID":      fmt.Sprintf("%d", order.ID),
			})
		}
	}
	return nil
}

func toOnboarding(orderID int64, req *dto.SubmitOnboardingRequest) *dbm.Onboarding {
	return &dbm.Onboarding{
		OrderID:         orderID,
		BusinessName:    req.BusinessName,
		BusinessEmail:   req.BusinessEmail,
		BusinessPhone:   req.BusinessPhone,
		HasWhatsApp:     req.HasWhatsApp,
		BusinessAddress: req.BusinessAddress,
		Niche:           req.Niche,
		CustomNiche:     req.CustomNiche,
		PrimaryCity:     req.PrimaryCity,
		State:           req.State,
		ServiceAreas:    req.ServiceAreas,
		Services:        req.Services,
		PrimaryService:  req.PrimaryService,
		SiteObjective:   req.SiteObjective,
		SiteDescription: req.SiteDescription,
		SelectedPages:   req.SelectedPages,
		TotalPages:      len(req.SelectedPages),
		Tone:            req.Tone,
		PrimaryCTA:      req.PrimaryCTA,
		CTAText:         req.CTAText,
		PrimaryColor:    req.PrimaryColor,
		SecondaryColor:  req.SecondaryColor,
		AccentColor:     req.AccentColor,
		LogoURL:         req.LogoURL,
		ReferenceSites:  req.ReferenceSites,
		DesignNotes:     req.DesignNotes,
		BusinessHours:   req.BusinessHours,
		SocialFacebook:  req.SocialFacebook,
		SocialInstagram: req.SocialInstagram,
		SocialLinkedIn:  req.SocialLinkedIn,
		SocialYouTube:   req.SocialYouTube,
		Testimonials:    req.Testimonials,
		AboutOwner:      req.AboutOwner,
		YearsInBusiness: req.YearsInBusiness,
		IsComplete:      req.IsComplete,
		CompletedSteps:  req.CompletedSteps,
	}
}
