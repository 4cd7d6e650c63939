package dto

import (
	"encoding/json"
	"time"

	"github.com/viniciussvasques/crm-innexar/internal/application/consts"
	domain "github.com/viniciussvasques/crm-innexar/internal/domain/consts"
)

type SubmitOnboardingRequest struct {
	BusinessName    string          `json:"businessName"`
	BusinessEmail   string          `json:"businessEmail"`
	BusinessPhone   string          `json:"businessPhone"`
	HasWhatsApp     bool            `json:"hasWhatsapp"`
	BusinessAddress *string         `json:"businessAddress,omitempty"`
	Niche           domain.Niche    `json:"niche"`
	CustomNiche     *string         `json:"customNiche,omitempty"`
	PrimaryCity     string          `json:"primaryCity"`
	State           string          `json:"state"`
	ServiceAreas    []string        `json:"serviceAreas,omitempty"`
	Services        []string        `json:"services,omitempty"`
	PrimaryService  string          `json:"primaryService"`
	SiteObjective   *string         `json:"siteObjective,omitempty"`
	SiteDescription *string         `json:"siteDescription,omitempty"`
	SelectedPages   []string        `json:"selectedPages,omitempty"`
	Tone            domain.Tone     `json:"tone"`
	PrimaryCTA      domain.CTA      `json:"primaryCta"`
	CTAText         *string         `json:"ctaText,omitempty"`
	PrimaryColor    *string         `json:"primaryColor,omitempty"`
	SecondaryColor  *string         `json:"secondaryColor,omitempty"`
	AccentColor     *string         `json:"accentColor,omitempty"`
	LogoURL         *string         `json:"logoUrl,omitempty"`
	ReferenceSites  []string        `json:"referenceSites,omitempty"`
	DesignNotes     *string         `json:"designNotes,omitempty"`
	BusinessHours   json.RawMessage `json:"businessHours,omitempty"`
	SocialFacebook  *string         `json:"socialFacebook,omitempty"`
	SocialInstagram *string         `json:"socialInstagram,omitempty"`
	SocialLinkedIn  *string         `json:"socialLinkedin,omitempty"`
	SocialYouTube   *string         `json:"socialYoutube,omitempty"`
	Testimonials    json.RawMessage `json:"testimonials,omitempty"`
	AboutOwner      *string         `json:"aboutOwner,omitempty"`
	YearsInBusiness *int            `json:"yearsInBusiness,omitempty"`
	IsComplete      bool            `json:"isComplete"`
	CompletedSteps  int             `json:"completedSteps"`
}

type OrderResponse struct {
	ID                   int64              `json:"id"`
	ShortID              string             `json:"shortId"`
	CustomerName         string             `json:"customerName"`
	CustomerEmail        string             `json:"customerEmail"`
	Status               domain.OrderStatus `json:"status"`
	TotalPrice           float64            `json:"totalPrice"`
	Currency             string             `json:"currency"`
	DeliveryDays         int                `json:"deliveryDays"`
	ExpectedDeliveryDate *time.Time         `json:"expectedDeliveryDate,omitempty"`
	SiteURL              *string            `json:"siteUrl,omitempty"`
	RepositoryURL        *string            `json:"repositoryUrl,omitempty"`
	OnboardingComplete   bool               `json:"onboardingComplete"`
	CreatedAt            time.Time          `json:"createdAt"`
}

type GenerationLogResponse struct {
	Step      string           `json:"step"`
	Message   string           `json:"message"`
	Status    domain.LogStatus `json:"status"`
	Details   json.RawMessage  `json:"details,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

type StageResponse struct {
	OrderID int64              `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
	Stage   consts.Stage       `json:"stage"`
	SiteURL *string            `json:"siteUrl,omitempty"`
	// FilesCount is the current workspace file count, zero when the
	// workspace does not exist yet.
	FilesCount int `json:"filesCount"`
	// LastStep is the most recent generation log step, empty before the
	// pipeline produced anything.
	LastStep string `json:"lastStep,omitempty"`
}

type StartGenerationRequest struct {
	Force bool `json:"force"`
}

type StartGenerationResponse struct {
	OrderID int64  `json:"orderId"`
	Queued  bool   `json:"queued"`
	Message string `json:"message"`
}
