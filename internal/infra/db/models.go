package db

import (
	"encoding/json"
	"time"

	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
)

type Order struct {
	ID                    int64              `db:"id"`
	StripeSessionID       string             `db:"stripe_session_id"`
	StripeCustomerID      string             `db:"stripe_customer_id"`
	CustomerName          string             `db:"customer_name"`
	CustomerEmail         string             `db:"customer_email"`
	CustomerPhone         *string            `db:"customer_phone"`
	Status                consts.OrderStatus `db:"status"`
	TotalPrice            float64            `db:"total_price"`
	Currency              string             `db:"currency"`
	DeliveryDays          int                `db:"delivery_days"`
	ExpectedDeliveryDate  *time.Time         `db:"expected_delivery_date"`
	ActualDeliveryDate    *time.Time         `db:"actual_delivery_date"`
	RevisionsIncluded     int                `db:"revisions_included"`
	RevisionsUsed         int                `db:"revisions_used"`
	SiteURL               *string            `db:"site_url"`
	RepositoryURL         *string            `db:"repository_url"`
	AdminNotes            *string            `db:"admin_notes"`
	CreatedAt             time.Time          `db:"created_at"`
	UpdatedAt             time.Time          `db:"updated_at"`
	PaidAt                *time.Time         `db:"paid_at"`
	OnboardingCompletedAt *time.Time         `db:"onboarding_completed_at"`
	DeliveredAt           *time.Time         `db:"delivered_at"`
}

type Onboarding struct {
	ID              int64           `db:"id"`
	OrderID         int64           `db:"order_id"`
	BusinessName    string          `db:"business_name"`
	BusinessEmail   string          `db:"business_email"`
	BusinessPhone   string          `db:"business_phone"`
	HasWhatsApp     bool            `db:"has_whatsapp"`
	BusinessAddress *string         `db:"business_address"`
	Niche           consts.Niche    `db:"niche"`
	CustomNiche     *string         `db:"custom_niche"`
	PrimaryCity     string          `db:"primary_city"`
	State           string          `db:"state"`
	ServiceAreas    []string        `db:"service_areas"`
	Services        []string        `db:"services"`
	PrimaryService  string          `db:"primary_service"`
	SiteObjective   *string         `db:"site_objective"`
	SiteDescription *string         `db:"site_description"`
	SelectedPages   []string        `db:"selected_pages"`
	TotalPages      int             `db:"total_pages"`
	Tone            consts.Tone     `db:"tone"`
	PrimaryCTA      consts.CTA      `db:"primary_cta"`
	CTAText         *string         `db:"cta_text"`
	PrimaryColor    *string         `db:"primary_color"`
	SecondaryColor  *string         `db:"secondary_color"`
	AccentColor     *string         `db:"accent_color"`
	LogoURL         *string         `db:"logo_url"`
	ReferenceSites  []string        `db:"reference_sites"`
	DesignNotes     *string         `db:"design_notes"`
	BusinessHours   json.RawMessage `db:"business_hours"`
	SocialFacebook  *string         `db:"social_facebook"`
	SocialInstagram *string         `db:"social_instagram"`
	SocialLinkedIn  *string         `db:"social_linkedin"`
	SocialYouTube   *string         `db:"social_youtube"`
	Testimonials    json.RawMessage `db:"testimonials"`
	AboutOwner      *string         `db:"about_owner"`
	YearsInBusiness *int            `db:"years_in_business"`
	IsComplete      bool            `db:"is_complete"`
	CompletedSteps  int             `db:"completed_steps"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// Testimonial is the element shape of Onboarding.Testimonials.
type Testimonial struct {
	Name   string `json:"name"`
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

type Deliverable struct {
	ID        int64                    `db:"id"`
	OrderID   int64                    `db:"order_id"`
	Type      consts.DeliverableType   `db:"type"`
	Title     string                   `db:"title"`
	Status    consts.DeliverableStatus `db:"status"`
	Content   string                   `db:"content"`
	CreatedAt time.Time                `db:"created_at"`
	UpdatedAt time.Time                `db:"updated_at"`
}

type GenerationLog struct {
	ID        int64            `db:"id"`
	OrderID   int64            `db:"order_id"`
	Step      string           `db:"step"`
	Message   string           `db:"message"`
	Status    consts.LogStatus `db:"status"`
	Details   json.RawMessage  `db:"details"`
	CreatedAt time.Time        `db:"created_at"`
}

type Deployment struct {
	ID            int64                   `db:"id"`
	OrderID       int64                   `db:"order_id"`
	Provider      consts.DeployProvider   `db:"provider"`
	ExternalID    string                  `db:"external_id"`
	URL           string                  `db:"url"`
	Status        consts.DeploymentStatus `db:"status"`
	Detail        string                  `db:"detail"`
	LastAttemptAt time.Time               `db:"last_attempt_at"`
}

type TaskRouting struct {
	TaskType         string  `db:"task_type"`
	PrimaryConfigID  int64   `db:"primary_config_id"`
	FallbackConfigID *int64  `db:"fallback_config_id"`
	Temperature      float64 `db:"temperature"`
}

type AIConfig struct {
	ID        int64  `db:"id"`
	Provider  string `db:"provider"`
	ModelName string `db:"model_name"`
	APIKey    string `db:"api_key"`
	BaseURL   string `db:"base_url"`
	MaxTokens int64  `db:"max_tokens"`
}

type IntegrationConfig struct {
	Type        consts.IntegrationType `db:"integration_type"`
	Key         string                 `db:"key"`
	Value       string                 `db:"value"`
	IsSecret    bool                   `db:"is_secret"`
	Description *string                `db:"description"`
	UpdatedAt   time.Time              `db:"updated_at"`
}
