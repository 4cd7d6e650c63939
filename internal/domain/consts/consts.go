package consts

type OrderStatus string

const (
	OrderStatusPendingPayment    OrderStatus = "pending_payment"
	OrderStatusPaid              OrderStatus = "paid"
	OrderStatusOnboardingPending OrderStatus = "onboarding_pending"
	OrderStatusBuilding          OrderStatus = "building"
	OrderStatusGenerating        OrderStatus = "generating"
	OrderStatusReview            OrderStatus = "review"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusCancelled         OrderStatus = "cancelled"
)

// Terminal reports whether generation already produced a valid result,
// making any further run a no-op.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusReview || s == OrderStatusDelivered
}

type Niche string

const (
	NicheRestaurant   Niche = "restaurant"
	NicheLawyer       Niche = "lawyer"
	NicheDentist      Niche = "dentist"
	NicheConstruction Niche = "construction"
	NicheBeauty       Niche = "beauty"
	NicheFitness      Niche = "fitness"
	NicheRealEstate   Niche = "real_estate"
	NicheOther        Niche = "other"
)

type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
	ToneBold         Tone = "bold"
	ToneMinimal      Tone = "minimal"
)

type CTA string

const (
	CTACall     CTA = "call"
	CTAWhatsApp CTA = "whatsapp"
	CTAForm     CTA = "form"
	CTAEmail    CTA = "email"
)

type DeliverableType string

const DeliverableStrategyBriefing DeliverableType = "strategy_briefing"

type DeliverableStatus string

const (
	DeliverableStatusPending    DeliverableStatus = "pending"
	DeliverableStatusGenerating DeliverableStatus = "generating"
	DeliverableStatusReady      DeliverableStatus = "ready"
	DeliverableStatusApproved   DeliverableStatus = "approved"
	DeliverableStatusRejected   DeliverableStatus = "rejected"
)

type LogStatus string

const (
	LogInfo    LogStatus = "info"
	LogSuccess LogStatus = "success"
	LogWarning LogStatus = "warning"
	LogError   LogStatus = "error"
)

type DeployProvider string

const (
	ProviderGitHub  DeployProvider = "github"
	ProviderStorage DeployProvider = "storage"
	ProviderPages   DeployProvider = "pages"
	ProviderDNS     DeployProvider = "dns"
)

type DeploymentStatus string

const (
	DeploymentPending   DeploymentStatus = "pending"
	DeploymentSucceeded DeploymentStatus = "succeeded"
	DeploymentFailed    DeploymentStatus = "failed"
)

type IntegrationType string

const (
	IntegrationGitHub     IntegrationType = "github"
	IntegrationCloudflare IntegrationType = "cloudflare"
	IntegrationStorage    IntegrationType = "storage"
	IntegrationDNS        IntegrationType = "dns"
	IntegrationStripe     IntegrationType = "stripe"
	IntegrationSMTP       IntegrationType = "smtp"
)
