package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so repos can run
// standalone or join a caller's transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const orderColumns = `id, stripe_session_id, stripe_customer_id, customer_name, customer_email, customer_phone,
	status, total_price, currency, delivery_days, expected_delivery_date, actual_delivery_date,
	revisions_included, revisions_used, site_url, repository_url, admin_notes,
	created_at, updated_at, paid_at, onboarding_completed_at, delivered_at`

type OrderRepo struct {
	q Querier
}

var _ interfaces.OrderRepo = (*OrderRepo)(nil)

func NewOrderRepo(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

func (r *OrderRepo) scanOrder(row pgx.Row) (*db.Order, error) {
	var o db.Order
	err := row.Scan(&o.ID, &o.StripeSessionID, &o.StripeCustomerID, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.Status, &o.TotalPrice, &o.Currency, &o.DeliveryDays, &o.ExpectedDeliveryDate, &o.ActualDeliveryDate,
		&o.RevisionsIncluded, &o.RevisionsUsed, &o.SiteURL, &o.RepositoryURL, &o.AdminNotes,
		&o.CreatedAt, &o.UpdatedAt, &o.PaidAt, &o.OnboardingCompletedAt, &o.DeliveredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) GetOrder(ctx context.Context, orderID int64) (*db.Order, error) {
	return r.scanOrder(r.q.QueryRow(ctx, "SELECT "+orderColumns+" FROM site_orders WHERE id = $1", orderID))
}

// FindOrderByIdentifier resolves a full payment-session id, a short id
// (last 8 chars of the session id) or a numeric order id, in that order.
func (r *OrderRepo) FindOrderByIdentifier(ctx context.Context, identifier string) (*db.Order, error) {
	order, err := r.scanOrder(r.q.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM site_orders WHERE stripe_session_id = $1", identifier))
	if err != nil || order != nil {
		return order, err
	}

	if len(identifier) == 8 {
		order, err = r.scanOrder(r.q.QueryRow(ctx,
			"SELECT "+orderColumns+" FROM site_orders WHERE upper(right(stripe_session_id, 8)) = $1",
			strings.ToUpper(identifier)))
		if err != nil || order != nil {
			return order, err
		}
	}

	if id, convErr := strconv.ParseInt(identifier, 10, 64); convErr == nil {
		return r.GetOrder(ctx, id)
	}
	return nil, nil
}

func (r *OrderRepo) CreateOrder(ctx context.Context, order *db.Order) error {
	err := r.q.QueryRow(ctx, `INSERT INTO site_orders(stripe_session_id, stripe_customer_id, customer_name,
		customer_email, customer_phone, status, total_price, currency, delivery_days, expected_delivery_date,
		revisions_included, revisions_used, created_at, updated_at, paid_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15) RETURNING id`,
		order.StripeSessionID, order.StripeCustomerID, order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.Status, order.TotalPrice, order.Currency, order.DeliveryDays, order.ExpectedDeliveryDate,
		order.RevisionsIncluded, order.RevisionsUsed, order.CreatedAt, order.UpdatedAt, order.PaidAt).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("err inserting order, %v", err)
	}
	return nil
}

func (r *OrderRepo) SaveOrder(ctx context.Context, order *db.Order) error {
	order.UpdatedAt = time.Now()
	_, err := r.q.Exec(ctx, `UPDATE site_orders SET status = $1, site_url = $2, repository_url = $3,
		admin_notes = $4, actual_delivery_date = $5, revisions_used = $6, updated_at = $7,
		paid_at = $8, onboarding_completed_at = $9, delivered_at = $10 WHERE id = $11`,
		order.Status, order.SiteURL, order.RepositoryURL, order.AdminNotes, order.ActualDeliveryDate,
		order.RevisionsUsed, order.UpdatedAt, order.PaidAt, order.OnboardingCompletedAt, order.DeliveredAt, order.ID)
	if err != nil {
		return fmt.Errorf("err updating order %d, %v", order.ID, err)
	}
	return nil
}

const onboardingColumns = `id, order_id, business_name, business_email, business_phone, has_whatsapp, business_address,
	niche, custom_niche, primary_city, state, service_areas, services, primary_service,
	site_objective, site_description, selected_pages, total_pages, tone, primary_cta, cta_text,
	primary_color, secondary_color, accent_color, logo_url, reference_sites, design_notes,
	business_hours, social_facebook, social_instagram, social_linkedin, social_youtube,
	testimonials, about_owner, years_in_business, is_complete, completed_steps, created_at, updated_at`

func (r *OrderRepo) GetOnboarding(ctx context.Context, orderID int64) (*db.Onboarding, error) {
	var ob db.Onboarding
	err := r.q.QueryRow(ctx, "SELECT "+onboardingColumns+" FROM site_onboarding WHERE order_id = $1", orderID).Scan(
		&ob.ID, &ob.OrderID, &ob.BusinessName, &ob.BusinessEmail, &ob.BusinessPhone, &ob.HasWhatsApp, &ob.BusinessAddress,
		&ob.Niche, &ob.CustomNiche, &ob.PrimaryCity, &ob.State, &ob.ServiceAreas, &ob.Services, &ob.PrimaryService,
		&ob.SiteObjective, &ob.SiteDescription, &ob.SelectedPages, &ob.TotalPages, &ob.Tone, &ob.PrimaryCTA, &ob.CTAText,
		&ob.PrimaryColor, &ob.SecondaryColor, &ob.AccentColor, &ob.LogoURL, &ob.ReferenceSites, &ob.DesignNotes,
		&ob.BusinessHours, &ob.SocialFacebook, &ob.SocialInstagram, &ob.SocialLinkedIn, &ob.SocialYouTube,
		&ob.Testimonials, &ob.AboutOwner, &ob.YearsInBusiness, &ob.IsComplete, &ob.CompletedSteps, &ob.CreatedAt, &ob.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ob, nil
}

// UpsertOnboarding inserts the brief or replaces it on resubmission.
func (r *OrderRepo) UpsertOnboarding(ctx context.Context, ob *db.Onboarding) error {
	now := time.Now()
	ob.UpdatedAt = now
	if ob.CreatedAt.IsZero() {
		ob.CreatedAt = now
	}
	err := r.q.QueryRow(ctx, `INSERT INTO site_onboarding(order_id, business_name, business_email, business_phone,
		has_whatsapp, business_address, niche, custom_niche, primary_city, state, service_areas, services,
		primary_service, site_objective, site_description, selected_pages, total_pages, tone, primary_cta, cta_text,
		primary_color, secondary_color, accent_color, logo_url, reference_sites, design_notes, business_hours,
		social_facebook, social_instagram, social_linkedin, social_youtube, testimonials, about_owner,
		years_in_business, is_complete, completed_steps, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
		$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38)
		ON CONFLICT (order_id) DO UPDATE SET
		business_name = EXCLUDED.business_name, business_email = EXCLUDED.business_email,
		business_phone = EXCLUDED.business_phone, has_whatsapp = EXCLUDED.has_whatsapp,
		business_address = EXCLUDED.business_address, niche = EXCLUDED.niche, custom_niche = EXCLUDED.custom_niche,
		primary_city = EXCLUDED.primary_city, state = EXCLUDED.state, service_areas = EXCLUDED.service_areas,
		services = EXCLUDED.services, primary_service = EXCLUDED.primary_service,
		site_objective = EXCLUDED.site_objective, site_description = EXCLUDED.site_description,
		selected_pages = EXCLUDED.selected_pages, total_pages = EXCLUDED.total_pages, tone = EXCLUDED.tone,
		primary_cta = EXCLUDED.primary_cta, cta_text = EXCLUDED.cta_text, primary_color = EXCLUDED.primary_color,
		secondary_color = EXCLUDED.secondary_color, accent_color = EXCLUDED.accent_color,
		logo_url = EXCLUDED.logo_url, reference_sites = EXCLUDED.reference_sites,
		design_notes = EXCLUDED.design_notes, business_hours = EXCLUDED.business_hours,
		social_facebook = EXCLUDED.social_facebook, social_instagram = EXCLUDED.social_instagram,
		social_linkedin = EXCLUDED.social_linkedin, social_youtube = EXCLUDED.social_youtube,
		testimonials = EXCLUDED.testimonials, about_owner = EXCLUDED.about_owner,
		years_in_business = EXCLUDED.years_in_business, is_complete = EXCLUDED.is_complete,
		completed_steps = EXCLUDED.completed_steps, updated_at = EXCLUDED.updated_at
		RETURNING id`,
		ob.OrderID, ob.BusinessName, ob.BusinessEmail, ob.BusinessPhone, ob.HasWhatsApp, ob.BusinessAddress,
		ob.Niche, ob.CustomNiche, ob.PrimaryCity, ob.State, ob.ServiceAreas, ob.Services, ob.PrimaryService,
		ob.SiteObjective, ob.SiteDescription, ob.SelectedPages, ob.TotalPages, ob.Tone, ob.PrimaryCTA, ob.CTAText,
		ob.PrimaryColor, ob.SecondaryColor, ob.AccentColor, ob.LogoURL, ob.ReferenceSites, ob.DesignNotes,
		ob.BusinessHours, ob.SocialFacebook, ob.SocialInstagram, ob.SocialLinkedIn, ob.SocialYouTube,
		ob.Testimonials, ob.AboutOwner, ob.YearsInBusiness, ob.IsComplete, ob.CompletedSteps,
		ob.CreatedAt, ob.UpdatedAt).Scan(&ob.ID)
	if err != nil {
		return fmt.Errorf("err upserting onboarding for order %d, %v", ob.OrderID, err)
	}
	return nil
}

// FindStuckOrders returns orders sitting in a pre-generation status with a
// completed onboarding, the sweep's pick-up set.
func (r *OrderRepo) FindStuckOrders(ctx context.Context) ([]db.Order, error) {
	rows, err := r.q.Query(ctx, `SELECT `+orderColumns+` FROM site_orders
		WHERE status = $1 AND onboarding_completed_at IS NOT NULL ORDER BY id`, consts.OrderStatusBuilding)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []db.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

type DeliverableRepo struct {
	q Querier
}

var _ interfaces.DeliverableRepo = (*DeliverableRepo)(nil)

func NewDeliverableRepo(q Querier) *DeliverableRepo {
	return &DeliverableRepo{q: q}
}

func (r *DeliverableRepo) FindDeliverable(ctx context.Context, orderID int64, typ consts.DeliverableType) (*db.Deliverable, error) {
	var d db.Deliverable
	err := r.q.QueryRow(ctx, `SELECT id, order_id, type, title, status, content, created_at, updated_at
		FROM site_deliverables WHERE order_id = $1 AND type = $2`, orderID, typ).Scan(
		&d.ID, &d.OrderID, &d.Type, &d.Title, &d.Status, &d.Content, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *DeliverableRepo) SaveDeliverable(ctx context.Context, d *db.Deliverable) error {
	now := time.Now()
	d.UpdatedAt = now
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	err := r.q.QueryRow(ctx, `INSERT INTO site_deliverables(order_id, type, title, status, content, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (order_id, type) DO UPDATE SET
		title = EXCLUDED.title, status = EXCLUDED.status, content = EXCLUDED.content, updated_at = EXCLUDED.updated_at
		RETURNING id`,
		d.OrderID, d.Type, d.Title, d.Status, d.Content, d.CreatedAt, d.UpdatedAt).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("err saving deliverable %s for order %d, %v", d.Type, d.OrderID, err)
	}
	return nil
}

type DeploymentRepo struct {
	q Querier
}

var _ interfaces.DeploymentRepo = (*DeploymentRepo)(nil)

func NewDeploymentRepo(q Querier) *DeploymentRepo {
	return &DeploymentRepo{q: q}
}

func (r *DeploymentRepo) GetDeployments(ctx context.Context, orderID int64) ([]db.Deployment, error) {
	rows, err := r.q.Query(ctx, `SELECT id, order_id, provider, external_id, url, status, detail, last_attempt_at
		FROM site_deployments WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deployments []db.Deployment
	for rows.Next() {
		var d db.Deployment
		if err := rows.Scan(&d.ID, &d.OrderID, &d.Provider, &d.ExternalID, &d.URL, &d.Status, &d.Detail, &d.LastAttemptAt); err != nil {
			return nil, err
		}
		deployments = append(deployments, d)
	}
	return deployments, rows.Err()
}

func (r *DeploymentRepo) UpsertDeployment(ctx context.Context, d *db.Deployment) error {
	d.LastAttemptAt = time.Now()
	err := r.q.QueryRow(ctx, `INSERT INTO site_deployments(order_id, provider, external_id, url, status, detail, last_attempt_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (order_id, provider) DO UPDATE SET
		external_id = EXCLUDED.external_id, url = EXCLUDED.url, status = EXCLUDED.status,
		detail = EXCLUDED.detail, last_attempt_at = EXCLUDED.last_attempt_at
		RETURNING id`,
		d.OrderID, d.Provider, d.ExternalID, d.URL, d.Status, d.Detail, d.LastAttemptAt).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("err upserting deployment %s for order %d, %v", d.Provider, d.OrderID, err)
	}
	return nil
}
