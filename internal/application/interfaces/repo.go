package interfaces

import (
	"context"

	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

type OrderRepo interface {
	GetOrder(ctx context.Context, orderID int64) (*db.Order, error)
	FindOrderByIdentifier(ctx context.Context, identifier string) (*db.Order, error)
	GetOnboarding(ctx context.Context, orderID int64) (*db.Onboarding, error)
	SaveOrder(ctx context.Context, order *db.Order) error
}

type DeliverableRepo interface {
	FindDeliverable(ctx context.Context, orderID int64, typ consts.DeliverableType) (*db.Deliverable, error)
	SaveDeliverable(ctx context.Context, deliverable *db.Deliverable) error
}

type DeploymentRepo interface {
	GetDeployments(ctx context.Context, orderID int64) ([]db.Deployment, error)
	UpsertDeployment(ctx context.Context, deployment *db.Deployment) error
}

// ProgressSink appends to the generation log. Implementations must never
// fail the caller, a broken log is not a reason to stop building a site.
type ProgressSink interface {
	Append(ctx context.Context, orderID int64, step, message string, status consts.LogStatus, details any)
}

// TextGenerator is the AI gateway as the pipeline sees it.
type TextGenerator interface {
	Generate(ctx context.Context, taskType, prompt, system string) (string, error)
	Validate(ctx context.Context, taskType string) error
}

type Materializer interface {
	Select(onboarding *db.Onboarding) string
	Exists(templateID string) bool
	Materialize(templateID, targetDir string) error
	Substitute(targetDir string, onboarding *db.Onboarding, order *db.Order) error
}

// DeployRequest is everything a provider integration may need for one order.
type DeployRequest struct {
	Order        *db.Order
	Onboarding   *db.Onboarding
	WorkspaceDir string
	// Prior holds deployment records from earlier attempts, keyed by provider,
	// so integrations can reuse already-created external resources.
	Prior map[consts.DeployProvider]db.Deployment
}

type DeployResult struct {
	ExternalID string
	URL        string
	Detail     string
}

type Deployer interface {
	Name() consts.DeployProvider
	Deploy(ctx context.Context, req DeployRequest) (*DeployResult, error)
}

// Notifier sends a templated mail, fire and forget.
type Notifier interface {
	Send(template string, to string, data map[string]string)
}
