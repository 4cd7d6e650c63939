package processors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	appConsts "github.com/viniciussvasques/crm-innexar/internal/application/consts"
	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/config"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
	"github.com/viniciussvasques/crm-innexar/internal/infra/template"
)

type fakeOrders struct {
	order      *db.Order
	onboarding *db.Onboarding
	saved      []consts.OrderStatus
}

func (f *fakeOrders) GetOrder(_ context.Context, orderID int64) (*db.Order, error) {
	if f.order == nil || f.order.ID != orderID {
		return nil, nil
	}
	return f.order, nil
}

func (f *fakeOrders) FindOrderByIdentifier(_ context.Context, _ string) (*db.Order, error) {
	return f.order, nil
}

func (f *fakeOrders) GetOnboarding(_ context.Context, _ int64) (*db.Onboarding, error) {
	return f.onboarding, nil
}

func (f *fakeOrders) SaveOrder(_ context.Context, order *db.Order) error {
	f.saved = append(f.saved, order.Status)
	return nil
}

type fakeDeliverables struct {
	stored map[consts.DeliverableType]*db.Deliverable
}

func (f *fakeDeliverables) FindDeliverable(_ context.Context, _ int64, typ consts.DeliverableType) (*db.Deliverable, error) {
	return f.stored[typ], nil
}

func (f *fakeDeliverables) SaveDeliverable(_ context.Context, d *db.Deliverable) error {
	if f.stored == nil {
		f.stored = map[consts.DeliverableType]*db.Deliverable{}
	}
	f.stored[d.Type] = d
	return nil
}

type fakeDeployments struct {
	records map[consts.DeployProvider]db.Deployment
}

func (f *fakeDeployments) GetDeployments(_ context.Context, _ int64) ([]db.Deployment, error) {
	var out []db.Deployment
	for _, d := range f.records {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeDeployments) UpsertDeployment(_ context.Context, d *db.Deployment) error {
	if f.records == nil {
		f.records = map[consts.DeployProvider]db.Deployment{}
	}
	f.records[d.Provider] = *d
	return nil
}

type logEntry struct {
	step    string
	status  consts.LogStatus
	message string
}

type fakeSink struct {
	entries []logEntry
}

func (f *fakeSink) Append(_ context.Context, _ int64, step, message string, status consts.LogStatus, _ any) {
	f.entries = append(f.entries, logEntry{step: step, status: status, message: message})
}

func (f *fakeSink) has(step string) bool {
	for _, e := range f.entries {
		if e.step == step {
			return true
		}
	}
	return false
}

type fakeGenerator struct {
	responses   map[string]string
	errs        map[string]error
	invalid     map[string]bool
	generations []string
}

func (f *fakeGenerator) Generate(_ context.Context, taskType, _, _ string) (string, error) {
	f.generations = append(f.generations, taskType)
	if err := f.errs[taskType]; err != nil {
		return "", err
	}
	return f.responses[taskType], nil
}

func (f *fakeGenerator) Validate(_ context.Context, taskType string) error {
	if f.invalid[taskType] {
		return fmt.Errorf("no routing for task %s", taskType)
	}
	return nil
}

type fakeDeployer struct {
	name   consts.DeployProvider
	result *interfaces.DeployResult
	err    error
	calls  int
}

func (f *fakeDeployer) Name() consts.DeployProvider { return f.name }

func (f *fakeDeployer) Deploy(_ context.Context, _ interfaces.DeployRequest) (*interfaces.DeployResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// noTemplate is a materializer with no template on disk, forcing the full
// generation path.
type noTemplate struct{}

func (noTemplate) Select(*db.Onboarding) string { return "premium-static" }

func (noTemplate) Exists(string) bool { return false }

func (noTemplate) Materialize(string, string) error { return fmt.Errorf("no template") }

func (noTemplate) Substitute(string, *db.Onboarding, *db.Order) error { return nil }

type fixture struct {
	orders       *fakeOrders
	deliverables *fakeDeliverables
	deployments  *fakeDeployments
	sink         *fakeSink
	generator    *fakeGenerator
	deployers    map[consts.DeployProvider]*fakeDeployer
	cfg          config.GeneratorConfig
}

func sampleOnboarding(orderID int64) *db.Onboarding {
	return &db.Onboarding{
		OrderID:        orderID,
		BusinessName:   "Bella Italia",
		BusinessEmail:  "contato@bellaitalia.com",
		BusinessPhone:  "+55 11 98765-4321",
		Niche:          consts.NicheRestaurant,
		PrimaryCity:    "São Paulo",
		State:          "SP",
		PrimaryService: "Restaurante italiano",
		Services:       []string{"Massas", "Pizzas"},
		Tone:           consts.ToneFriendly,
		PrimaryCTA:     consts.CTAWhatsApp,
		IsComplete:     true,
	}
}

func manifestResponse(n int) string {
	files := `"index.html": "<html>Bella Italia</html>", "style.css": "body{}"`
	for i := 0; i < n-2; i++ {
		files += fmt.Sprintf(`, "pages/page%d.html": "<html>%d</html>"`, i, i)
	}
	return fmt.Sprintf(`{"files": {%s}}`, files)
}

func newFixture(t *testing.T, status consts.OrderStatus) *fixture {
	t.Helper()
	f := &fixture{
		orders: &fakeOrders{
			order:      &db.Order{ID: 42, Status: status, CustomerName: "Maria", CustomerEmail: "maria@example.com"},
			onboarding: sampleOnboarding(42),
		},
		deliverables: &fakeDeliverables{},
		deployments:  &fakeDeployments{},
		sink:         &fakeSink{},
		generator: &fakeGenerator{
			responses: map[string]string{
				appConsts.TaskStrategy: "# Estratégia",
				appConsts.TaskCoding:   manifestResponse(25),
			},
			errs:    map[string]error{},
			invalid: map[string]bool{appConsts.TaskCopy: true},
		},
		deployers: map[consts.DeployProvider]*fakeDeployer{
			consts.ProviderGitHub: {name: consts.ProviderGitHub,
				result: &interfaces.DeployResult{ExternalID: "acme/site-order-42", URL: "https://github.com/acme/site-order-42"}},
			consts.ProviderStorage: {name: consts.ProviderStorage,
				result: &interfaces.DeployResult{ExternalID: "bucket/sites/42", URL: "https://cdn.example.com/sites/42/index.html"}},
			consts.ProviderPages: {name: consts.ProviderPages,
				result: &interfaces.DeployResult{ExternalID: "site-order-42", URL: "https://site-order-42.pages.dev"}},
			consts.ProviderDNS: {name: consts.ProviderDNS,
				result: &interfaces.DeployResult{ExternalID: "site-42.innexar.com", URL: "https://site-42.innexar.com"}},
		},
		cfg: config.GeneratorConfig{
			WorkspaceRoot:     t.TempDir(),
			MinWorkspaceFiles: 5,
			PreviewDomain:     "preview.innexar.com",
		},
	}
	return f
}

func (f *fixture) processor(m interfaces.Materializer) *GenerateSite {
	deployers := make([]interfaces.Deployer, 0, len(f.deployers))
	for _, d := range f.deployers {
		deployers = append(deployers, d)
	}
	return NewGenerateSite(f.cfg, f.orders, f.deliverables, f.deployments, f.sink,
		f.generator, m, deployers, nil)
}

func TestTerminalOrderIsNoop(t *testing.T) {
	f := newFixture(t, consts.OrderStatusReview)
	p := f.processor(noTemplate{})

	require.NoError(t, p.Handle(context.Background(), 42, false))
	require.Empty(t, f.orders.saved)
	require.Empty(t, f.generator.generations)
	require.True(t, f.sink.has(appConsts.StepResumeCheck))
}

func TestUnknownOrderDropsTask(t *testing.T) {
	f := newFixture(t, consts.OrderStatusGenerating)
	p := f.processor(noTemplate{})

	require.NoError(t, p.Handle(context.Background(), 99, false))
	require.Empty(t, f.sink.entries)
}

func TestIncompleteOnboardingFails(t *testing.T) {
	f := newFixture(t, consts.OrderStatusBuilding)
	f.orders.onboarding.IsComplete = false
	p := f.processor(noTemplate{})

	require.Error(t, p.Handle(context.Background(), 42, false))
	require.True(t, f.sink.has(appConsts.StepGenerationFailed))
}

func TestFullGenerationPath(t *testing.T) {
	f := newFixture(t, consts.OrderStatusBuilding)
	p := f.processor(noTemplate{})

	require.NoError(t, p.Handle(context.Background(), 42, false))

	require.Equal(t, consts.OrderStatusReview, f.orders.order.Status)
	require.NotNil(t, f.orders.order.SiteURL)
	require.Equal(t, "https://site-order-42.pages.dev", *f.orders.order.SiteURL)
	require.NotNil(t, f.orders.order.RepositoryURL)

	workspace := filepath.Join(f.cfg.WorkspaceRoot, "site-42")
	require.FileExists(t, filepath.Join(workspace, "index.html"))
	require.FileExists(t, filepath.Join(workspace, "pages", "page0.html"))

	require.Equal(t, consts.DeploymentSucceeded, f.deployments.records[consts.ProviderGitHub].Status)
	require.True(t, f.sink.has(appConsts.StepGenerationComplete))

	briefing := f.deliverables.stored[consts.DeliverableStrategyBriefing]
	require.NotNil(t, briefing)
	require.Equal(t, consts.DeliverableStatusReady, briefing.Status)
}

func TestPathEscapeRejectedValidSiblingsWritten(t *testing.T) {
	f := newFixture(t, consts.OrderStatusBuilding)
	f.generator.responses[appConsts.TaskCoding] = fmt.Sprintf(
		`{"files": {"../evil.html": "pwned", "/etc/evil": "pwned", %s}}`,
		`"index.html": "<html></html>", "a.html": "a", "b.html": "b", "c.html": "c", "d.html": "d"`)
	p := f.processor(noTemplate{})

	require.NoError(t, p.Handle(context.Background(), 42, false))

	workspace := filepath.Join(f.cfg.WorkspaceRoot, "site-42")
	require.FileExists(t, filepath.Join(workspace, "index.html"))
	require.NoFileExists(t, filepath.Join(f.cfg.WorkspaceRoot, "evil.html"))

	var warned bool
	for _, e := range f.sink.entries {
		if e.step == appConsts.StepAIGeneration && e.status == consts.LogWarning {
			warned = true
		}
	}
	require.True(t, warned)
}

func TestTooFewFilesFails(t *testing.T) {
	f := newFixture(t, consts.OrderStatusBuilding)
	f.generator.responses[appConsts.TaskCoding] = `{"files": {"index.html": "<html></html>"}}`
	p := f.processor(noTemplate{})

	err := p.Handle(context.Background(), 42, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected at least 5")
	// The order is left in generating for the retry.
	require.Equal(t, consts.OrderStatusGenerating, f.orders.order.Status)
}

func TestGenerationErrorLeavesOrderGenerating(t *testing.T) {
	f := newFixture(t, consts.OrderStatusBuilding)
	f.generator.errs[appConsts.TaskCoding] = fmt.Errorf("model unavailable")
	p := f.processor(noTemplate{})

	require.Error(t, p.Handle(context.Background(), 42, false))
	require.Equal(t, consts.OrderStatusGenerating, f.orders.order.Status)
	require.True(t, f.sink.has(appConsts.StepGenerationFailed))
	// No deployment may run for a half-built workspace.
	require.Zero(t, f.deployers[consts.ProviderGitHub].calls)
}

func TestDeployFailureIsSkippedAndRecorded(t *testing.T) {
	f := newFixture(t, consts.OrderStatusBuilding)
	f.deployers[consts.ProviderGitHub].err = fmt.Errorf("api rate limited")
	p := f.processor(noTemplate{})

	require.NoError(t, p.Handle(context.Background(), 42, false))

	require.Equal(t, consts.OrderStatusReview, f.orders.order.Status)
	require.Equal(t, consts.DeploymentFailed, f.deployments.records[consts.ProviderGitHub].Status)
	require.Equal(t, consts.DeploymentSucceeded, f.deployments.records[consts.ProviderPages].Status)
	require.Nil(t, f.orders.order.RepositoryURL)
	require.Equal(t, "https://site-order-42.pages.dev", *f.orders.order.SiteURL)
}

func TestSiteURLFallbackChain(t *testing.T) {
	// Hosting down, the repository is still a real URL a human can open.
	f := newFixture(t, consts.OrderStatusBuilding)
	f.deployers[consts.ProviderPages].err = fmt.Errorf("cloudflare down")
	f.deployers[consts.ProviderDNS].err = fmt.Errorf("no hosting")
	p := f.processor(noTemplate{})

	require.NoError(t, p.Handle(context.Background(), 42, false))
	require.Equal(t, "https://github.com/acme/site-order-42", *f.orders.order.SiteURL)

	// Repository down too, storage is next.
	f = newFixture(t, consts.OrderStatusBuilding)
	f.deployers[consts.ProviderPages].err = fmt.Errorf("down")
	f.deployers[consts.ProviderGitHub].err = fmt.Errorf("down")
	f.deployers[consts.ProviderDNS].err = fmt.Errorf("no hosting")
	p = f.processor(noTemplate{})

	require.NoError(t, p.Handle(context.Background(), 42, false))
	require.Equal(t, "https://cdn.example.com/sites/42/index.html", *f.orders.order.SiteURL)

	// Nothing deployed, synthesize the internal preview.
	f = newFixture(t, consts.OrderStatusBuilding)
	f.deployers[consts.ProviderPages].err = fmt.Errorf("down")
	f.deployers[consts.ProviderGitHub].err = fmt.Errorf("down")
	f.deployers[consts.ProviderStorage].err = fmt.Errorf("down")
	f.deployers[consts.ProviderDNS].err = fmt.Errorf("no hosting")
	p = f.processor(noTemplate{})

	require.NoError(t, p.Handle(context.Background(), 42, false))
	require.Equal(t, "https://preview.innexar.com/site-42", *f.orders.order.SiteURL)
}

func TestSucceededDeploymentIsReused(t *testing.T) {
	f := newFixture(t, consts.OrderStatusGenerating)
	f.deployments.records = map[consts.DeployProvider]db.Deployment{
		consts.ProviderGitHub: {
			OrderID: 42, Provider: consts.ProviderGitHub, ExternalID: "acme/site-order-42",
			URL: "https://github.com/acme/site-order-42", Status: consts.DeploymentSucceeded,
		},
	}
	p := f.processor(noTemplate{})

	require.NoError(t, p.Handle(context.Background(), 42, false))
	require.Zero(t, f.deployers[consts.ProviderGitHub].calls)
	require.Equal(t, 1, f.deployers[consts.ProviderPages].calls)
	require.NotNil(t, f.orders.order.RepositoryURL)
}

func TestResumeKeepsHealthyWorkspace(t *testing.T) {
	f := newFixture(t, consts.OrderStatusGenerating)
	workspace := filepath.Join(f.cfg.WorkspaceRoot, "site-42")
	require.NoError(t, os.MkdirAll(workspace, 0o755))
	for i := 0; i < 6; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(workspace, fmt.Sprintf("f%d.html", i)), []byte("kept"), 0o644))
	}
	p := f.processor(noTemplate{})

	require.NoError(t, p.Handle(context.Background(), 42, true))

	// No regeneration happened, the workspace was taken as is.
	require.NotContains(t, f.generator.generations, appConsts.TaskCoding)
	raw, err := os.ReadFile(filepath.Join(workspace, "f0.html"))
	require.NoError(t, err)
	require.Equal(t, "kept", string(raw))
}

func TestResumeResetsBrokenWorkspace(t *testing.T) {
	f := newFixture(t, consts.OrderStatusGenerating)
	workspace := filepath.Join(f.cfg.WorkspaceRoot, "site-42")
	require.NoError(t, os.MkdirAll(workspace, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(workspace, "half.html"), []byte("partial"), 0o644))
	p := f.processor(noTemplate{})

	require.NoError(t, p.Handle(context.Background(), 42, true))

	require.True(t, f.sink.has(appConsts.StepWorkspaceCleared))
	require.Contains(t, f.generator.generations, appConsts.TaskCoding)
	require.NoFileExists(t, filepath.Join(workspace, "half.html"))
}

func TestTemplatePathEndToEnd(t *testing.T) {
	f := newFixture(t, consts.OrderStatusBuilding)

	templatesDir := t.TempDir()
	base := filepath.Join(templatesDir, "premium-static", "base")
	require.NoError(t, os.MkdirAll(base, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "index.html"),
		[]byte("<h1>{{BUSINESS_NAME}}</h1>"), 0o644))
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(base, fmt.Sprintf("page%d.html", i)),
			[]byte(fmt.Sprintf("<p>{{CITY}} %d</p>", i)), 0o644))
	}
	materializer := template.NewMaterializer(template.Config{
		TemplatesDir: templatesDir, DefaultTemplate: "premium-static",
	})
	p := f.processor(materializer)

	require.NoError(t, p.Handle(context.Background(), 42, false))

	require.Equal(t, consts.OrderStatusReview, f.orders.order.Status)
	require.NotContains(t, f.generator.generations, appConsts.TaskCoding)
	require.True(t, f.sink.has(appConsts.StepTemplateCustomized))

	raw, err := os.ReadFile(filepath.Join(f.cfg.WorkspaceRoot, "site-42", "index.html"))
	require.NoError(t, err)
	require.Contains(t, string(raw), "Bella Italia")
}

func TestStrategyFailureDoesNotBlockSite(t *testing.T) {
	f := newFixture(t, consts.OrderStatusBuilding)
	f.generator.errs[appConsts.TaskStrategy] = fmt.Errorf("model overloaded")
	p := f.processor(noTemplate{})

	require.NoError(t, p.Handle(context.Background(), 42, false))
	require.Equal(t, consts.OrderStatusReview, f.orders.order.Status)
	require.Nil(t, f.deliverables.stored[consts.DeliverableStrategyBriefing])

	var warned bool
	for _, e := range f.sink.entries {
		if e.step == appConsts.StepStrategyBriefing && e.status == consts.LogWarning {
			warned = true
		}
	}
	require.True(t, warned)
}
