package processors

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	appConsts "github.com/viniciussvasques/crm-innexar/internal/application/consts"
	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/domain/consts"
	"github.com/viniciussvasques/crm-innexar/internal/infra/ai"
	"github.com/viniciussvasques/crm-innexar/internal/infra/config"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
	"github.com/viniciussvasques/crm-innexar/internal/infra/mail"
)

// deployOrder fixes the fan-out sequence, hosting consumes the repository
// result and dns consumes the hosting result.
var deployOrder = []consts.DeployProvider{
	consts.ProviderGitHub,
	consts.ProviderStorage,
	consts.ProviderPages,
	consts.ProviderDNS,
}

// GenerateSite runs the whole pipeline for one order: strategy briefing,
// site materialization, deployment fan-out and finalization. A fresh
// instance is built per task execution.
type GenerateSite struct {
	cfg          config.GeneratorConfig
	orders       interfaces.OrderRepo
	deliverables interfaces.DeliverableRepo
	deployments  interfaces.DeploymentRepo
	logs         interfaces.ProgressSink
	generator    interfaces.TextGenerator
	materializer interfaces.Materializer
	deployers    map[consts.DeployProvider]interfaces.Deployer
	notifier     interfaces.Notifier
}

func NewGenerateSite(
	cfg config.GeneratorConfig,
	orders interfaces.OrderRepo,
	deliverables interfaces.DeliverableRepo,
	deployments interfaces.DeploymentRepo,
	logs interfaces.ProgressSink,
	generator interfaces.TextGenerator,
	materializer interfaces.Materializer,
	deployers []interfaces.Deployer,
	notifier interfaces.Notifier,
) *GenerateSite {
	byName := make(map[consts.DeployProvider]interfaces.Deployer, len(deployers))
	for _, d := range deployers {
		byName[d.Name()] = d
	}
	return &GenerateSite{
		cfg:          cfg,
		orders:       orders,
		deliverables: deliverables,
		deployments:  deployments,
		logs:         logs,
		generator:    generator,
		materializer: materializer,
		deployers:    byName,
		notifier:     notifier,
	}
}

// Handle executes one generation attempt. A returned error means the task
// should be retried, the order stays in generating.
func (p *GenerateSite) Handle(ctx context.Context, orderID int64, resume bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation panicked: %v", r)
			p.logs.Append(ctx, orderID, appConsts.StepGenerationFailed, fmt.Sprintf("%v", r), consts.LogError, map[string]string{
				"type":  "panic",
				"stack": string(debug.Stack()),
			})
		} else if err != nil {
			p.logs.Append(ctx, orderID, appConsts.StepGenerationFailed, err.Error(), consts.LogError, map[string]string{
				"type": fmt.Sprintf("%T", err),
			})
		}
	}()

	order, err := p.orders.GetOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("err loading order %d, %v", orderID, err)
	}
	if order == nil {
		// Nothing to retry against, drop the task.
		slog.Warn("generation task for unknown order", "orderID", orderID)
		return nil
	}
	if order.Status.Terminal() {
		p.logs.Append(ctx, orderID, appConsts.StepResumeCheck,
			fmt.Sprintf("order is already %s, nothing to do", order.Status), consts.LogInfo, nil)
		return nil
	}

	onboarding, err := p.orders.GetOnboarding(ctx, orderID)
	if err != nil {
		return fmt.Errorf("err loading onboarding for order %d, %v", orderID, err)
	}
	if onboarding == nil || !onboarding.IsComplete {
		return errs.ConfigError{Err: fmt.Errorf("order %d has no completed onboarding", orderID)}
	}

	if order.Status != consts.OrderStatusGenerating {
		order.Status = consts.OrderStatusGenerating
		if err := p.orders.SaveOrder(ctx, order); err != nil {
			return err
		}
	}
	runID := uuid.NewString()
	slog.Info("generation run started", "orderID", orderID, "runID", runID, "resume", resume)
	p.logs.Append(ctx, orderID, appConsts.StepGenerationStarted,
		fmt.Sprintf("generation started for %s", onboarding.BusinessName), consts.LogInfo,
		map[string]any{"resume": resume, "run_id": runID})

	workspace := p.workspaceDir(orderID)
	resumed := p.checkWorkspace(ctx, orderID, workspace, resume)

	p.generateStrategy(ctx, order, onboarding)

	if err := p.materialize(ctx, order, onboarding, workspace, resumed); err != nil {
		return err
	}

	files := countFiles(workspace)
	if files < p.cfg.MinWorkspaceFiles {
		return errs.RetryableError{Err: fmt.Errorf("workspace has %d files, expected at least %d", files, p.cfg.MinWorkspaceFiles)}
	}
	p.logs.Append(ctx, orderID, appConsts.StepFilesWritten,
		fmt.Sprintf("%d files in workspace", files), consts.LogSuccess, nil)

	records := p.deploy(ctx, order, onboarding, workspace)

	return p.finalize(ctx, order, records)
}

func (p *GenerateSite) workspaceDir(orderID int64) string {
	return filepath.Join(p.cfg.WorkspaceRoot, fmt.Sprintf("site-%d", orderID))
}

// checkWorkspace decides whether an existing workspace is worth keeping.
// Too few files means an earlier run died mid-write, so start over.
func (p *GenerateSite) checkWorkspace(ctx context.Context, orderID int64, workspace string, resume bool) bool {
	files := countFiles(workspace)
	if resume && files >= p.cfg.MinWorkspaceFiles {
		p.logs.Append(ctx, orderID, appConsts.StepResumeCheck,
			fmt.Sprintf("resuming with existing workspace of %d files", files), consts.LogInfo, nil)
		return true
	}
	if files > 0 {
		if err := os.RemoveAll(workspace); err != nil {
			slog.Warn("err clearing workspace", "orderID", orderID, "error", err)
		}
		p.logs.Append(ctx, orderID, appConsts.StepWorkspaceCleared,
			fmt.Sprintf("cleared workspace of %d files", files), consts.LogInfo, nil)
	}
	return false
}

// generateStrategy produces the strategy briefing deliverable. Best effort,
// a missing briefing never blocks the site itself.
func (p *GenerateSite) generateStrategy(ctx context.Context, order *db.Order, onboarding *db.Onboarding) {
	existing, err := p.deliverables.FindDeliverable(ctx, order.ID, consts.DeliverableStrategyBriefing)
	if err != nil {
		slog.Warn("err checking strategy deliverable", "orderID", order.ID, "error", err)
		return
	}
	if existing != nil && existing.Status == consts.DeliverableStatusReady {
		return
	}

	content, err := p.generator.Generate(ctx, appConsts.TaskStrategy,
		strategyPrompt(onboarding), strategySystemPrompt)
	if err != nil {
		p.logs.Append(ctx, order.ID, appConsts.StepStrategyBriefing,
			"strategy briefing failed, continuing without it", consts.LogWarning,
			map[string]string{"error": err.Error()})
		return
	}

	deliverable := existing
	if deliverable == nil {
		deliverable = &db.Deliverable{
			OrderID: order.ID,
			Type:    consts.DeliverableStrategyBriefing,
			Title:   fmt.Sprintf("Estratégia digital - %s", onboarding.BusinessName),
		}
	}
	deliverable.Content = content
	deliverable.Status = consts.DeliverableStatusReady
	if err := p.deliverables.SaveDeliverable(ctx, deliverable); err != nil {
		slog.Warn("err saving strategy deliverable", "orderID", order.ID, "error", err)
		return
	}
	p.logs.Append(ctx, order.ID, appConsts.StepStrategyBriefing, "strategy briefing ready", consts.LogSuccess, nil)
}

// materialize builds the workspace, from a template when one fits the niche
// and fully through the model otherwise.
func (p *GenerateSite) materialize(ctx context.Context, order *db.Order, onboarding *db.Onboarding, workspace string, resumed bool) error {
	if resumed {
		return nil
	}

	templateID := p.materializer.Select(onboarding)
	if p.materializer.Exists(templateID) {
		return p.materializeFromTemplate(ctx, order, onboarding, workspace, templateID)
	}
	return p.generateFull(ctx, order, onboarding, workspace)
}

func (p *GenerateSite) materializeFromTemplate(ctx context.Context, order *db.Order, onboarding *db.Onboarding, workspace, templateID string) error {
	p.logs.Append(ctx, order.ID, appConsts.StepTemplateSelected, templateID, consts.LogInfo, nil)

	if err := p.materializer.Materialize(templateID, workspace); err != nil {
		return err
	}
	p.logs.Append(ctx, order.ID, appConsts.StepTemplateCopied,
		fmt.Sprintf("template %s copied", templateID), consts.LogSuccess, nil)

	if err := p.materializer.Substitute(workspace, onboarding, order); err != nil {
		return err
	}
	p.logs.Append(ctx, order.ID, appConsts.StepTemplateCustomized, "placeholders rewritten", consts.LogSuccess, nil)

	p.enrichCopy(ctx, order, onboarding, workspace)
	return nil
}

// enrichCopy asks the copywriting model for sharper texts and applies them
// as a second substitution pass. Best effort.
func (p *GenerateSite) enrichCopy(ctx context.Context, order *db.Order, onboarding *db.Onboarding, workspace string) {
	if err := p.generator.Validate(ctx, appConsts.TaskCopy); err != nil {
		slog.Info("copywriting not configured, keeping template texts", "orderID", order.ID)
		return
	}

	content, err := p.generator.Generate(ctx, appConsts.TaskCopy, copyPrompt(onboarding), copySystemPrompt)
	if err != nil {
		p.logs.Append(ctx, order.ID, appConsts.StepAIEnrichment,
			"copy enrichment failed, keeping template texts", consts.LogWarning,
			map[string]string{"error": err.Error()})
		return
	}

	var texts map[string]string
	if err := ai.DecodeObject(content, &texts); err != nil {
		p.logs.Append(ctx, order.ID, appConsts.StepAIEnrichment,
			"copy enrichment unusable, keeping template texts", consts.LogWarning,
			map[string]string{"error": err.Error()})
		return
	}
	if err := substituteTexts(workspace, texts); err != nil {
		slog.Warn("err applying enriched copy", "orderID", order.ID, "error", err)
		return
	}
	p.logs.Append(ctx, order.ID, appConsts.StepAIEnrichment,
		fmt.Sprintf("%d texts enriched", len(texts)), consts.LogSuccess, nil)
}

// siteManifest is the shape the coding model must answer with.
type siteManifest struct {
	Files map[string]string `json:"files"`
}

// generateFull asks the coding model for the entire site as a file manifest.
func (p *GenerateSite) generateFull(ctx context.Context, order *db.Order, onboarding *db.Onboarding, workspace string) error {
	if err := p.generator.Validate(ctx, appConsts.TaskCoding); err != nil {
		return err
	}
	p.logs.Append(ctx, order.ID, appConsts.StepAIGeneration, "generating full site", consts.LogInfo, nil)

	content, err := p.generator.Generate(ctx, appConsts.TaskCoding, sitePrompt(onboarding), siteSystemPrompt)
	if err != nil {
		return err
	}

	var manifest siteManifest
	if err := ai.DecodeObject(content, &manifest); err != nil {
		return err
	}
	if len(manifest.Files) == 0 {
		return errs.MalformedResponseError{Err: fmt.Errorf("manifest has no files")}
	}

	written := 0
	for name, fileContent := range manifest.Files {
		// A model-chosen path must stay inside the workspace.
		if !filepath.IsLocal(name) {
			p.logs.Append(ctx, order.ID, appConsts.StepAIGeneration,
				fmt.Sprintf("rejected unsafe path %q", name), consts.LogWarning, nil)
			continue
		}
		target := filepath.Join(workspace, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("err creating dir for %s, %v", name, err)
		}
		if err := os.WriteFile(target, []byte(fileContent), 0o644); err != nil {
			return fmt.Errorf("err writing %s, %v", name, err)
		}
		written++
	}
	if written == 0 {
		return errs.MalformedResponseError{Err: fmt.Errorf("manifest had only unsafe paths")}
	}
	p.logs.Append(ctx, order.ID, appConsts.StepAIGeneration,
		fmt.Sprintf("%d files generated", written), consts.LogSuccess, nil)
	return nil
}

// deploy fans out over the provider integrations. A failed provider is
// recorded and skipped, the remaining providers still run.
func (p *GenerateSite) deploy(ctx context.Context, order *db.Order, onboarding *db.Onboarding, workspace string) map[consts.DeployProvider]db.Deployment {
	prior := map[consts.DeployProvider]db.Deployment{}
	if existing, err := p.deployments.GetDeployments(ctx, order.ID); err != nil {
		slog.Warn("err loading prior deployments", "orderID", order.ID, "error", err)
	} else {
		for _, d := range existing {
			prior[d.Provider] = d
		}
	}

	for _, provider := range deployOrder {
		deployer, ok := p.deployers[provider]
		if !ok {
			continue
		}
		if record, ok := prior[provider]; ok && record.Status == consts.DeploymentSucceeded {
			p.logs.Append(ctx, order.ID, appConsts.StepDeploy,
				fmt.Sprintf("%s already deployed, reusing", provider), consts.LogInfo,
				map[string]string{"url": record.URL})
			continue
		}

		result, err := deployer.Deploy(ctx, interfaces.DeployRequest{
			Order:        order,
			Onboarding:   onboarding,
			WorkspaceDir: workspace,
			Prior:        prior,
		})
		record := db.Deployment{OrderID: order.ID, Provider: provider}
		if err != nil {
			record.Status = consts.DeploymentFailed
			record.Detail = err.Error()
			p.logs.Append(ctx, order.ID, appConsts.StepDeploy,
				fmt.Sprintf("%s deployment failed, skipping", provider), consts.LogError,
				map[string]string{"error": err.Error()})
		} else {
			record.Status = consts.DeploymentSucceeded
			record.ExternalID = result.ExternalID
			record.URL = result.URL
			record.Detail = result.Detail
			p.logs.Append(ctx, order.ID, appConsts.StepDeploy,
				fmt.Sprintf("%s deployed", provider), consts.LogSuccess,
				map[string]string{"url": result.URL})
		}
		if err := p.deployments.UpsertDeployment(ctx, &record); err != nil {
			slog.Error("err saving deployment record", "orderID", order.ID, "provider", provider, "error", err)
		}
		prior[provider] = record
	}
	return prior
}

// finalize moves the order to review and picks the url a human will open,
// hosting first, then the repository, then storage, then the internal
// preview.
func (p *GenerateSite) finalize(ctx context.Context, order *db.Order, records map[consts.DeployProvider]db.Deployment) error {
	siteURL := fmt.Sprintf("https://%s/site-%d", p.cfg.PreviewDomain, order.ID)
	if hosting, ok := records[consts.ProviderPages]; ok && hosting.Status == consts.DeploymentSucceeded && hosting.URL != "" {
		siteURL = hosting.URL
	} else if repo, ok := records[consts.ProviderGitHub]; ok && repo.Status == consts.DeploymentSucceeded && repo.URL != "" {
		siteURL = repo.URL
	} else if storage, ok := records[consts.ProviderStorage]; ok && storage.Status == consts.DeploymentSucceeded && storage.URL != "" {
		siteURL = storage.URL
	}
	if repo, ok := records[consts.ProviderGitHub]; ok && repo.Status == consts.DeploymentSucceeded && repo.URL != "" {
		order.RepositoryURL = &repo.URL
	}

	now := time.Now()
	order.SiteURL = &siteURL
	order.Status = consts.OrderStatusReview
	order.ActualDeliveryDate = &now
	if err := p.orders.SaveOrder(ctx, order); err != nil {
		return fmt.Errorf("err finalizing order %d, %v", order.ID, err)
	}

	p.logs.Append(ctx, order.ID, appConsts.StepGenerationComplete,
		"site ready for review", consts.LogSuccess, map[string]string{"siteURL": siteURL})
	if p.notifier != nil {
		p.notifier.Send(mail.TemplateSiteReady, order.CustomerEmail, map[string]string{
			"CustomerName": order.CustomerName,
			"OrderID":      fmt.Sprintf("%d", order.ID),
			"SiteURL":      siteURL,
		})
	}
	return nil
}

func countFiles(dir string) int {
	var count int
	_ = filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fs.SkipAll
			}
			return nil
		}
		if !entry.IsDir() {
			count++
		}
		return nil
	})
	return count
}

// substituteTexts rewrites {{TOKEN}} placeholders left for the copywriting
// pass.
func substituteTexts(workspace string, texts map[string]string) error {
	if len(texts) == 0 {
		return nil
	}
	return filepath.WalkDir(workspace, func(path string, entry os.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		content := string(raw)
		changed := false
		for token, text := range texts {
			placeholder := "{{" + token + "}}"
			if strings.Contains(content, placeholder) {
				content = strings.ReplaceAll(content, placeholder, text)
				changed = true
			}
		}
		if !changed {
			return nil
		}
		return os.WriteFile(path, []byte(content), 0o644)
	})
}
