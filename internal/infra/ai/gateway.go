package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/application/interfaces"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

// Gateway routes generation requests through the per-task routing table,
// trying the primary model configuration and falling back once.
type Gateway struct {
	store RoutingStore
}

var _ interfaces.TextGenerator = (*Gateway)(nil)

func NewGateway(store RoutingStore) *Gateway {
	return &Gateway{store: store}
}

func (g *Gateway) Generate(ctx context.Context, taskType, prompt, system string) (string, error) {
	routing, err := g.store.GetRouting(ctx, taskType)
	if err != nil {
		return "", fmt.Errorf("err resolving routing for task %s, %v", taskType, err)
	}
	if routing == nil {
		return "", errs.ConfigError{Err: fmt.Errorf("no routing for task %s", taskType)}
	}

	content, primaryErr := g.generateWith(ctx, routing.PrimaryConfigID, prompt, system, routing.Temperature)
	if primaryErr == nil {
		return content, nil
	}
	if routing.FallbackConfigID == nil {
		return "", primaryErr
	}

	slog.Warn("primary model failed, trying fallback", "taskType", taskType, "error", primaryErr)
	content, fallbackErr := g.generateWith(ctx, *routing.FallbackConfigID, prompt, system, routing.Temperature)
	if fallbackErr != nil {
		return "", fmt.Errorf("primary failed: %v, fallback failed: %v", primaryErr, fallbackErr)
	}
	return content, nil
}

func (g *Gateway) generateWith(ctx context.Context, configID int64, prompt, system string, temperature float64) (string, error) {
	cfg, err := g.store.GetConfig(ctx, configID)
	if err != nil {
		return "", fmt.Errorf("err loading ai config %d, %v", configID, err)
	}
	if cfg == nil {
		return "", errs.ConfigError{Err: fmt.Errorf("ai config %d not found", configID)}
	}

	content, err := dispatch(ctx, cfg, prompt, system, temperature)
	if err != nil {
		return "", err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errs.ProviderError{Provider: cfg.Provider, Err: fmt.Errorf("empty completion from model %s", cfg.ModelName)}
	}
	return content, nil
}

// Validate checks that a task type can generate at all before the pipeline
// commits to a run. Connectivity is not probed, only routing and credentials.
func (g *Gateway) Validate(ctx context.Context, taskType string) error {
	routing, err := g.store.GetRouting(ctx, taskType)
	if err != nil {
		return fmt.Errorf("err resolving routing for task %s, %v", taskType, err)
	}
	if routing == nil {
		return errs.ConfigError{Err: fmt.Errorf("no routing for task %s", taskType)}
	}

	cfg, err := g.store.GetConfig(ctx, routing.PrimaryConfigID)
	if err != nil {
		return fmt.Errorf("err loading ai config %d, %v", routing.PrimaryConfigID, err)
	}
	if cfg == nil {
		return errs.ConfigError{Err: fmt.Errorf("primary ai config %d for task %s not found", routing.PrimaryConfigID, taskType)}
	}
	return validateConfig(cfg, taskType)
}

func validateConfig(cfg *db.AIConfig, taskType string) error {
	switch cfg.Provider {
	case providerOllama:
		// Local runtime, an endpoint is enough.
		if cfg.BaseURL == "" {
			return errs.ConfigError{Err: fmt.Errorf("provider %s for task %s has no base url", cfg.Provider, taskType)}
		}
	case providerOpenAI, providerGrok, providerAnthropic, providerGoogle:
		if cfg.APIKey == "" {
			return errs.ConfigError{Err: fmt.Errorf("provider %s for task %s has no api key", cfg.Provider, taskType)}
		}
	default:
		return errs.ConfigError{Err: fmt.Errorf("unknown ai provider %s for task %s", cfg.Provider, taskType)}
	}
	if cfg.ModelName == "" {
		return errs.ConfigError{Err: fmt.Errorf("provider %s for task %s has no model", cfg.Provider, taskType)}
	}
	return nil
}
