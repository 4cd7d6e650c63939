package ai

import (
	"context"
	"fmt"

	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

// Supported provider identifiers, a closed set. Adding a provider means
// adding a case to dispatch, not registering at runtime.
const (
	providerOpenAI    = "openai"
	providerGrok      = "grok"
	providerAnthropic = "anthropic"
	providerGoogle    = "google"
	providerOllama    = "ollama"
)

const grokBaseURL = "https://api.x.ai/v1"

func dispatch(ctx context.Context, cfg *db.AIConfig, prompt, system string, temperature float64) (string, error) {
	switch cfg.Provider {
	case providerOpenAI:
		return generateOpenAI(ctx, cfg, cfg.BaseURL, prompt, system, temperature)
	case providerGrok:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = grokBaseURL
		}
		return generateOpenAI(ctx, cfg, baseURL, prompt, system, temperature)
	case providerAnthropic:
		return generateAnthropic(ctx, cfg, prompt, system, temperature)
	case providerGoogle:
		return generateGoogle(ctx, cfg, prompt, system, temperature)
	case providerOllama:
		return generateOllama(ctx, cfg, prompt, system, temperature)
	default:
		return "", errs.ConfigError{Err: fmt.Errorf("unknown ai provider %s", cfg.Provider)}
	}
}
