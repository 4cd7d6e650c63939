package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

const anthropicVersion = "2023-06-01"

var httpClient = &http.Client{Timeout: 5 * time.Minute}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int64              `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func generateAnthropic(ctx context.Context, cfg *db.AIConfig, prompt, system string, temperature float64) (string, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       cfg.ModelName,
		MaxTokens:   maxTokens,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		System:      system,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("err marshalling anthropic request, %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(baseURL, "/")+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	respBody, err := doProviderRequest(cfg.Provider, req)
	if err != nil {
		return "", err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", errs.ProviderError{Provider: cfg.Provider, Payload: string(respBody), Err: err}
	}
	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return content.String(), nil
}

// doProviderRequest executes an HTTP completion call and normalizes non-2xx
// responses into a ProviderError carrying the response payload.
func doProviderRequest(provider string, req *http.Request) ([]byte, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errs.ProviderError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.ProviderError{Provider: provider, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.ProviderError{
			Provider: provider,
			Payload:  string(body),
			Err:      fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
	return body, nil
}
