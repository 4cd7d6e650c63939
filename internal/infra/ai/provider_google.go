package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int64   `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func generateGoogle(ctx context.Context, cfg *db.AIConfig, prompt, system string, temperature float64) (string, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	gr := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	}
	if system != "" {
		gr.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	gr.GenerationConfig.Temperature = temperature
	if cfg.MaxTokens > 0 {
		gr.GenerationConfig.MaxOutputTokens = cfg.MaxTokens
	}

	body, err := json.Marshal(gr)
	if err != nil {
		return "", fmt.Errorf("err marshalling gemini request, %v", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimSuffix(baseURL, "/"), cfg.ModelName, cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := doProviderRequest(cfg.Provider, req)
	if err != nil {
		return "", err
	}

	var resp geminiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", errs.ProviderError{Provider: cfg.Provider, Payload: string(respBody), Err: err}
	}
	if len(resp.Candidates) == 0 {
		return "", errs.ProviderError{Provider: cfg.Provider, Payload: string(respBody), Err: fmt.Errorf("response has no candidates")}
	}
	var content strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		content.WriteString(part.Text)
	}
	return content.String(), nil
}
