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

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int64   `json:"num_predict,omitempty"`
	} `json:"options"`
}

type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
}

func generateOllama(ctx context.Context, cfg *db.AIConfig, prompt, system string, temperature float64) (string, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	messages := make([]ollamaMessage, 0, 2)
	if system != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: system})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: prompt})

	or := ollamaRequest{Model: cfg.ModelName, Messages: messages, Stream: false}
	or.Options.Temperature = temperature
	if cfg.MaxTokens > 0 {
		or.Options.NumPredict = cfg.MaxTokens
	}

	body, err := json.Marshal(or)
	if err != nil {
		return "", fmt.Errorf("err marshalling ollama request, %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(baseURL, "/")+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := doProviderRequest(cfg.Provider, req)
	if err != nil {
		return "", err
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", errs.ProviderError{Provider: cfg.Provider, Payload: string(respBody), Err: err}
	}
	return resp.Message.Content, nil
}
