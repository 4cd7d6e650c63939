package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/viniciussvasques/crm-innexar/internal/application/errs"
	"github.com/viniciussvasques/crm-innexar/internal/infra/db"
)

// generateOpenAI serves both OpenAI and any OpenAI-protocol endpoint such
// as Grok, distinguished only by base url.
func generateOpenAI(ctx context.Context, cfg *db.AIConfig, baseURL, prompt, system string, temperature float64) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(cfg.ModelName),
		Messages:    messages,
		Temperature: param.Opt[float64]{Value: temperature},
	}
	if cfg.MaxTokens > 0 {
		params.MaxCompletionTokens = param.Opt[int64]{Value: cfg.MaxTokens}
	}

	chatCompletion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", errs.ProviderError{Provider: cfg.Provider, Err: err}
	}
	if len(chatCompletion.Choices) == 0 {
		return "", errs.ProviderError{Provider: cfg.Provider, Err: fmt.Errorf("completion has no choices")}
	}
	return chatCompletion.Choices[0].Message.Content, nil
}
