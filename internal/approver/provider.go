package approver

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/ccapprove/ccapprove/internal/settings"
)

const (
	decisionTemperature = 0.0
	decisionMaxTokens   = 1024
)

// NewChatModel creates the ChatModel behind the decision function based
// on which provider credential is configured. Every provider speaks an
// OpenAI-compatible API, so one client covers all of them.
func NewChatModel(ctx context.Context, providers settings.ProvidersConfig, modelName string) (model.ChatModel, error) {
	switch {
	case providers.OpenRouter.APIKey != "":
		return newOpenRouterModel(ctx, providers.OpenRouter, modelName)
	case providers.Claude.APIKey != "":
		return newClaudeModel(ctx, providers.Claude, modelName)
	case providers.OpenAI.APIKey != "":
		return newOpenAIModel(ctx, providers.OpenAI, modelName)
	case providers.DeepSeek.APIKey != "":
		return newDeepSeekModel(ctx, providers.DeepSeek, modelName)
	case providers.Ollama.BaseURL != "":
		return newOllamaModel(ctx, providers.Ollama, modelName)
	default:
		return nil, fmt.Errorf("no provider configured: set api_key for at least one provider")
	}
}

func newOpenRouterModel(ctx context.Context, p settings.ProviderConfig, modelName string) (model.ChatModel, error) {
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		Model:       trimProviderPrefix(modelName, "openrouter"),
		APIKey:      p.APIKey,
		BaseURL:     "https://openrouter.ai/api/v1",
		Temperature: toFloat32Ptr(decisionTemperature),
		MaxTokens:   toIntPtr(decisionMaxTokens),
	})
}

func newClaudeModel(ctx context.Context, p settings.ProviderConfig, modelName string) (model.ChatModel, error) {
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		Model:       trimProviderPrefix(modelName, "anthropic"),
		APIKey:      p.APIKey,
		BaseURL:     "https://api.anthropic.com/v1",
		Temperature: toFloat32Ptr(decisionTemperature),
		MaxTokens:   toIntPtr(decisionMaxTokens),
	})
}

func newOpenAIModel(ctx context.Context, p settings.ProviderConfig, modelName string) (model.ChatModel, error) {
	cfg := &openai.ChatModelConfig{
		Model:       trimProviderPrefix(modelName, "openai"),
		APIKey:      p.APIKey,
		Temperature: toFloat32Ptr(decisionTemperature),
		MaxTokens:   toIntPtr(decisionMaxTokens),
	}
	if p.BaseURL != "" {
		cfg.BaseURL = p.BaseURL
	}
	return openai.NewChatModel(ctx, cfg)
}

func newDeepSeekModel(ctx context.Context, p settings.ProviderConfig, modelName string) (model.ChatModel, error) {
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		Model:       trimProviderPrefix(modelName, "deepseek"),
		APIKey:      p.APIKey,
		BaseURL:     "https://api.deepseek.com/v1",
		Temperature: toFloat32Ptr(decisionTemperature),
		MaxTokens:   toIntPtr(decisionMaxTokens),
	})
}

func newOllamaModel(ctx context.Context, p settings.ProviderConfig, modelName string) (model.ChatModel, error) {
	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return openai.NewChatModel(ctx, &openai.ChatModelConfig{
		Model:       trimProviderPrefix(modelName, "ollama"),
		BaseURL:     baseURL + "/v1",
		Temperature: toFloat32Ptr(decisionTemperature),
		MaxTokens:   toIntPtr(decisionMaxTokens),
	})
}

// trimProviderPrefix strips a routing prefix like "openrouter/" from the
// configured model id when it names the provider already selected.
func trimProviderPrefix(modelName, provider string) string {
	trimmed := strings.TrimPrefix(modelName, provider+"/")
	if trimmed == "" {
		return modelName
	}
	return trimmed
}

func toFloat32Ptr(f float64) *float32 {
	v := float32(f)
	return &v
}

func toIntPtr(i int) *int {
	return &i
}
