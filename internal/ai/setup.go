package ai

import (
	"log/slog"

	"github.com/p-n-ai/aura-planner/internal/platform/config"
)

// NewRouterFromConfig registers every provider that has credentials, in
// fallback order Google, OpenAI, DeepSeek.
func NewRouterFromConfig(cfg config.AIConfig) *Router {
	r := NewRouter()
	if cfg.Google.APIKey != "" {
		r.Register("google", NewGoogleProvider(cfg.Google.APIKey, WithGoogleModel(cfg.Google.Model)))
	}
	if cfg.OpenAI.APIKey != "" {
		r.Register("openai", NewOpenAIProvider(cfg.OpenAI.APIKey, WithDefaultModel(cfg.OpenAI.Model)))
	}
	if cfg.DeepSeek.APIKey != "" {
		r.Register("deepseek", NewDeepSeekProvider(cfg.DeepSeek.APIKey))
	}
	slog.Info("AI providers registered", "providers", r.Providers())
	return r
}
