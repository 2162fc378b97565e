package ai_test

import (
	"slices"
	"testing"

	"github.com/p-n-ai/aura-planner/internal/ai"
	"github.com/p-n-ai/aura-planner/internal/platform/config"
)

func TestNewRouterFromConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AIConfig
		want []string
	}{
		{"none", config.AIConfig{}, nil},
		{"google only", config.AIConfig{Google: config.GoogleConfig{APIKey: "g"}}, []string{"google"}},
		{
			"all in fallback order",
			config.AIConfig{
				DeepSeek: config.DeepSeekConfig{APIKey: "d"},
				OpenAI:   config.OpenAIConfig{APIKey: "o"},
				Google:   config.GoogleConfig{APIKey: "g"},
			},
			[]string{"google", "openai", "deepseek"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ai.NewRouterFromConfig(tt.cfg)
			if got := r.Providers(); !slices.Equal(got, tt.want) {
				t.Errorf("Providers() = %v, want %v", got, tt.want)
			}
			if r.HasProvider() != (len(tt.want) > 0) {
				t.Errorf("HasProvider() = %v", r.HasProvider())
			}
		})
	}
}
