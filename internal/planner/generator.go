package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/aura-planner/internal/ai"
	"github.com/p-n-ai/aura-planner/internal/plan"
)

// Result is a generated plan plus what it cost.
type Result struct {
	Plan         plan.Plan
	Model        string
	InputTokens  int
	OutputTokens int
}

// TotalTokens returns the sum of input and output tokens.
func (r Result) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Generator is the boundary to the external plan generator.
type Generator interface {
	// Generate returns a validated plan for req. The returned streak is
	// taken from existing when given, otherwise 0. Errors wrap
	// plan.ErrGenerationFailed, plan.ErrEmptyResponse or plan.ErrMalformedPlan.
	// The same provider is never called twice for one request, but a
	// fallback chain may try several providers before a GenerationFailed
	// comes back.
	Generate(ctx context.Context, req Request, existing *plan.Plan) (Result, error)
}

// AIGeneratorConfig holds dependencies for the AI-backed generator.
type AIGeneratorConfig struct {
	Completer   ai.Completer
	Model       string  // optional model override
	MaxTokens   int     // default 8192
	Temperature float64 // 0 means provider default
}

// AIGenerator asks an LLM for a plan in structured-output mode. When the
// completer is an *ai.Router, each provider in its fallback order is tried
// once on transport errors; a reply that fails validation is not sent to the
// next provider.
type AIGenerator struct {
	completer   ai.Completer
	model       string
	maxTokens   int
	temperature float64
}

const defaultMaxTokens = 8192

// NewAIGenerator creates a generator backed by an AI completer.
func NewAIGenerator(cfg AIGeneratorConfig) *AIGenerator {
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	return &AIGenerator{
		completer:   cfg.Completer,
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}
}

// Generate implements Generator.
func (g *AIGenerator) Generate(ctx context.Context, req Request, existing *plan.Plan) (Result, error) {
	task := ai.TaskPlanGeneration
	if req.IsReschedule() {
		task = ai.TaskReschedule
	}

	resp, err := g.completer.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: req.Prompt()},
		},
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Task:        task,
		ResponseFormat: &ai.ResponseFormat{
			Name:   "study_plan",
			Schema: json.RawMessage(ResponseSchema),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", plan.ErrGenerationFailed, err)
	}

	p, err := ParseResponse(resp.Content)
	if err != nil {
		slog.Warn("generator returned an unusable plan",
			"mode", req.Mode,
			"model", resp.Model,
			"content_len", len(resp.Content),
			"error", err,
		)
		return Result{}, err
	}
	p.Streak = carriedStreak(existing)

	return Result{
		Plan:         p,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}

func carriedStreak(existing *plan.Plan) int {
	if existing == nil {
		return 0
	}
	return existing.Streak
}
