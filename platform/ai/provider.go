// Package ai selects and constructs the text generator used for intent classification.
package ai

import (
	"context"
	"errors"
	"fmt"

	"leadscore_backend/platform/ai/anthropic"
	"leadscore_backend/platform/ai/gemini"
	"leadscore_backend/platform/ai/llm"
	"leadscore_backend/platform/ai/moonshot"
	"leadscore_backend/platform/config"
)

// Generator produces a completion for a system instruction and user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// ErrNotConfigured is returned by the generator used when no provider is available.
var ErrNotConfigured = errors.New("ai: no classifier provider configured")

// Unconfigured fails every call so the classifier lands in its fallback branch.
type Unconfigured struct{}

// Generate always returns ErrNotConfigured.
func (Unconfigured) Generate(context.Context, string, string) (string, error) {
	return "", ErrNotConfigured
}

// NewGenerator builds the generator named by cfg.GetAIProvider().
// A provider without its API key yields Unconfigured and a non-nil warning error.
func NewGenerator(ctx context.Context, cfg config.ClassifierConfig) (Generator, error) {
	switch cfg.GetAIProvider() {
	case config.ProviderGemini:
		if cfg.GetGeminiAPIKey() == "" {
			return Unconfigured{}, fmt.Errorf("%w: GEMINI_API_KEY is empty", ErrNotConfigured)
		}
		return gemini.NewGenerator(ctx, gemini.Config{APIKey: cfg.GetGeminiAPIKey(), Model: cfg.GetAIModel()})
	case config.ProviderAnthropic:
		if cfg.GetAnthropicAPIKey() == "" {
			return Unconfigured{}, fmt.Errorf("%w: ANTHROPIC_API_KEY is empty", ErrNotConfigured)
		}
		return anthropic.NewGenerator(anthropic.Config{APIKey: cfg.GetAnthropicAPIKey(), Model: cfg.GetAIModel()})
	case config.ProviderMoonshot:
		if cfg.GetMoonshotAPIKey() == "" {
			return Unconfigured{}, fmt.Errorf("%w: MOONSHOT_API_KEY is empty", ErrNotConfigured)
		}
		kimi := moonshot.NewModel(moonshot.Config{
			APIKey:          cfg.GetMoonshotAPIKey(),
			Model:           cfg.GetAIModel(),
			DisableThinking: true,
		})
		return llm.NewModelGenerator(kimi), nil
	case config.ProviderNone:
		return Unconfigured{}, nil
	default:
		return Unconfigured{}, fmt.Errorf("%w: unknown provider %q", ErrNotConfigured, cfg.GetAIProvider())
	}
}
