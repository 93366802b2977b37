// Package llm turns any ADK model.LLM into a plain text generator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// ModelGenerator sends one system instruction plus one user prompt to a model
// and returns the assembled response text.
type ModelGenerator struct {
	model       model.LLM
	stream      bool
	temperature *float32
}

// Option configures a ModelGenerator.
type Option func(*ModelGenerator)

// WithStreaming requests streamed responses from models that support it.
func WithStreaming() Option {
	return func(g *ModelGenerator) { g.stream = true }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(g *ModelGenerator) { g.temperature = &t }
}

// NewModelGenerator wraps m.
func NewModelGenerator(m model.LLM, opts ...Option) *ModelGenerator {
	g := &ModelGenerator{model: m}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the underlying model name.
func (g *ModelGenerator) Name() string {
	return g.model.Name()
}

// Generate runs the request. Partial chunks are concatenated; a final
// non-partial response carries the full text and replaces what was buffered.
func (g *ModelGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      g.temperature,
	}
	if strings.TrimSpace(system) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	req := &model.LLMRequest{
		Model:    g.model.Name(),
		Contents: []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		Config:   cfg,
	}

	var partial strings.Builder
	final := ""
	gotFinal := false
	for resp, err := range g.model.GenerateContent(ctx, req, g.stream) {
		if err != nil {
			return "", fmt.Errorf("llm %s: generate: %w", g.model.Name(), err)
		}
		if resp == nil {
			continue
		}
		if resp.ErrorCode != "" {
			return "", fmt.Errorf("llm %s: %s: %s", g.model.Name(), resp.ErrorCode, resp.ErrorMessage)
		}
		text := contentText(resp.Content)
		if resp.Partial {
			partial.WriteString(text)
			continue
		}
		final = text
		gotFinal = true
	}

	out := partial.String()
	if gotFinal && strings.TrimSpace(final) != "" {
		out = final
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func contentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
