// Package gemini provides a streaming text generator backed by the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// Config configures the Gemini generator.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional, tests point this at an httptest server
}

// Generator streams a single-turn completion and returns the concatenated text.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator creates a Gemini API client.
func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Generator{client: client, model: cfg.Model}, nil
}

// Name returns the configured model.
func (g *Generator) Name() string {
	return g.model
}

// Generate streams the response and joins every chunk's text.
func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ThinkingConfig:   &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](-1)},
	}
	if strings.TrimSpace(system) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var out strings.Builder
	for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, cfg) {
		if err != nil {
			return "", fmt.Errorf("gemini: stream: %w", err)
		}
		if resp == nil {
			continue
		}
		out.WriteString(resp.Text())
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", errors.New("gemini: empty response")
	}
	return out.String(), nil
}
