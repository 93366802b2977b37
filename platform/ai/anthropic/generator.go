// Package anthropic provides a text generator backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "claude-haiku-4-5-20251001"

const defaultMaxTokens = 1024

// Config configures the Anthropic generator.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int64
	MaxRetries int // SDK-level retries; the classifier applies its own retry policy
}

// Generator sends one user message with a system prompt.
type Generator struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewGenerator creates the SDK client.
func NewGenerator(cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Generator{
		client:    sdk.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name returns the configured model.
func (g *Generator) Name() string {
	return g.model
}

// Generate returns the concatenated text blocks of the reply.
func (g *Generator) Generate(ctx context.Context, system, prompt string) (string, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(prompt))},
	}
	if strings.TrimSpace(system) != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: create message: %w", err)
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", errors.New("anthropic: empty response")
	}
	return out.String(), nil
}
