package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadscore_backend/platform/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// OutcomeKind tells whether a classification came from the model or the fallback.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeFallback
)

// Classification is the intent, reasoning and AI score for one lead.
type Classification struct {
	Intent    Intent
	Reasoning string
	Score     int
}

// Outcome is the result of Classify. Cause is set only for fallbacks.
type Outcome struct {
	Classification
	Kind     OutcomeKind
	Attempts int
	Cause    error
}

// FallbackReasoning is the reasoning attached when classification failed.
const FallbackReasoning = "AI service unavailable, used fallback scoring"

// FallbackClassification is used whenever the remote call or its response is unusable.
var FallbackClassification = Classification{
	Intent:    IntentMedium,
	Reasoning: FallbackReasoning,
	Score:     25,
}

var intentScores = map[Intent]int{
	IntentHigh:   50,
	IntentMedium: 30,
	IntentLow:    10,
}

var (
	errMalformedResponse = errors.New("classifier: malformed response")
	errMissingIntent     = errors.New("classifier: missing intent")
	errMissingReasoning  = errors.New("classifier: missing reasoning")
)

// ClassifierConfig tunes the remote call policy.
type ClassifierConfig struct {
	Timeout      time.Duration // per attempt; 0 disables
	MaxAttempts  int           // total attempts for generator errors; <1 means 1
	RatePerSec   float64       // client-side throttle; 0 disables
	RetryBackoff time.Duration // base delay between attempts
}

// Classifier asks a TextGenerator for a lead's buying intent.
// Classify never fails: unusable responses produce the fallback classification.
type Classifier struct {
	gen     TextGenerator
	cfg     ClassifierConfig
	limiter *rate.Limiter
	log     *logger.Logger
	tracer  trace.Tracer
}

// NewClassifier creates a classifier around gen.
func NewClassifier(gen TextGenerator, cfg ClassifierConfig, log *logger.Logger) *Classifier {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 250 * time.Millisecond
	}
	if log == nil {
		log = logger.Nop()
	}
	c := &Classifier{
		gen:    gen,
		cfg:    cfg,
		log:    log,
		tracer: otel.Tracer(tracerName),
	}
	if cfg.RatePerSec > 0 {
		burst := int(cfg.RatePerSec)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}
	return c
}

// Classify returns the model's classification, or the fallback with its cause.
func (c *Classifier) Classify(ctx context.Context, lead Lead, offer Offer) Outcome {
	ctx, span := c.tracer.Start(ctx, "scoring.classify", trace.WithAttributes(
		attribute.String("lead.id", lead.ID.String()),
	))
	defer span.End()

	prompt := BuildPrompt(lead, offer)
	raw, attempts, err := c.generate(ctx, prompt)
	var cls Classification
	if err == nil {
		cls, err = ParseClassification(raw)
	}
	if err != nil {
		span.SetStatus(codes.Error, "fallback")
		span.SetAttributes(attribute.Bool("classify.fallback", true))
		c.log.WithContext(ctx).ClassifierFallback(lead.ID.String(), attempts, err)
		return Outcome{
			Classification: FallbackClassification,
			Kind:           OutcomeFallback,
			Attempts:       attempts,
			Cause:          err,
		}
	}

	span.SetAttributes(attribute.String("classify.intent", string(cls.Intent)))
	return Outcome{Classification: cls, Kind: OutcomeOK, Attempts: attempts}
}

// generate retries generator errors only. Parse failures are not retried.
func (c *Classifier) generate(ctx context.Context, prompt string) (string, int, error) {
	var lastErr error
	attempts := 0
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, c.cfg.RetryBackoff*time.Duration(1<<(attempt-1))); err != nil {
				return "", attempts, lastErr
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", attempts, fmt.Errorf("classifier: rate limit wait: %w", err)
			}
		}

		attempts++
		raw, err := c.callOnce(ctx, prompt)
		if err == nil {
			return raw, attempts, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", attempts, lastErr
}

func (c *Classifier) callOnce(ctx context.Context, prompt string) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	raw, err := c.gen.Generate(ctx, SystemInstruction, prompt)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("classifier: timed out after %s: %w", c.cfg.Timeout, err)
		}
		return "", err
	}
	return raw, nil
}

type classificationPayload struct {
	Intent    any `json:"intent"`
	Reasoning any `json:"reasoning"`
}

// ParseClassification strips code fences, decodes the JSON object and maps
// the intent to its score. Unknown intents count as Low.
func ParseClassification(raw string) (Classification, error) {
	cleaned := StripCodeFences(raw)

	var payload classificationPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return Classification{}, fmt.Errorf("%w: %v", errMalformedResponse, err)
	}

	intentText, ok := payload.Intent.(string)
	if !ok || strings.TrimSpace(intentText) == "" {
		return Classification{}, errMissingIntent
	}
	reasoning, ok := payload.Reasoning.(string)
	if !ok || strings.TrimSpace(reasoning) == "" {
		return Classification{}, errMissingReasoning
	}

	intent := Intent(strings.TrimSpace(intentText))
	score, known := intentScores[intent]
	if !known {
		intent = IntentLow
		score = intentScores[IntentLow]
	}

	return Classification{Intent: intent, Reasoning: reasoning, Score: score}, nil
}

// StripCodeFences removes ```json and ``` markers and surrounding whitespace.
func StripCodeFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// CompositeReasoning formats the stored reasoning for a result.
func CompositeReasoning(rule int, out Outcome) string {
	return fmt.Sprintf("Rule score: %d/50, AI score: %d/50. %s", rule, out.Score, out.Reasoning)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
