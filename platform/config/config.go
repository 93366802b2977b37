// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetHTTPRateLimitPerSec() float64
	GetUploadMaxBytes() int64
}

// ClassifierConfig provides settings for the remote intent classifier.
type ClassifierConfig interface {
	GetAIProvider() string
	GetAIModel() string
	GetGeminiAPIKey() string
	GetAnthropicAPIKey() string
	GetMoonshotAPIKey() string
	GetClassifierTimeout() time.Duration
	GetClassifierMaxAttempts() int
	GetClassifierRatePerSec() float64
}

// ScoringConfig provides settings for scoring runs.
type ScoringConfig interface {
	GetScoringConcurrency() int
	GetAutoScoreAfterUpload() bool
	GetScoringLockTTL() time.Duration
}

// SchedulerConfig provides settings for the asynq scheduler and Redis.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketLeadUploads() string
	GetMinioBucketResultExports() string
	IsMinIOEnabled() bool
}

// ObservabilityConfig provides settings for OpenTelemetry tracing.
type ObservabilityConfig interface {
	IsOTelEnabled() bool
	GetOTelEndpoint() string
	GetOTelInsecure() bool
	GetOTelSampleRatio() float64
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	HTTPRateLimitPerSec      float64
	UploadMaxBytes           int64
	AIProvider               string
	AIModel                  string
	GeminiAPIKey             string
	AnthropicAPIKey          string
	MoonshotAPIKey           string
	ClassifierTimeout        time.Duration
	ClassifierMaxAttempts    int
	ClassifierRatePerSec     float64
	ScoringConcurrency       int
	AutoScoreAfterUpload     bool
	ScoringLockTTL           time.Duration
	RedisURL                 string
	RedisTLSInsecure         bool
	AsynqQueueName           string
	AsynqConcurrency         int
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinIOMaxFileSize         int64
	MinioBucketLeadUploads   string
	MinioBucketResultExports string
	OTelEnabled              bool
	OTelEndpoint             string
	OTelInsecure             bool
	OTelSampleRatio          float64
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string             { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool           { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string        { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool         { return c.CORSAllowCreds }
func (c *Config) GetHTTPRateLimitPerSec() float64 { return c.HTTPRateLimitPerSec }
func (c *Config) GetUploadMaxBytes() int64        { return c.UploadMaxBytes }

// ClassifierConfig implementation
func (c *Config) GetAIProvider() string               { return c.AIProvider }
func (c *Config) GetAIModel() string                  { return c.AIModel }
func (c *Config) GetGeminiAPIKey() string             { return c.GeminiAPIKey }
func (c *Config) GetAnthropicAPIKey() string          { return c.AnthropicAPIKey }
func (c *Config) GetMoonshotAPIKey() string           { return c.MoonshotAPIKey }
func (c *Config) GetClassifierTimeout() time.Duration { return c.ClassifierTimeout }
func (c *Config) GetClassifierMaxAttempts() int       { return c.ClassifierMaxAttempts }
func (c *Config) GetClassifierRatePerSec() float64    { return c.ClassifierRatePerSec }

// ScoringConfig implementation
func (c *Config) GetScoringConcurrency() int       { return c.ScoringConcurrency }
func (c *Config) GetAutoScoreAfterUpload() bool    { return c.AutoScoreAfterUpload }
func (c *Config) GetScoringLockTTL() time.Duration { return c.ScoringLockTTL }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string          { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string         { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string         { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool              { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64        { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketLeadUploads() string { return c.MinioBucketLeadUploads }
func (c *Config) GetMinioBucketResultExports() string {
	return c.MinioBucketResultExports
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// ObservabilityConfig implementation
func (c *Config) IsOTelEnabled() bool         { return c.OTelEnabled }
func (c *Config) GetOTelEndpoint() string     { return c.OTelEndpoint }
func (c *Config) GetOTelInsecure() bool       { return c.OTelInsecure }
func (c *Config) GetOTelSampleRatio() float64 { return c.OTelSampleRatio }

// Supported values for AI_PROVIDER.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderMoonshot  = "moonshot"
	ProviderNone      = "none"
)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the current process environment
// without reading a .env file.
func FromEnv() (*Config, error) {
	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8000"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           parseBool(getEnv("CORS_ALLOW_CREDENTIALS", "false")),
		HTTPRateLimitPerSec:      mustFloat(getEnv("HTTP_RATE_LIMIT_PER_SEC", "20")),
		UploadMaxBytes:           mustInt64(getEnv("UPLOAD_MAX_BYTES", "10485760")),
		AIProvider:               strings.ToLower(strings.TrimSpace(getEnv("AI_PROVIDER", ProviderGemini))),
		AIModel:                  strings.TrimSpace(getEnv("AI_MODEL", "")),
		GeminiAPIKey:             getEnv("GEMINI_API_KEY", ""),
		AnthropicAPIKey:          getEnv("ANTHROPIC_API_KEY", ""),
		MoonshotAPIKey:           getEnv("MOONSHOT_API_KEY", ""),
		ClassifierTimeout:        mustDuration(getEnv("CLASSIFIER_TIMEOUT", "30s")),
		ClassifierMaxAttempts:    mustInt(getEnv("CLASSIFIER_MAX_ATTEMPTS", "1")),
		ClassifierRatePerSec:     mustFloat(getEnv("CLASSIFIER_RATE_PER_SEC", "0")),
		ScoringConcurrency:       mustInt(getEnv("SCORING_CONCURRENCY", "1")),
		AutoScoreAfterUpload:     parseBool(getEnv("AUTO_SCORE_AFTER_UPLOAD", "false")),
		ScoringLockTTL:           mustDuration(getEnv("SCORING_LOCK_TTL", "15m")),
		RedisURL:                 getEnv("REDIS_URL", ""),
		RedisTLSInsecure:         parseBool(getEnv("REDIS_TLS_INSECURE", "false")),
		AsynqQueueName:           getEnv("ASYNQ_QUEUE", "scoring"),
		AsynqConcurrency:         mustInt(getEnv("ASYNQ_CONCURRENCY", "1")),
		MinIOEndpoint:            getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              parseBool(getEnv("MINIO_USE_SSL", "false")),
		MinIOMaxFileSize:         mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "10485760")),
		MinioBucketLeadUploads:   getEnv("MINIO_BUCKET_LEAD_UPLOADS", "lead-uploads"),
		MinioBucketResultExports: getEnv("MINIO_BUCKET_RESULT_EXPORTS", "result-exports"),
		OTelEnabled:              parseBool(getEnv("OTEL_ENABLED", "false")),
		OTelEndpoint:             strings.TrimSpace(getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")),
		OTelInsecure:             parseBool(getEnv("OTEL_EXPORTER_OTLP_INSECURE", "false")),
		OTelSampleRatio:          clampRatio(mustFloat(getEnv("OTEL_SAMPLER_RATIO", "0.1"))),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	switch cfg.AIProvider {
	case ProviderGemini, ProviderAnthropic, ProviderMoonshot, ProviderNone:
	default:
		return nil, fmt.Errorf("AI_PROVIDER must be one of gemini, anthropic, moonshot, none (got %q)", cfg.AIProvider)
	}
	if cfg.ClassifierTimeout <= 0 {
		return nil, fmt.Errorf("CLASSIFIER_TIMEOUT must be a positive duration")
	}
	if cfg.ClassifierMaxAttempts < 1 || cfg.ClassifierMaxAttempts > 5 {
		return nil, fmt.Errorf("CLASSIFIER_MAX_ATTEMPTS must be between 1 and 5")
	}
	if cfg.ScoringConcurrency < 1 {
		return nil, fmt.Errorf("SCORING_CONCURRENCY must be at least 1")
	}
	if cfg.ScoringLockTTL <= 0 {
		return nil, fmt.Errorf("SCORING_LOCK_TTL must be a positive duration")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func clampRatio(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
