package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	defaultQueue = "default"
	// scoringTaskTimeout bounds one run including every classifier call.
	scoringTaskTimeout = 30 * time.Minute
	// scoringUniqueTTL collapses duplicate triggers while a run is pending.
	scoringUniqueTTL = time.Minute
	scoringMaxRetry  = 3
	msgRunQueued     = "A scoring run is already queued"
)

// ErrNotConfigured is returned when REDIS_URL is empty.
var ErrNotConfigured = errors.New("redis url not configured")

type Client struct {
	client *asynq.Client
	queue  string
	now    func() time.Time
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, ErrNotConfigured
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
		now:    time.Now,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueScoringRun queues a scoring run and returns the task id.
func (c *Client) EnqueueScoringRun(ctx context.Context, reason string) (string, error) {
	if c == nil || c.client == nil {
		return "", ErrNotConfigured
	}

	task, err := NewScoringRunTask(ScoringRunPayload{RequestedAt: c.now().UTC(), Reason: reason})
	if err != nil {
		return "", err
	}

	info, err := c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(scoringMaxRetry),
		asynq.Timeout(scoringTaskTimeout),
		asynq.Unique(scoringUniqueTTL),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return "", apperr.Conflict(msgRunQueued)
	}
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TaskScoringRun, err)
	}
	return info.ID, nil
}

// NewRedisClient opens a go-redis client with the scheduler's connection settings.
func NewRedisClient(cfg config.SchedulerConfig) (*redis.Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, ErrNotConfigured
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opt.TLSConfig = tlsConfig(opt.TLSConfig, cfg.GetRedisTLSInsecure())
	return redis.NewClient(opt), nil
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return defaultQueue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig(opt.TLSConfig, tlsInsecure),
	}, nil
}

func tlsConfig(base *tls.Config, insecure bool) *tls.Config {
	if base != nil {
		clone := base.Clone()
		if insecure {
			clone.InsecureSkipVerify = true
		}
		return clone
	}
	if insecure {
		return &tls.Config{InsecureSkipVerify: true}
	}
	return nil
}
