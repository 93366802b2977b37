package scheduler

import (
	"context"
	"time"

	"leadscore_backend/platform/logger"
)

const (
	defaultReapInterval = 5 * time.Minute
	defaultStaleAfter   = time.Hour
	staleRunReason      = "run abandoned: worker stopped before completion"
)

// StaleRunFailer marks runs that never finished as failed.
type StaleRunFailer interface {
	FailStaleRuns(ctx context.Context, startedBefore time.Time, reason string) (int64, error)
}

// LockChecker reports whether a scoring run currently holds the run lock.
type LockChecker interface {
	Held(ctx context.Context) (bool, error)
}

// StaleRunReaper periodically fails runs left in "running" by a crashed process.
// While the run lock is held a live run may be long, so nothing is reaped.
type StaleRunReaper struct {
	runs       StaleRunFailer
	lock       LockChecker
	log        *logger.Logger
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

// NewStaleRunReaper creates a reaper. A nil lock reaps on age alone.
func NewStaleRunReaper(runs StaleRunFailer, lock LockChecker, log *logger.Logger, interval, staleAfter time.Duration) *StaleRunReaper {
	if interval <= 0 {
		interval = defaultReapInterval
	}
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}

	return &StaleRunReaper{
		runs:       runs,
		lock:       lock,
		log:        log,
		interval:   interval,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Run reaps once, then on every tick until ctx is cancelled.
func (r *StaleRunReaper) Run(ctx context.Context) {
	if r == nil || r.runs == nil {
		return
	}

	r.reap(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

func (r *StaleRunReaper) reap(ctx context.Context) {
	if r.lock != nil {
		held, err := r.lock.Held(ctx)
		if err != nil {
			r.log.Warn("stale run reaper could not check run lock", "error", err)
			return
		}
		if held {
			return
		}
	}

	failed, err := r.runs.FailStaleRuns(ctx, r.now().Add(-r.staleAfter), staleRunReason)
	if err != nil {
		r.log.Warn("stale run reaper failed", "error", err)
		return
	}

	if failed > 0 {
		r.log.Info("stale run reaper failed abandoned runs", "failed", failed)
	}
}
