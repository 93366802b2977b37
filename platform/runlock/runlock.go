// Package runlock provides a single-holder lock for scoring runs.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned when another holder owns the lock.
var ErrHeld = errors.New("runlock: lock is held")

// Locker acquires a lock and returns its release func.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// Local is an in-process lock. A second Acquire fails instead of blocking.
type Local struct {
	mu sync.Mutex
}

// NewLocal creates an in-process lock.
func NewLocal() *Local {
	return &Local{}
}

// Acquire takes the lock or returns ErrHeld.
func (l *Local) Acquire(context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrHeld
	}
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, nil
}

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the TTL only when the key still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Redis is a lock shared by every process using the same Redis and key.
// The holder renews the TTL until release, so the TTL only bounds how long
// a crashed holder can block new runs.
type Redis struct {
	rdb        redis.UniversalClient
	key        string
	ttl        time.Duration
	renewEvery time.Duration
}

// NewRedis creates a Redis-backed lock renewed every third of its TTL.
func NewRedis(rdb redis.UniversalClient, key string, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, key: key, ttl: ttl, renewEvery: ttl / 3}
}

// Acquire sets the key with NX and PX semantics and keeps it alive until release.
func (r *Redis) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("runlock: acquire: %w", err)
	}
	if !ok {
		return nil, ErrHeld
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.renew(token, stop, done)

	var once sync.Once
	release := func() {
		once.Do(func() {
			close(stop)
			<-done
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(ctx, r.rdb, []string{r.key}, token).Err()
		})
	}
	return release, nil
}

// Held reports whether any holder currently owns the lock.
func (r *Redis) Held(ctx context.Context) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key).Result()
	if err != nil {
		return false, fmt.Errorf("runlock: check: %w", err)
	}
	return n > 0, nil
}

// renew extends the TTL until stop closes or the token is lost.
func (r *Redis) renew(token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	if r.renewEvery <= 0 {
		return
	}

	ticker := time.NewTicker(r.renewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			n, err := renewScript.Run(ctx, r.rdb, []string{r.key}, token, r.ttl.Milliseconds()).Int64()
			cancel()
			if err == nil && n == 0 {
				return
			}
		}
	}
}
