// Package ratelimit bounds how often expensive fallback paths may run. Chain
// range scans and counter-wide recovery searches are orders of magnitude more
// costly than a cache hit, so each operation key gets a small budget per
// window, enforced across all reconciler instances through Redis.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/giftvault/escrow-indexer/internal/adapter"
	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/logger"
)

// Throttle gates expensive fallback operations per operation key
//
//go:generate mockgen -source=throttle.go -destination=../mocks/throttle.go -package=mocks -mock_names=Throttle=MockThrottle
type Throttle interface {
	// Allow consumes one attempt for opKey. It returns domain.ErrRateLimited
	// when the key's budget for the current window is exhausted.
	Allow(ctx context.Context, opKey string) error
}

type throttle struct {
	limiter   adapter.RedisRateLimiter
	keyPrefix string
	limit     redis_rate.Limit

	// local limiters take over when Redis is unreachable, so the budget still
	// holds per instance
	mu    sync.Mutex
	local map[string]*rate.Limiter
}

// NewThrottle creates a distributed throttle allowing perWindow attempts per
// window for each operation key
func NewThrottle(limiter adapter.RedisRateLimiter, keyPrefix string, perWindow int, window time.Duration) Throttle {
	return &throttle{
		limiter:   limiter,
		keyPrefix: keyPrefix,
		limit: redis_rate.Limit{
			Rate:   perWindow,
			Period: window,
			Burst:  perWindow,
		},
		local: make(map[string]*rate.Limiter),
	}
}

// Allow consumes one attempt for opKey
func (t *throttle) Allow(ctx context.Context, opKey string) error {
	result, err := t.limiter.Allow(ctx, t.keyPrefix+opKey, t.limit)
	if err != nil {
		logger.WarnCtx(ctx, "Distributed throttle unavailable, using local limiter",
			zap.String("op_key", opKey),
			zap.Error(err))
		return t.allowLocal(opKey)
	}

	if result.Allowed == 0 {
		logger.InfoCtx(ctx, "Fallback budget exhausted",
			zap.String("op_key", opKey),
			zap.Duration("retry_after", result.RetryAfter))
		return domain.ErrRateLimited
	}
	return nil
}

// allowLocal enforces the same budget per instance when Redis is down
func (t *throttle) allowLocal(opKey string) error {
	t.mu.Lock()
	limiter, ok := t.local[opKey]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(t.limit.Rate)/t.limit.Period.Seconds()), t.limit.Burst)
		t.local[opKey] = limiter
	}
	t.mu.Unlock()

	if !limiter.Allow() {
		return domain.ErrRateLimited
	}
	return nil
}
