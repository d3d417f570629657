package ratelimit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/logger"
	"github.com/giftvault/escrow-indexer/internal/mocks"
	"github.com/giftvault/escrow-indexer/internal/ratelimit"
)

func TestMain(m *testing.M) {
	logger.Initialize(logger.Config{Debug: true})
	m.Run()
}

func TestThrottle_AllowWithinBudget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	limiter := mocks.NewMockRedisRateLimiter(ctrl)
	limiter.EXPECT().
		Allow(gomock.Any(), "escrow:throttle:range_scan:0xabc", redis_rate.Limit{
			Rate:   3,
			Period: time.Minute,
			Burst:  3,
		}).
		Return(&redis_rate.Result{Allowed: 1, Remaining: 2}, nil)

	th := ratelimit.NewThrottle(limiter, "escrow:throttle:", 3, time.Minute)

	err := th.Allow(context.Background(), "range_scan:0xabc")
	assert.NoError(t, err)
}

func TestThrottle_BudgetExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	limiter := mocks.NewMockRedisRateLimiter(ctrl)
	limiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&redis_rate.Result{Allowed: 0, RetryAfter: 30 * time.Second}, nil)

	th := ratelimit.NewThrottle(limiter, "escrow:throttle:", 3, time.Minute)

	err := th.Allow(context.Background(), "range_scan:0xabc")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestThrottle_LocalFallbackOnRedisError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	limiter := mocks.NewMockRedisRateLimiter(ctrl)
	limiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("redis unavailable")).
		Times(4)

	th := ratelimit.NewThrottle(limiter, "escrow:throttle:", 3, time.Minute)

	// local limiter honors the same burst of 3, then denies
	for i := 0; i < 3; i++ {
		assert.NoError(t, th.Allow(context.Background(), "recovery_scan:42"))
	}
	err := th.Allow(context.Background(), "recovery_scan:42")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestThrottle_KeysAreIndependent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	limiter := mocks.NewMockRedisRateLimiter(ctrl)
	limiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("redis unavailable")).
		AnyTimes()

	th := ratelimit.NewThrottle(limiter, "escrow:throttle:", 1, time.Minute)

	assert.NoError(t, th.Allow(context.Background(), "op:a"))
	assert.ErrorIs(t, th.Allow(context.Background(), "op:a"), domain.ErrRateLimited)
	assert.NoError(t, th.Allow(context.Background(), "op:b"))
}
