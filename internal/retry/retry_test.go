package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/giftvault/escrow-indexer/internal/mocks"
	"github.com/giftvault/escrow-indexer/internal/retry"
)

func closedTimeChan() <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func TestPolicy_SucceedsAfterRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().After(1 * time.Second).Return(closedTimeChan())
	clock.EXPECT().After(2 * time.Second).Return(closedTimeChan())

	p := retry.Policy{
		MaxAttempts: 3,
		Delay:       retry.Exponential(time.Second),
	}

	calls := 0
	err := p.Do(context.Background(), clock, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicy_ExhaustsAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().After(1 * time.Second).Return(closedTimeChan())
	clock.EXPECT().After(2 * time.Second).Return(closedTimeChan())

	p := retry.Policy{
		MaxAttempts: 3,
		Delay:       retry.Exponential(time.Second),
	}

	boom := errors.New("boom")
	calls := 0
	err := p.Do(context.Background(), clock, func(ctx context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestPolicy_PermanentStopsImmediately(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)

	p := retry.Policy{
		MaxAttempts: 5,
		Delay:       retry.Exponential(time.Second),
	}

	fatal := errors.New("bad address")
	calls := 0
	err := p.Do(context.Background(), clock, func(ctx context.Context) error {
		calls++
		return retry.Permanent(fatal)
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestPolicy_ContextCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := retry.Policy{MaxAttempts: 3}
	err := p.Do(ctx, clock, func(ctx context.Context) error {
		t.Fatal("op must not run after cancellation")
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinearCapped(t *testing.T) {
	delay := retry.LinearCapped(2*time.Second, 8*time.Second)

	assert.Equal(t, 2*time.Second, delay(1))
	assert.Equal(t, 4*time.Second, delay(2))
	assert.Equal(t, 8*time.Second, delay(4))
	assert.Equal(t, 8*time.Second, delay(10))
}

func TestExponential(t *testing.T) {
	delay := retry.Exponential(time.Second)

	assert.Equal(t, 1*time.Second, delay(1))
	assert.Equal(t, 2*time.Second, delay(2))
	assert.Equal(t, 4*time.Second, delay(3))
}
