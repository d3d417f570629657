package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/giftvault/escrow-indexer/internal/adapter"
	"github.com/giftvault/escrow-indexer/internal/logger"
	"github.com/giftvault/escrow-indexer/internal/store"
)

const (
	// DEFAULT_SWEEP_INTERVAL is the pause between sweep cycles
	DEFAULT_SWEEP_INTERVAL = 15 * time.Minute

	// DEFAULT_SWEEP_WINDOW is how many of the most recent gifts each cycle
	// revisits
	DEFAULT_SWEEP_WINDOW = 500
)

// SweeperConfig holds configuration for the mapping sweeper
type SweeperConfig struct {
	Window        uint64        // Most recent gifts to revisit per cycle
	CycleInterval time.Duration // Time to sleep between cycles
}

// Sweeper runs continuous background reconciliation
type Sweeper interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type mappingSweeper struct {
	config    *SweeperConfig
	service   Service
	journal   store.Store
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewSweeper creates a new mapping sweeper
func NewSweeper(config *SweeperConfig, svc Service, journal store.Store, clock adapter.Clock) Sweeper {
	if config.Window == 0 {
		config.Window = DEFAULT_SWEEP_WINDOW
	}
	if config.CycleInterval <= 0 {
		config.CycleInterval = DEFAULT_SWEEP_INTERVAL
	}
	return &mappingSweeper{
		config:    config,
		service:   svc,
		journal:   journal,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *mappingSweeper) Name() string {
	return "mapping-sweeper"
}

// Start begins the sweeper's main loop
func (s *mappingSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh) // Signal that we've stopped
	}()

	logger.InfoCtx(ctx, "Starting mapping sweeper",
		zap.Uint64("window", s.config.Window),
		zap.Duration("cycle_interval", s.config.CycleInterval),
	)

	// Continuous loop - stops when context is canceled or stop is requested
	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Mapping sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Mapping sweeper stop requested")
			return nil
		default:
			if err := s.runSweepCycle(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.ErrorCtx(ctx, err)
				}
			}
		}
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *mappingSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping mapping sweeper")

	// Signal stop to the main loop
	close(s.stopChan)

	// Wait for main loop to exit, but respect context cancellation
	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Mapping sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Mapping sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle runs a single sweep cycle and journals the result
func (s *mappingSweeper) runSweepCycle(ctx context.Context) error {
	startTime := s.clock.Now()
	logger.InfoCtx(ctx, "Starting reconciliation sweep cycle")

	stats, err := s.service.ReconcileRecent(ctx, s.config.Window)
	if err != nil {
		// Back off before retrying so a dead RPC endpoint doesn't spin us
		if !s.sleep(ctx, s.config.CycleInterval) {
			return ctx.Err()
		}
		return fmt.Errorf("sweep cycle failed: %w", err)
	}

	if err := s.flushSweepCycleWithRetry(ctx, stats); err != nil {
		// After all retries failed, log with high severity for monitoring/alerting
		logger.ErrorCtx(ctx, fmt.Errorf("CRITICAL: failed to journal sweep cycle after retries: %w", err),
			zap.Uint64("scanned", stats.Scanned),
			zap.Uint64("diverged", stats.Diverged),
		)
	}

	duration := s.clock.Since(startTime)
	logger.InfoCtx(ctx, "Sweep cycle completed",
		zap.Duration("duration", duration),
		zap.Uint64("ceiling", stats.Ceiling),
		zap.Uint64("scanned", stats.Scanned),
		zap.Uint64("diverged", stats.Diverged),
		zap.Uint64("repaired", stats.Repaired),
		zap.Uint64("unrecoverable", stats.Unrecoverable),
		zap.Uint64("errors", stats.Errors),
	)

	// Sleep for a while to avoid tight loop
	if !s.sleep(ctx, s.config.CycleInterval) {
		return ctx.Err() // Context canceled during sleep
	}

	return nil
}

// sleep sleeps for the given duration but can be interrupted by context
// cancellation or a stop request. Returns true if sleep completed normally.
func (s *mappingSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true // Sleep completed
	case <-ctx.Done():
		return false // Interrupted by context cancellation
	case <-s.stopChan:
		return false // Interrupted by stop signal
	}
}

// flushSweepCycleWithRetry journals the cycle summary with exponential backoff
func (s *mappingSweeper) flushSweepCycleWithRetry(ctx context.Context, stats *SweepStats) error {
	// Configure exponential backoff
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 15 * time.Second
	b.MaxInterval = 2 * time.Minute
	b.MaxElapsedTime = 1 * time.Hour // Total retry time limit
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5 // Add jitter to prevent thundering herd

	// Wrap with context to respect cancellation
	backoffWithContext := backoff.WithContext(b, ctx)

	operation := func() error {
		return s.journal.CreateSweepCycle(ctx, store.CreateSweepCycleInput{
			StartedAt:     stats.StartedAt,
			FinishedAt:    stats.FinishedAt,
			Ceiling:       stats.Ceiling,
			Scanned:       stats.Scanned,
			Diverged:      stats.Diverged,
			Repaired:      stats.Repaired,
			Unrecoverable: stats.Unrecoverable,
			Errors:        stats.Errors,
		})
	}

	// Execute with retry and detailed logging
	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Sweep cycle journal write failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", duration),
		)
	}

	err := backoff.RetryNotify(operation, backoffWithContext, notifyOnError)
	if err != nil {
		return fmt.Errorf("failed after %d attempts: %w", attemptCount, err)
	}

	if attemptCount > 0 {
		logger.InfoCtx(ctx, "Sweep cycle journal write succeeded after retries",
			zap.Int("total_attempts", attemptCount+1),
		)
	}

	return nil
}
