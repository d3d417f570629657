// Package reconciler ties the pipeline together: normalize a registration
// receipt, extract the event, persist the mapping, and keep the cached
// mappings honest against the chain.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/giftvault/escrow-indexer/internal/adapter"
	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/extractor"
	"github.com/giftvault/escrow-indexer/internal/logger"
	"github.com/giftvault/escrow-indexer/internal/mapping"
	"github.com/giftvault/escrow-indexer/internal/messaging"
	"github.com/giftvault/escrow-indexer/internal/providers/escrow"
	"github.com/giftvault/escrow-indexer/internal/ratelimit"
	"github.com/giftvault/escrow-indexer/internal/receipt"
	"github.com/giftvault/escrow-indexer/internal/store"
	"github.com/giftvault/escrow-indexer/internal/validator"
)

// Config holds reconciler service configuration
type Config struct {
	ChainID     int64
	NFTContract string

	// ScanStartBlock bounds how far back a range scan may reach when a
	// receipt carries no block context
	ScanStartBlock uint64

	// SweepConcurrency is the number of parallel validations per sweep batch
	SweepConcurrency int

	// SweepBatchSize is the number of gifts per batch within one sweep
	SweepBatchSize int

	// InterBatchWait is the pause between sweep batches
	InterBatchWait time.Duration
}

// RecordOptions narrows a RecordMapping call
type RecordOptions struct {
	// ExpectedTokenID, when set, rejects registration events for other tokens
	ExpectedTokenID *uint64

	// ExpectedNFTContract overrides the configured collection address
	ExpectedNFTContract string

	// FromBlock and ToBlock bound the extractor's range-scan fallback
	FromBlock uint64
	ToBlock   uint64

	// Salt is the mint-time password salt, stored alongside the mapping
	Salt string

	// IdempotencyKey suppresses duplicate submissions
	IdempotencyKey string
}

// SweepStats summarizes one ReconcileRecent pass
type SweepStats struct {
	StartedAt     time.Time
	FinishedAt    time.Time
	Ceiling       uint64
	Scanned       uint64
	Diverged      uint64
	Repaired      uint64
	Unrecoverable uint64
	Errors        uint64
}

// Service is the reconciliation surface consumed by the daemon and the API
//
//go:generate mockgen -source=service.go -destination=../mocks/reconciler.go -package=mocks -mock_names=Service=MockReconcilerService
type Service interface {
	// ResolveGiftID resolves tokenID to its giftId, recovering from the chain
	// when the cache has no usable answer
	ResolveGiftID(ctx context.Context, tokenID string) (string, error)

	// RecordMapping runs a raw registration transaction result through the
	// full pipeline: normalize, extract, persist, validate
	RecordMapping(ctx context.Context, rawReceipt any, opts RecordOptions) (*mapping.StoreOutcome, error)

	// ReconcileToken validates one stored mapping against the chain and
	// repairs it when possible. A nil event means the mapping is consistent.
	ReconcileToken(ctx context.Context, tokenID string) (*domain.MappingEvent, error)

	// ReconcileRecent sweeps the most recent window of gifts
	ReconcileRecent(ctx context.Context, window uint64) (*SweepStats, error)

	// Salt returns the stored mint-time salt for giftID
	Salt(ctx context.Context, giftID string) (string, error)
}

type service struct {
	cfg        Config
	normalizer receipt.Normalizer
	extractor  extractor.Extractor
	mappings   mapping.Store
	missCache  *mapping.MissCache
	validator  validator.Validator
	chain      escrow.Client
	throttle   ratelimit.Throttle
	publisher  messaging.Publisher
	journal    store.Store
	clock      adapter.Clock
}

// NewService creates the reconciler service
func NewService(
	cfg Config,
	normalizer receipt.Normalizer,
	x extractor.Extractor,
	mappings mapping.Store,
	missCache *mapping.MissCache,
	v validator.Validator,
	chain escrow.Client,
	throttle ratelimit.Throttle,
	publisher messaging.Publisher,
	journal store.Store,
	clock adapter.Clock,
) Service {
	return &service{
		cfg:        cfg,
		normalizer: normalizer,
		extractor:  x,
		mappings:   mappings,
		missCache:  missCache,
		validator:  v,
		chain:      chain,
		throttle:   throttle,
		publisher:  publisher,
		journal:    journal,
		clock:      clock,
	}
}

// ResolveGiftID resolves tokenID to its giftId
func (s *service) ResolveGiftID(ctx context.Context, tokenID string) (string, error) {
	if s.missCache.Hit(tokenID) {
		return "", domain.ErrMappingNotFound
	}

	result := s.mappings.Lookup(ctx, tokenID)
	switch result.Reason {
	case domain.LookupOK:
		return result.GiftID, nil

	case domain.LookupLegacyIncompatible:
		// fail closed: a half-trusted legacy value is worse than a miss
		return "", domain.ErrLegacyIncompatible

	case domain.LookupStoreError:
		logger.WarnCtx(ctx, "Mapping lookup failed, falling back to chain recovery",
			zap.String("token_id", tokenID),
			zap.Error(result.Err))
	case domain.LookupMissing, domain.LookupInvalidFormat:
		// recoverable from the chain
	}

	giftID, err := s.recoverFromChain(ctx, tokenID)
	if err != nil {
		if errors.Is(err, domain.ErrGiftNotFound) {
			s.missCache.Record(tokenID)
			return "", domain.ErrMappingNotFound
		}
		return "", err
	}

	return giftID, nil
}

// recoverFromChain finds the gift for tokenID by scanning the contract and
// heals the cache with the answer. The scan is expensive, so it runs under
// the fallback throttle.
func (s *service) recoverFromChain(ctx context.Context, tokenID string) (string, error) {
	if err := s.throttle.Allow(ctx, "resolve:"+tokenID); err != nil {
		return "", err
	}

	giftID, err := s.validator.FindCorrectGiftID(ctx, tokenID, s.cfg.NFTContract, 0)
	if err != nil {
		return "", err
	}

	giftNum, _ := domain.ParseGiftID(giftID)
	record, err := s.chain.GetGift(ctx, giftNum)
	if err != nil {
		// mapping is known but cannot be healed right now; still answer
		logger.WarnCtx(ctx, "Recovered gift id but could not read record for self-heal",
			zap.String("token_id", tokenID),
			zap.String("gift_id", giftID),
			zap.Error(err))
		return giftID, nil
	}

	outcome, err := s.mappings.Store(ctx, mapping.StoreRequest{
		TokenID:     tokenID,
		GiftID:      giftID,
		NFTContract: record.NFTContract.Hex(),
		ChainID:     s.cfg.ChainID,
		UpdatedAt:   s.clock.Now().UTC(),
		Metadata: &domain.MappingMetadata{
			Creator:   record.Creator.Hex(),
			CreatedAt: s.clock.Now().UTC(),
		},
	})
	if err != nil {
		logger.WarnCtx(ctx, "Self-heal mapping write failed",
			zap.String("token_id", tokenID),
			zap.Error(err))
	} else if outcome.Written {
		s.missCache.Evict(tokenID)
		logger.InfoCtx(ctx, "Healed mapping from chain recovery",
			zap.String("token_id", tokenID),
			zap.String("gift_id", giftID))
	}

	return giftID, nil
}

// RecordMapping runs a raw registration result through the full pipeline
func (s *service) RecordMapping(ctx context.Context, rawReceipt any, opts RecordOptions) (*mapping.StoreOutcome, error) {
	canonical, err := s.normalizer.Normalize(ctx, rawReceipt)
	if err != nil {
		return nil, err
	}
	if canonical.Status == domain.ReceiptStatusReverted {
		return nil, fmt.Errorf("registration transaction %s reverted", canonical.TransactionHash)
	}

	expectedContract := opts.ExpectedNFTContract
	if expectedContract == "" {
		expectedContract = s.cfg.NFTContract
	}

	event, err := s.extractor.Extract(ctx, canonical, extractor.Options{
		ExpectedTokenID:     opts.ExpectedTokenID,
		ExpectedNFTContract: expectedContract,
		FromBlock:           opts.FromBlock,
		ToBlock:             opts.ToBlock,
	})
	if err != nil {
		return nil, err
	}
	if !event.Valid() {
		return nil, &domain.ValidationError{Field: "event", Msg: "registration event failed invariants"}
	}

	tokenID := strconv.FormatUint(event.TokenID, 10)
	giftID := strconv.FormatUint(event.GiftID, 10)
	now := s.clock.Now().UTC()

	outcome, err := s.mappings.Store(ctx, mapping.StoreRequest{
		TokenID:     tokenID,
		GiftID:      giftID,
		NFTContract: event.NFTContract,
		ChainID:     s.cfg.ChainID,
		UpdatedAt:   now,
		Metadata: &domain.MappingMetadata{
			Creator:   event.Creator,
			CreatedAt: now,
			Salt:      opts.Salt,
		},
		IdempotencyKey: opts.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	s.missCache.Evict(tokenID)

	if opts.Salt != "" {
		if err := s.mappings.StoreSalt(ctx, giftID, opts.Salt); err != nil {
			return outcome, fmt.Errorf("mapping stored but salt write failed: %w", err)
		}
	}

	// Written mappings are verified against the chain immediately, with a
	// generous attempt budget to absorb replica lag
	if outcome.Written {
		err = s.validator.Validate(ctx, tokenID, giftID, validator.Options{
			ExpectedCreator:     event.Creator,
			ExpectedNFTContract: event.NFTContract,
			RequireActiveStatus: true,
			Attempts:            validator.PostWriteValidateAttempts,
		})
		var integrity *domain.IntegrityError
		if errors.As(err, &integrity) {
			s.emitEvent(ctx, s.newEvent(domain.MappingEventDetected, tokenID, giftID, integrity))
			return outcome, err
		}
		if err != nil {
			return outcome, fmt.Errorf("post-write validation failed: %w", err)
		}
	}

	return outcome, nil
}

// ReconcileToken validates one stored mapping and repairs divergence
func (s *service) ReconcileToken(ctx context.Context, tokenID string) (*domain.MappingEvent, error) {
	result := s.mappings.Lookup(ctx, tokenID)

	var giftID, reason string
	switch result.Reason {
	case domain.LookupOK:
		giftID = result.GiftID
		err := s.validator.Validate(ctx, tokenID, giftID, validator.Options{})
		if err == nil {
			s.healReverseIndex(ctx, tokenID, giftID)
			return nil, nil
		}

		var integrity *domain.IntegrityError
		switch {
		case errors.As(err, &integrity):
			reason = integrity.Reason
			event := s.newEvent(domain.MappingEventDetected, tokenID, giftID, integrity)
			s.emitEvent(ctx, event)
		case errors.Is(err, domain.ErrGiftNotFound):
			reason = "gift_not_found"
			s.emitEvent(ctx, s.newEvent(domain.MappingEventDetected, tokenID, giftID, nil, reason))
		default:
			// transient chain trouble, leave the mapping alone
			return nil, err
		}

	case domain.LookupMissing:
		return nil, domain.ErrMappingNotFound

	case domain.LookupLegacyIncompatible:
		giftID, reason = "", "legacy_incompatible"
		s.emitEvent(ctx, s.newEvent(domain.MappingEventDetected, tokenID, giftID, nil, reason))

	case domain.LookupInvalidFormat:
		giftID, reason = "", "invalid_format"
		s.emitEvent(ctx, s.newEvent(domain.MappingEventDetected, tokenID, giftID, nil, reason))

	case domain.LookupStoreError:
		return nil, result.Err
	}

	return s.repair(ctx, tokenID, giftID, reason)
}

// healReverseIndex restores the giftId -> tokenId entry when it is missing or
// disagrees with a chain-validated forward mapping. A reverse write that
// failed during Store leaves exactly this hole, and the sweep cannot discover
// a forward-only record on its own.
func (s *service) healReverseIndex(ctx context.Context, tokenID, giftID string) {
	stored, err := s.mappings.ReverseLookup(ctx, giftID)
	if err == nil && stored == tokenID {
		return
	}
	if err != nil && !errors.Is(err, domain.ErrMappingNotFound) {
		logger.WarnCtx(ctx, "Reverse index check failed",
			zap.String("gift_id", giftID),
			zap.Error(err))
		return
	}

	if repairErr := s.mappings.RepairReverse(ctx, giftID, tokenID); repairErr != nil {
		logger.WarnCtx(ctx, "Reverse index repair failed",
			zap.String("gift_id", giftID),
			zap.String("token_id", tokenID),
			zap.Error(repairErr))
		return
	}
	logger.InfoCtx(ctx, "Healed reverse mapping entry",
		zap.String("gift_id", giftID),
		zap.String("token_id", tokenID))
}

// repair finds the correct gift for tokenID and rewrites the mapping
func (s *service) repair(ctx context.Context, tokenID, staleGiftID, reason string) (*domain.MappingEvent, error) {
	if err := s.throttle.Allow(ctx, "reconcile:"+tokenID); err != nil {
		// budget spent; the divergence is already journaled as detected
		return s.newEvent(domain.MappingEventDetected, tokenID, staleGiftID, nil, reason), nil
	}

	correctGiftID, err := s.validator.FindCorrectGiftID(ctx, tokenID, s.cfg.NFTContract, 0)
	if err != nil {
		if errors.Is(err, domain.ErrGiftNotFound) {
			event := s.newEvent(domain.MappingEventUnrecoverable, tokenID, staleGiftID, nil, reason)
			s.emitEvent(ctx, event)
			return event, nil
		}
		return nil, err
	}

	giftNum, _ := domain.ParseGiftID(correctGiftID)
	record, err := s.chain.GetGift(ctx, giftNum)
	if err != nil {
		return nil, err
	}

	outcome, err := s.mappings.Store(ctx, mapping.StoreRequest{
		TokenID:     tokenID,
		GiftID:      correctGiftID,
		NFTContract: record.NFTContract.Hex(),
		ChainID:     s.cfg.ChainID,
		UpdatedAt:   s.clock.Now().UTC(),
		Metadata: &domain.MappingMetadata{
			Creator:   record.Creator.Hex(),
			CreatedAt: s.clock.Now().UTC(),
		},
	})
	if err != nil {
		return nil, err
	}
	if !outcome.Written {
		// a concurrent writer got there first with a newer record
		logger.InfoCtx(ctx, "Repair superseded by concurrent write",
			zap.String("token_id", tokenID),
			zap.String("skip_reason", outcome.Reason))
		return nil, nil
	}
	s.missCache.Evict(tokenID)

	event := s.newEvent(domain.MappingEventRepaired, tokenID, correctGiftID, nil, reason)
	s.emitEvent(ctx, event)
	return event, nil
}

// ReconcileRecent sweeps the most recent window of gifts
func (s *service) ReconcileRecent(ctx context.Context, window uint64) (*SweepStats, error) {
	stats := &SweepStats{StartedAt: s.clock.Now().UTC()}

	ceiling, err := s.chain.GiftCounter(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read gift counter: %w", err)
	}
	stats.Ceiling = ceiling

	floor := uint64(1)
	if window > 0 && ceiling > window {
		floor = ceiling - window + 1
	}

	concurrency := s.cfg.SweepConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	batchSize := s.cfg.SweepBatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	var scanned, diverged, repaired, unrecoverable, errCount atomic.Uint64

	pool := pond.NewPool(concurrency, pond.WithContext(ctx))

	for batchStart := floor; batchStart <= ceiling; batchStart += uint64(batchSize) {
		if ctx.Err() != nil {
			break
		}

		batchEnd := batchStart + uint64(batchSize) - 1
		if batchEnd > ceiling {
			batchEnd = ceiling
		}

		group := pool.NewGroup()
		for giftID := batchStart; giftID <= batchEnd; giftID++ {
			group.Submit(func() {
				scanned.Add(1)
				s.sweepGift(ctx, giftID, &diverged, &repaired, &unrecoverable, &errCount)
			})
		}
		if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			logger.ErrorCtx(ctx, err, zap.Uint64("batch_start", batchStart))
		}

		if batchEnd < ceiling && s.cfg.InterBatchWait > 0 {
			select {
			case <-ctx.Done():
			case <-s.clock.After(s.cfg.InterBatchWait):
			}
		}
	}

	pool.StopAndWait()

	stats.Scanned = scanned.Load()
	stats.Diverged = diverged.Load()
	stats.Repaired = repaired.Load()
	stats.Unrecoverable = unrecoverable.Load()
	stats.Errors = errCount.Load()
	stats.FinishedAt = s.clock.Now().UTC()

	logger.InfoCtx(ctx, "Reconciliation sweep finished",
		zap.Uint64("ceiling", stats.Ceiling),
		zap.Uint64("scanned", stats.Scanned),
		zap.Uint64("diverged", stats.Diverged),
		zap.Uint64("repaired", stats.Repaired),
		zap.Uint64("unrecoverable", stats.Unrecoverable),
		zap.Uint64("errors", stats.Errors))

	return stats, nil
}

// sweepGift reconciles one gift id's mapping during a sweep
func (s *service) sweepGift(ctx context.Context, giftID uint64, diverged, repaired, unrecoverable, errCount *atomic.Uint64) {
	giftIDStr := strconv.FormatUint(giftID, 10)

	tokenID, err := s.mappings.ReverseLookup(ctx, giftIDStr)
	if err != nil {
		if !errors.Is(err, domain.ErrMappingNotFound) {
			errCount.Add(1)
			logger.WarnCtx(ctx, "Reverse lookup failed during sweep",
				zap.Uint64("gift_id", giftID),
				zap.Error(err))
		}
		// no reverse entry means the mapping was never written; nothing to
		// reconcile against
		return
	}

	event, err := s.ReconcileToken(ctx, tokenID)
	if err != nil {
		if !errors.Is(err, domain.ErrMappingNotFound) {
			errCount.Add(1)
			logger.WarnCtx(ctx, "Sweep reconcile failed",
				zap.String("token_id", tokenID),
				zap.Error(err))
		}
		return
	}
	if event == nil {
		return
	}

	diverged.Add(1)
	switch event.Type {
	case domain.MappingEventRepaired:
		repaired.Add(1)
	case domain.MappingEventUnrecoverable:
		unrecoverable.Add(1)
	}
}

// Salt returns the stored mint-time salt for giftID. A missing salt is a
// silent trust-downgrade for the caller (it falls back to a caller-supplied
// salt), so the miss is surfaced as a detected event rather than swallowed.
func (s *service) Salt(ctx context.Context, giftID string) (string, error) {
	salt, err := s.mappings.GetSalt(ctx, giftID)
	if errors.Is(err, domain.ErrMappingNotFound) {
		s.emitEvent(ctx, s.newEvent(domain.MappingEventDetected, "", giftID, nil, "salt_missing"))
	}
	return salt, err
}

// newEvent builds a mapping event with a time-sortable id
func (s *service) newEvent(eventType domain.MappingEventType, tokenID, giftID string, integrity *domain.IntegrityError, reason ...string) *domain.MappingEvent {
	event := &domain.MappingEvent{
		EventID:   ulid.MustNewDefault(s.clock.Now()).String(),
		Type:      eventType,
		TokenID:   tokenID,
		GiftID:    giftID,
		Timestamp: s.clock.Now().UTC(),
	}
	if integrity != nil {
		event.Reason = integrity.Reason
		event.ObservedTokenID = integrity.OnChainTokenID
	} else if len(reason) > 0 {
		event.Reason = reason[0]
	}
	return event
}

// emitEvent publishes and journals a mapping event, best effort on both
func (s *service) emitEvent(ctx context.Context, event *domain.MappingEvent) {
	if err := s.publisher.PublishMappingEvent(ctx, event); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to publish mapping event: %w", err),
			zap.String("event_id", event.EventID),
			zap.String("type", string(event.Type)))
	}
	if err := s.journal.CreateIncidentFromEvent(ctx, event); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to journal mapping event: %w", err),
			zap.String("event_id", event.EventID))
	}
}
