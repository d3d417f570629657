// Package extractor locates the gift registration event for a transaction.
// It prefers the logs already carried by the canonical receipt, falls back to
// a single-block log query, and as a last resort scans a bounded block range
// in chunks.
package extractor

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/giftvault/escrow-indexer/internal/adapter"
	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/logger"
	"github.com/giftvault/escrow-indexer/internal/providers/escrow"
	"github.com/giftvault/escrow-indexer/internal/retry"
)

// chunkRetryPolicy retries one failed chunk query three times with 1s, 2s,
// 4s backoff
var chunkRetryPolicy = retry.Policy{
	MaxAttempts: 4,
	Delay:       retry.Exponential(time.Second),
}

// Options narrows the search for a registration event
type Options struct {
	// ExpectedTokenID, when set, rejects events for any other token
	ExpectedTokenID *uint64

	// ExpectedNFTContract, when set, rejects events from any other collection
	ExpectedNFTContract string

	// FromBlock and ToBlock bound the chunked range scan used when neither the
	// receipt logs nor the receipt's own block yield a match. Zero values
	// disable the range scan.
	FromBlock uint64
	ToBlock   uint64
}

// Extractor finds the registration event that a transaction emitted
//
//go:generate mockgen -source=extractor.go -destination=../mocks/extractor.go -package=mocks -mock_names=Extractor=MockExtractor
type Extractor interface {
	// Extract returns the first registration event passing all filters, or
	// domain.ErrEventNotFound. A provider rate limit aborts the range scan
	// with domain.ErrRateLimited.
	Extract(ctx context.Context, receipt *domain.CanonicalReceipt, opts Options) (*domain.ParsedRegistrationEvent, error)
}

type extractor struct {
	chain      escrow.Client
	clock      adapter.Clock
	chunkDelay time.Duration
}

// NewExtractor creates an event extractor. chunkDelay is the pause between
// consecutive chunk queries of a range scan.
func NewExtractor(chain escrow.Client, clock adapter.Clock, chunkDelay time.Duration) Extractor {
	return &extractor{
		chain:      chain,
		clock:      clock,
		chunkDelay: chunkDelay,
	}
}

// eventFilter rejects decoded events that cannot be the one we are after.
// Filters run in order and the first rejection wins, so the log line always
// names the cheapest reason.
type eventFilter struct {
	name   string
	reject func(e *domain.ParsedRegistrationEvent, opts Options) bool
}

var eventFilters = []eventFilter{
	{
		name: "token_id_mismatch",
		reject: func(e *domain.ParsedRegistrationEvent, opts Options) bool {
			return opts.ExpectedTokenID != nil && e.TokenID != *opts.ExpectedTokenID
		},
	},
	{
		name: "nft_contract_mismatch",
		reject: func(e *domain.ParsedRegistrationEvent, opts Options) bool {
			return opts.ExpectedNFTContract != "" && !domain.SameAddress(e.NFTContract, opts.ExpectedNFTContract)
		},
	},
	{
		name: "zero_gift_id",
		reject: func(e *domain.ParsedRegistrationEvent, opts Options) bool {
			return e.GiftID == 0
		},
	},
	{
		name: "invalid_creator",
		reject: func(e *domain.ParsedRegistrationEvent, opts Options) bool {
			return !domain.IsValidAddress(e.Creator) || domain.SameAddress(e.Creator, domain.ETHEREUM_ZERO_ADDRESS)
		},
	},
	{
		name: "invalid_nft_contract",
		reject: func(e *domain.ParsedRegistrationEvent, opts Options) bool {
			return !domain.IsValidAddress(e.NFTContract) || domain.SameAddress(e.NFTContract, domain.ETHEREUM_ZERO_ADDRESS)
		},
	},
	{
		name: "invalid_registered_by",
		reject: func(e *domain.ParsedRegistrationEvent, opts Options) bool {
			return !domain.IsValidAddress(e.RegisteredBy) || domain.SameAddress(e.RegisteredBy, domain.ETHEREUM_ZERO_ADDRESS)
		},
	},
}

// Extract returns the first registration event passing all filters
func (x *extractor) Extract(ctx context.Context, receipt *domain.CanonicalReceipt, opts Options) (*domain.ParsedRegistrationEvent, error) {
	if receipt == nil {
		return nil, domain.ErrEventNotFound
	}

	if event := x.matchLogs(ctx, receipt.Logs, opts); event != nil {
		return event, nil
	}

	// The receipt carried no matching log. Wrapped transactions sometimes
	// strip logs of co-emitted contracts, so query the receipt's own block.
	if receipt.BlockNumber > 0 {
		event, err := x.searchBlock(ctx, receipt.BlockNumber, opts)
		if err != nil {
			return nil, err
		}
		if event != nil {
			return event, nil
		}
	}

	if opts.ToBlock > 0 && opts.ToBlock >= opts.FromBlock {
		return x.scanRange(ctx, opts)
	}

	return nil, domain.ErrEventNotFound
}

// matchLogs decodes and filters candidate logs, returning the first survivor
func (x *extractor) matchLogs(ctx context.Context, logs []types.Log, opts Options) *domain.ParsedRegistrationEvent {
	escrowAddr := x.chain.Address()

	for _, vLog := range logs {
		if !domain.SameAddress(vLog.Address.Hex(), escrowAddr) {
			continue
		}

		event, err := x.chain.DecodeRegistrationLog(vLog)
		if err != nil {
			// co-emitted escrow log of a different event type
			continue
		}

		if rejectedBy := rejectEvent(event, opts); rejectedBy != "" {
			logger.DebugCtx(ctx, "Registration event candidate rejected",
				zap.String("filter", rejectedBy),
				zap.Uint64("gift_id", event.GiftID),
				zap.Uint64("token_id", event.TokenID),
				zap.String("tx_hash", event.TxHash))
			continue
		}

		return event
	}
	return nil
}

// rejectEvent returns the name of the first filter that rejects e, or ""
func rejectEvent(e *domain.ParsedRegistrationEvent, opts Options) string {
	for _, f := range eventFilters {
		if f.reject(e, opts) {
			return f.name
		}
	}
	return ""
}

// searchBlock queries registration logs for a single block
func (x *extractor) searchBlock(ctx context.Context, block uint64, opts Options) (*domain.ParsedRegistrationEvent, error) {
	logs, err := x.chain.FilterRegistrationLogs(ctx, block, block)
	if err != nil {
		if escrow.IsRateLimitError(err) {
			return nil, domain.ErrRateLimited
		}
		logger.WarnCtx(ctx, "Single-block log query failed",
			zap.Uint64("block", block),
			zap.Error(err))
		return nil, nil
	}
	return x.matchLogs(ctx, logs, opts), nil
}

// scanRange walks [opts.FromBlock, opts.ToBlock] in bounded chunks. Each chunk
// query is retried with exponential backoff; a chunk that still fails is
// skipped so one bad range cannot sink the whole scan. Provider throttling
// aborts immediately.
func (x *extractor) scanRange(ctx context.Context, opts Options) (*domain.ParsedRegistrationEvent, error) {
	for start := opts.FromBlock; start <= opts.ToBlock; start += domain.LogChunkSize {
		end := start + domain.LogChunkSize - 1
		if end > opts.ToBlock {
			end = opts.ToBlock
		}

		var logs []types.Log
		err := chunkRetryPolicy.Do(ctx, x.clock, func(ctx context.Context) error {
			var chunkErr error
			logs, chunkErr = x.chain.FilterRegistrationLogs(ctx, start, end)
			if chunkErr != nil && escrow.IsRateLimitError(chunkErr) {
				return retry.Permanent(domain.ErrRateLimited)
			}
			return chunkErr
		})
		if err != nil {
			if errors.Is(err, domain.ErrRateLimited) {
				logger.WarnCtx(ctx, "Provider rate limit hit, aborting range scan",
					zap.Uint64("from_block", start),
					zap.Uint64("to_block", end))
				return nil, domain.ErrRateLimited
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.WarnCtx(ctx, "Chunk query failed after retries, skipping",
				zap.Uint64("from_block", start),
				zap.Uint64("to_block", end),
				zap.Error(err))
		} else if event := x.matchLogs(ctx, logs, opts); event != nil {
			return event, nil
		}

		if end < opts.ToBlock && x.chunkDelay > 0 {
			x.clock.Sleep(x.chunkDelay)
		}
	}

	return nil, domain.ErrEventNotFound
}
