// Package validator checks a stored tokenId/giftId pairing against the
// authoritative gift record on the escrow contract. Read replicas lag the
// head, so a token mismatch is retried with growing delays before it is
// declared an integrity failure; creator, collection, status and existence
// mismatches never heal with time and fail immediately.
package validator

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/giftvault/escrow-indexer/internal/adapter"
	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/logger"
	"github.com/giftvault/escrow-indexer/internal/providers/escrow"
	"github.com/giftvault/escrow-indexer/internal/retry"
)

const (
	// DefaultValidateAttempts covers ordinary read-path validation
	DefaultValidateAttempts = 3

	// PostWriteValidateAttempts covers validation right after a mapping write,
	// when replica lag is most likely
	PostWriteValidateAttempts = 6
)

// lagDelay waits min(attempt*2s, 8s) between validation attempts
var lagDelay = retry.LinearCapped(2*time.Second, 8*time.Second)

// Options narrows what Validate checks beyond the tokenId pairing
type Options struct {
	// ExpectedCreator, when set, must match the on-chain gift creator
	ExpectedCreator string

	// ExpectedNFTContract, when set, must match the on-chain collection
	ExpectedNFTContract string

	// RequireActiveStatus rejects gifts that are already claimed or
	// returned. Set on post-write confirmation, where anything but Active
	// means the mapping points at the wrong gift; left unset on sweep
	// validation, where claimed gifts are a normal end state.
	RequireActiveStatus bool

	// Attempts overrides the validation attempt budget; zero means
	// DefaultValidateAttempts
	Attempts int
}

// Validator compares cached mappings against on-chain gift records
//
//go:generate mockgen -source=validator.go -destination=../mocks/validator.go -package=mocks -mock_names=Validator=MockValidator
type Validator interface {
	// Validate confirms that giftID's on-chain record references tokenID.
	// A persistent disagreement returns *domain.IntegrityError.
	Validate(ctx context.Context, tokenID, giftID string, opts Options) error

	// FindCorrectGiftID scans gift records backward from searchCeiling
	// (or the contract's gift counter when zero) looking for the gift that
	// references tokenID within nftContract. Token ids are per-collection
	// counters, so a match on tokenId alone could land in the wrong
	// collection. Returns domain.ErrGiftNotFound when no gift matches.
	FindCorrectGiftID(ctx context.Context, tokenID, nftContract string, searchCeiling uint64) (string, error)
}

type validator struct {
	chain escrow.Client
	clock adapter.Clock
}

// NewValidator creates a mapping validator
func NewValidator(chain escrow.Client, clock adapter.Clock) Validator {
	return &validator{chain: chain, clock: clock}
}

// tokenMismatchError carries the diagnostic context of a retryable mismatch
type tokenMismatchError struct {
	record *domain.OnChainGiftRecord
}

func (e *tokenMismatchError) Error() string { return "on-chain token id does not match" }

// Validate confirms that giftID's on-chain record references tokenID
func (v *validator) Validate(ctx context.Context, tokenID, giftID string, opts Options) error {
	giftNum, err := domain.ParseGiftID(giftID)
	if err != nil {
		return &domain.ValidationError{Field: "giftId", Msg: err.Error()}
	}
	if _, err := strconv.ParseUint(tokenID, 10, 64); err != nil {
		return &domain.ValidationError{Field: "tokenId", Msg: "must be a non-negative integer"}
	}

	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = DefaultValidateAttempts
	}

	policy := retry.Policy{MaxAttempts: attempts, Delay: lagDelay}

	err = policy.Do(ctx, v.clock, func(ctx context.Context) error {
		record, err := v.chain.GetGift(ctx, giftNum)
		if err != nil {
			// node hiccup, worth another attempt
			return err
		}

		if record.Creator == (common.Address{}) {
			return retry.Permanent(domain.ErrGiftNotFound)
		}
		if opts.ExpectedCreator != "" && !domain.SameAddress(record.Creator.Hex(), opts.ExpectedCreator) {
			return retry.Permanent(&domain.IntegrityError{
				TokenID:         tokenID,
				GiftID:          giftID,
				OnChainTokenID:  tokenIDString(record),
				OnChainCreator:  record.Creator.Hex(),
				OnChainContract: record.NFTContract.Hex(),
				GiftStatus:      record.Status,
				Reason:          "creator_mismatch",
			})
		}
		if opts.ExpectedNFTContract != "" && !domain.SameAddress(record.NFTContract.Hex(), opts.ExpectedNFTContract) {
			return retry.Permanent(&domain.IntegrityError{
				TokenID:         tokenID,
				GiftID:          giftID,
				OnChainTokenID:  tokenIDString(record),
				OnChainCreator:  record.Creator.Hex(),
				OnChainContract: record.NFTContract.Hex(),
				GiftStatus:      record.Status,
				Reason:          "nft_contract_mismatch",
			})
		}
		if opts.RequireActiveStatus && record.Status != domain.GiftStatusActive {
			return retry.Permanent(&domain.IntegrityError{
				TokenID:         tokenID,
				GiftID:          giftID,
				OnChainTokenID:  tokenIDString(record),
				OnChainCreator:  record.Creator.Hex(),
				OnChainContract: record.NFTContract.Hex(),
				GiftStatus:      record.Status,
				Reason:          "gift_not_active",
			})
		}
		if tokenIDString(record) != tokenID {
			logger.DebugCtx(ctx, "On-chain token id differs, allowing for propagation lag",
				zap.String("gift_id", giftID),
				zap.String("expected_token_id", tokenID),
				zap.String("on_chain_token_id", tokenIDString(record)))
			return &tokenMismatchError{record: record}
		}
		return nil
	})

	var mismatch *tokenMismatchError
	if errors.As(err, &mismatch) {
		return &domain.IntegrityError{
			TokenID:         tokenID,
			GiftID:          giftID,
			OnChainTokenID:  tokenIDString(mismatch.record),
			OnChainCreator:  mismatch.record.Creator.Hex(),
			OnChainContract: mismatch.record.NFTContract.Hex(),
			GiftStatus:      mismatch.record.Status,
			Reason:          "token_id_mismatch",
		}
	}
	return err
}

// FindCorrectGiftID scans gift records backward looking for tokenID within
// nftContract
func (v *validator) FindCorrectGiftID(ctx context.Context, tokenID, nftContract string, searchCeiling uint64) (string, error) {
	if searchCeiling == 0 {
		counter, err := v.chain.GiftCounter(ctx)
		if err != nil {
			return "", err
		}
		searchCeiling = counter
	}

	logger.InfoCtx(ctx, "Starting backward gift scan",
		zap.String("token_id", tokenID),
		zap.String("nft_contract", nftContract),
		zap.Uint64("search_ceiling", searchCeiling))

	for giftID := searchCeiling; giftID >= 1; giftID-- {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		record, err := v.chain.GetGift(ctx, giftID)
		if err != nil {
			// one unreadable record must not sink the scan
			logger.WarnCtx(ctx, "Skipping unreadable gift record",
				zap.Uint64("gift_id", giftID),
				zap.Error(err))
			continue
		}
		if record.Creator == (common.Address{}) {
			continue
		}
		if nftContract != "" && !domain.SameAddress(record.NFTContract.Hex(), nftContract) {
			continue
		}
		if tokenIDString(record) == tokenID {
			logger.InfoCtx(ctx, "Backward gift scan found match",
				zap.String("token_id", tokenID),
				zap.Uint64("gift_id", giftID))
			return strconv.FormatUint(giftID, 10), nil
		}
	}

	return "", domain.ErrGiftNotFound
}

func tokenIDString(record *domain.OnChainGiftRecord) string {
	if record.TokenID == nil {
		return ""
	}
	return record.TokenID.String()
}
