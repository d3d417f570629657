// Package mapping persists the tokenId -> giftId pairing in Redis. The chain
// remains the source of truth; these keys are a read accelerator, so every
// write carries a TTL and every conflict resolves toward the newer timestamp.
package mapping

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/giftvault/escrow-indexer/internal/adapter"
	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/logger"
)

// StoreRequest describes one mapping write
type StoreRequest struct {
	TokenID     string
	GiftID      string
	NFTContract string
	ChainID     int64

	// UpdatedAt orders concurrent writers; zero means "now"
	UpdatedAt time.Time

	Metadata *domain.MappingMetadata

	// IdempotencyKey suppresses duplicate submissions of the same logical
	// write. Empty disables the check.
	IdempotencyKey string
}

// StoreOutcome reports what a write actually did
type StoreOutcome struct {
	TokenID string
	Written bool

	// Reason is set when Written is false: "duplicate" for an idempotency
	// replay, "stale" for a last-write-wins loss
	Reason string

	Err error
}

const (
	SkipReasonDuplicate = "duplicate"
	SkipReasonStale     = "stale"
)

// Store is the persistence surface for gift mappings and salts
//
//go:generate mockgen -source=store.go -destination=../mocks/mapping.go -package=mocks -mock_names=Store=MockMappingStore
type Store interface {
	// Store writes one forward and one reverse mapping entry. Duplicate and
	// stale writes are skipped, not errors.
	Store(ctx context.Context, req StoreRequest) (*StoreOutcome, error)

	// BatchStore applies several writes, continuing past individual failures
	BatchStore(ctx context.Context, reqs []StoreRequest) []StoreOutcome

	// Lookup resolves tokenID to a giftId. The result is tagged so callers
	// can distinguish a true miss from an unreadable or legacy value.
	Lookup(ctx context.Context, tokenID string) *domain.LookupResult

	// ReverseLookup resolves giftID back to its tokenId, or ErrMappingNotFound
	ReverseLookup(ctx context.Context, giftID string) (string, error)

	// RepairReverse rewrites the reverse entry for giftID. Used when the
	// reverse index is missing or disagrees with a chain-validated forward
	// mapping.
	RepairReverse(ctx context.Context, giftID, tokenID string) error

	// StoreSalt persists the mint-time password salt for giftID
	StoreSalt(ctx context.Context, giftID, salt string) error

	// GetSalt returns the stored salt for giftID, or ErrMappingNotFound
	GetSalt(ctx context.Context, giftID string) (string, error)
}

type store struct {
	redis       adapter.RedisClient
	json        adapter.JSON
	clock       adapter.Clock
	allowLegacy bool
}

// NewStore creates a mapping store. allowLegacyNumeric lets Lookup resolve
// bare-digit values written before the JSON schema existed.
func NewStore(redis adapter.RedisClient, jsonAdapter adapter.JSON, clock adapter.Clock, allowLegacyNumeric bool) Store {
	return &store{
		redis:       redis,
		json:        jsonAdapter,
		clock:       clock,
		allowLegacy: allowLegacyNumeric,
	}
}

// NewIdempotencyKey returns a fresh idempotency token for one logical write
func NewIdempotencyKey() string {
	return uuid.NewString()
}

// Store writes one forward and one reverse mapping entry
func (s *store) Store(ctx context.Context, req StoreRequest) (*StoreOutcome, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = s.clock.Now().UTC()
	}

	if req.IdempotencyKey != "" {
		fresh, err := s.redis.SetNX(ctx, domain.KeyPrefixIdempotency+req.IdempotencyKey, "1", domain.IdempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !fresh {
			logger.InfoCtx(ctx, "Skipping duplicate mapping write",
				zap.String("token_id", req.TokenID),
				zap.String("idempotency_key", req.IdempotencyKey))
			return &StoreOutcome{TokenID: req.TokenID, Reason: SkipReasonDuplicate}, nil
		}
	}

	forwardKey := domain.KeyPrefixGiftMapping + req.TokenID

	// Last write wins on the embedded timestamp. A legacy bare-digit value
	// has no timestamp and always loses to a schema write.
	if existing, err := s.redis.Get(ctx, forwardKey); err == nil {
		var current domain.GiftMapping
		if jsonErr := s.json.Unmarshal([]byte(existing), &current); jsonErr == nil {
			if !current.UpdatedAt.Before(req.UpdatedAt) {
				logger.InfoCtx(ctx, "Skipping stale mapping write",
					zap.String("token_id", req.TokenID),
					zap.Time("stored_at", current.UpdatedAt),
					zap.Time("incoming_at", req.UpdatedAt))
				return &StoreOutcome{TokenID: req.TokenID, Reason: SkipReasonStale}, nil
			}
		}
	} else if err != adapter.ErrKeyNotFound {
		return nil, err
	}

	record := domain.GiftMapping{
		SchemaVersion: domain.MappingSchemaVersion,
		TokenID:       req.TokenID,
		GiftID:        req.GiftID,
		NFTContract:   domain.NormalizeAddress(req.NFTContract),
		ChainID:       req.ChainID,
		UpdatedAt:     req.UpdatedAt,
		Metadata:      req.Metadata,
	}

	payload, err := s.json.Marshal(record)
	if err != nil {
		return nil, err
	}

	if err := s.redis.Set(ctx, forwardKey, string(payload), domain.MappingTTL); err != nil {
		return nil, err
	}
	if err := s.redis.Set(ctx, domain.KeyPrefixReverseMapping+req.GiftID, req.TokenID, domain.MappingTTL); err != nil {
		// forward entry is already live; reconciling the token later rewrites
		// the reverse entry via RepairReverse
		logger.ErrorCtx(ctx, fmt.Errorf("reverse mapping write failed: %w", err),
			zap.String("gift_id", req.GiftID))
		return nil, err
	}

	logger.InfoCtx(ctx, "Stored gift mapping",
		zap.String("token_id", req.TokenID),
		zap.String("gift_id", req.GiftID),
		zap.String("nft_contract", record.NFTContract))

	return &StoreOutcome{TokenID: req.TokenID, Written: true}, nil
}

// BatchStore applies several writes, continuing past individual failures
func (s *store) BatchStore(ctx context.Context, reqs []StoreRequest) []StoreOutcome {
	outcomes := make([]StoreOutcome, 0, len(reqs))
	for _, req := range reqs {
		outcome, err := s.Store(ctx, req)
		if err != nil {
			outcomes = append(outcomes, StoreOutcome{TokenID: req.TokenID, Err: err})
			continue
		}
		outcomes = append(outcomes, *outcome)
	}
	return outcomes
}

// Lookup resolves tokenID to a giftId with a tagged outcome
func (s *store) Lookup(ctx context.Context, tokenID string) *domain.LookupResult {
	raw, err := s.redis.Get(ctx, domain.KeyPrefixGiftMapping+tokenID)
	if err == adapter.ErrKeyNotFound {
		return &domain.LookupResult{Reason: domain.LookupMissing}
	}
	if err != nil {
		return &domain.LookupResult{Reason: domain.LookupStoreError, Err: err}
	}

	var record domain.GiftMapping
	if jsonErr := s.json.Unmarshal([]byte(raw), &record); jsonErr == nil && record.GiftID != "" {
		if _, parseErr := domain.ParseGiftID(record.GiftID); parseErr != nil {
			return &domain.LookupResult{Reason: domain.LookupInvalidFormat, Err: parseErr}
		}
		return &domain.LookupResult{GiftID: record.GiftID, Reason: domain.LookupOK}
	}

	// Pre-schema deployments stored the bare gift id digits
	if isDigits(raw) {
		if s.allowLegacy {
			logger.WarnCtx(ctx, "Resolved legacy numeric mapping value",
				zap.String("token_id", tokenID))
			return &domain.LookupResult{GiftID: raw, Reason: domain.LookupOK}
		}
		return &domain.LookupResult{Reason: domain.LookupLegacyIncompatible, Err: domain.ErrLegacyIncompatible}
	}

	return &domain.LookupResult{Reason: domain.LookupInvalidFormat}
}

// ReverseLookup resolves giftID back to its tokenId
func (s *store) ReverseLookup(ctx context.Context, giftID string) (string, error) {
	tokenID, err := s.redis.Get(ctx, domain.KeyPrefixReverseMapping+giftID)
	if err == adapter.ErrKeyNotFound {
		return "", domain.ErrMappingNotFound
	}
	if err != nil {
		return "", err
	}
	return tokenID, nil
}

// RepairReverse rewrites the reverse entry for giftID
func (s *store) RepairReverse(ctx context.Context, giftID, tokenID string) error {
	if _, err := domain.ParseGiftID(giftID); err != nil {
		return &domain.ValidationError{Field: "giftId", Msg: "must be a positive integer"}
	}
	if _, err := strconv.ParseUint(tokenID, 10, 64); err != nil {
		return &domain.ValidationError{Field: "tokenId", Msg: "must be a non-negative integer"}
	}

	if err := s.redis.Set(ctx, domain.KeyPrefixReverseMapping+giftID, tokenID, domain.MappingTTL); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "Repaired reverse mapping entry",
		zap.String("gift_id", giftID),
		zap.String("token_id", tokenID))
	return nil
}

// StoreSalt persists the mint-time password salt for giftID
func (s *store) StoreSalt(ctx context.Context, giftID, salt string) error {
	if giftID == "" {
		return &domain.ValidationError{Field: "giftId", Msg: "must not be empty"}
	}
	if salt == "" {
		return &domain.ValidationError{Field: "salt", Msg: "must not be empty"}
	}
	return s.redis.Set(ctx, domain.KeyPrefixGiftSalt+giftID, salt, domain.MappingTTL)
}

// GetSalt returns the stored salt for giftID
func (s *store) GetSalt(ctx context.Context, giftID string) (string, error) {
	salt, err := s.redis.Get(ctx, domain.KeyPrefixGiftSalt+giftID)
	if err == adapter.ErrKeyNotFound {
		return "", domain.ErrMappingNotFound
	}
	if err != nil {
		return "", err
	}
	return salt, nil
}

// validateRequest rejects structurally invalid writes before any key is touched
func validateRequest(req *StoreRequest) error {
	if _, err := strconv.ParseUint(req.TokenID, 10, 64); err != nil {
		return &domain.ValidationError{Field: "tokenId", Msg: "must be a non-negative integer"}
	}
	if _, err := domain.ParseGiftID(req.GiftID); err != nil {
		return &domain.ValidationError{Field: "giftId", Msg: "must be a positive integer"}
	}
	if !domain.IsValidAddress(req.NFTContract) {
		return &domain.ValidationError{Field: "nftContract", Msg: "must be a non-zero address"}
	}
	return nil
}

// isDigits reports whether s is one or more ASCII digits
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
