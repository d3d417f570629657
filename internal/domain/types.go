package domain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// GiftStatus mirrors the escrow contract's gift status enum
type GiftStatus uint8

const (
	GiftStatusActive   GiftStatus = 0
	GiftStatusClaimed  GiftStatus = 1
	GiftStatusReturned GiftStatus = 2
)

func (s GiftStatus) String() string {
	switch s {
	case GiftStatusActive:
		return "active"
	case GiftStatusClaimed:
		return "claimed"
	case GiftStatusReturned:
		return "returned"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ReceiptStatus is the normalized transaction outcome
type ReceiptStatus string

const (
	ReceiptStatusSuccess  ReceiptStatus = "success"
	ReceiptStatusReverted ReceiptStatus = "reverted"
)

// CanonicalReceipt is the uniform transaction-result shape used by the event
// extractor, regardless of how the transaction was submitted (direct, relayed,
// sponsored)
type CanonicalReceipt struct {
	TransactionHash string        `json:"transaction_hash"`
	BlockNumber     uint64        `json:"block_number"`
	Status          ReceiptStatus `json:"status"`
	GasUsed         uint64        `json:"gas_used"`
	Logs            []types.Log   `json:"logs"`
}

// ParsedRegistrationEvent is the decoded GiftRegistered event. It is the only
// place the chain records the tokenId/giftId pairing.
type ParsedRegistrationEvent struct {
	GiftID       uint64 `json:"gift_id"`
	TokenID      uint64 `json:"token_id"`
	Creator      string `json:"creator"`
	NFTContract  string `json:"nft_contract"`
	ExpiresAt    int64  `json:"expires_at"`
	GiftMessage  string `json:"gift_message"`
	RegisteredBy string `json:"registered_by"`
	TxHash       string `json:"tx_hash"`
	BlockNumber  uint64 `json:"block_number"`
}

// Valid reports whether the decoded event satisfies the registration
// invariants: positive giftId, non-negative tokenId, non-zero addresses and a
// positive expiry.
func (e *ParsedRegistrationEvent) Valid() bool {
	if e.GiftID == 0 {
		return false
	}
	if e.ExpiresAt <= 0 {
		return false
	}
	for _, addr := range []string{e.Creator, e.NFTContract, e.RegisteredBy} {
		if !IsValidAddress(addr) {
			return false
		}
	}
	return true
}

// MappingMetadata carries optional mint-time context persisted alongside a
// mapping
type MappingMetadata struct {
	EducationModules []int     `json:"education_modules,omitempty"`
	Creator          string    `json:"creator,omitempty"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	Salt             string    `json:"salt,omitempty"`
}

// GiftMapping is the persisted tokenId -> giftId record. The chain is always
// the source of truth; this record is a read accelerator only.
type GiftMapping struct {
	SchemaVersion int              `json:"schemaVersion"`
	TokenID       string           `json:"tokenId"`
	GiftID        string           `json:"giftId"`
	NFTContract   string           `json:"nftContract"`
	ChainID       int64            `json:"chainId"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	Metadata      *MappingMetadata `json:"metadata,omitempty"`
}

// GiftSalt is the mint-time password salt, written once and read at claim time
type GiftSalt struct {
	GiftID string `json:"gift_id"`
	Salt   string `json:"salt"`
}

// OnChainGiftRecord is the authoritative gift record read from the escrow
// contract
type OnChainGiftRecord struct {
	GiftID         uint64
	Creator        common.Address
	ExpirationTime *big.Int
	NFTContract    common.Address
	TokenID        *big.Int
	PasswordHash   [32]byte
	Status         GiftStatus
}

// LookupReason explains a mapping lookup outcome
type LookupReason string

const (
	LookupOK                 LookupReason = "ok"
	LookupMissing            LookupReason = "missing"
	LookupLegacyIncompatible LookupReason = "legacyIncompatible"
	LookupInvalidFormat      LookupReason = "invalidFormat"
	LookupStoreError         LookupReason = "storeError"
)

// LookupResult is the tagged result of a forward mapping lookup
type LookupResult struct {
	GiftID string
	Reason LookupReason
	Err    error
}

// MappingEventType classifies reconciliation notifications
type MappingEventType string

const (
	MappingEventDetected      MappingEventType = "detected"
	MappingEventRepaired      MappingEventType = "repaired"
	MappingEventUnrecoverable MappingEventType = "unrecoverable"
)

// MappingEvent is published when the reconciler detects or repairs divergence
// between the cache and the on-chain gift record
type MappingEvent struct {
	EventID         string           `json:"event_id"`
	Type            MappingEventType `json:"type"`
	TokenID         string           `json:"token_id"`
	GiftID          string           `json:"gift_id"`
	ObservedTokenID string           `json:"observed_token_id,omitempty"`
	Reason          string           `json:"reason"`
	Timestamp       time.Time        `json:"timestamp"`
}

// IsValidAddress reports whether s is a well-formed, non-zero 20-byte address
func IsValidAddress(s string) bool {
	if !common.IsHexAddress(s) {
		return false
	}
	return !strings.EqualFold(s, ETHEREUM_ZERO_ADDRESS)
}

// NormalizeAddress lower-cases an address for storage and comparison
func NormalizeAddress(s string) string {
	return strings.ToLower(s)
}

// SameAddress compares two addresses case-insensitively
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// ParseGiftID parses a stored giftId string, enforcing giftId > 0
func ParseGiftID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed gift id %q: %w", s, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("gift id must be positive, got %q", s)
	}
	return id, nil
}
