package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoHashFound is returned when no transaction-hash-shaped field exists
	// anywhere in a raw transaction result
	ErrNoHashFound = errors.New("no transaction hash found in transaction result")

	// ErrReceiptNotOnChain is returned when a receipt re-fetch by hash returns
	// nothing (transaction unknown to the node)
	ErrReceiptNotOnChain = errors.New("transaction receipt not found on chain")

	// ErrEventNotFound is returned when no log passes the registration filters
	// after scanning everything available
	ErrEventNotFound = errors.New("registration event not found")

	// ErrRateLimited is returned when the upstream provider throttles us or an
	// internal fallback path exceeds its attempt budget
	ErrRateLimited = errors.New("rate limited")

	// ErrMissingContractAddress indicates the escrow contract address is not
	// configured. Fatal, not retryable.
	ErrMissingContractAddress = errors.New("escrow contract address not configured")

	// ErrLegacyIncompatible is returned when a stored mapping value predates
	// the JSON schema and legacy compatibility is disabled
	ErrLegacyIncompatible = errors.New("stored mapping uses incompatible legacy format")

	// ErrMappingNotFound is returned by reverse lookups with no stored record
	ErrMappingNotFound = errors.New("mapping not found")

	// ErrGiftNotFound is returned when the backward recovery scan exhausts all
	// gift ids without a match
	ErrGiftNotFound = errors.New("no gift record matches the token")
)

// ReceiptValidationError reports a normalized receipt that failed structural
// validation, naming the offending fields.
type ReceiptValidationError struct {
	Fields []string
}

func (e *ReceiptValidationError) Error() string {
	return fmt.Sprintf("receipt validation failed: %s", strings.Join(e.Fields, ", "))
}

// ValidationError reports a structurally invalid store payload. Rejected
// immediately, no retry, no partial write.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// IntegrityError reports an on-chain/cache disagreement that persisted after
// accounting for propagation lag. It is never auto-resolved by trusting the
// cache; it carries the full diagnostic context for the caller.
type IntegrityError struct {
	TokenID         string
	GiftID          string
	OnChainTokenID  string
	OnChainCreator  string
	OnChainContract string
	GiftStatus      GiftStatus
	Reason          string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("mapping integrity failure (%s): tokenId=%s giftId=%s onChainTokenId=%s status=%s creator=%s",
		e.Reason, e.TokenID, e.GiftID, e.OnChainTokenID, e.GiftStatus, e.OnChainCreator)
}
