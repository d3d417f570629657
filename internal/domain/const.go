package domain

import "time"

const (
	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// MappingSchemaVersion is the current schema version for persisted gift mappings
	MappingSchemaVersion = 1

	// LogChunkSize is the maximum block span per eth_getLogs request,
	// imposed by the upstream RPC provider
	LogChunkSize = 500

	// Key prefixes for the mapping store
	KeyPrefixGiftMapping    = "gift_mapping:"
	KeyPrefixReverseMapping = "reverse_mapping:"
	KeyPrefixGiftSalt       = "gift_salt:"
	KeyPrefixIdempotency    = "idempotency:"

	// MappingTTL bounds how long mapping and salt keys live in the cache
	MappingTTL = 2 * 365 * 24 * time.Hour

	// IdempotencyTTL bounds how long an idempotency token suppresses duplicates
	IdempotencyTTL = time.Hour

	// MissCacheTTL bounds how long a confirmed cache miss is remembered locally
	MissCacheTTL = 30 * time.Second
)
