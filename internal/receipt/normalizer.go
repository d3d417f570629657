// Package receipt canonicalizes transaction results. Registration
// transactions reach us in several shapes depending on how they were
// submitted: a plain receipt, a meta-transaction wrapper with the real receipt
// nested inside, a sponsored-transaction wrapper exposing only a result
// object, or a bare hash. The extractor downstream only ever sees the
// canonical shape.
package receipt

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/giftvault/escrow-indexer/internal/adapter"
	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/logger"
	"github.com/giftvault/escrow-indexer/internal/providers/escrow"
)

var txHashPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// hashOnlyFields are probed in order when an input carries no usable logs
var hashOnlyFields = []string{"hash", "txHash", "transactionId", "id"}

// Normalizer turns any transaction-result shape into one canonical receipt
//
//go:generate mockgen -source=normalizer.go -destination=../mocks/normalizer.go -package=mocks -mock_names=Normalizer=MockNormalizer
type Normalizer interface {
	// Normalize canonicalizes raw, re-fetching the receipt from the chain when
	// the input carries a hash but no complete log list
	Normalize(ctx context.Context, raw any) (*domain.CanonicalReceipt, error)
}

type normalizer struct {
	chain escrow.Client
	json  adapter.JSON
}

// NewNormalizer creates a receipt normalizer backed by the given chain client
func NewNormalizer(chain escrow.Client, jsonAdapter adapter.JSON) Normalizer {
	return &normalizer{chain: chain, json: jsonAdapter}
}

// shapeKind tags the recognized transaction-result variants
type shapeKind string

const (
	shapeDirectReceipt  shapeKind = "direct_receipt"
	shapeWrappedReceipt shapeKind = "wrapped_receipt"
	shapeResultWrapped  shapeKind = "result_wrapped"
	shapeHashOnly       shapeKind = "hash_only"
)

// shapeMatcher pairs a recognizer predicate with an extractor. Matchers are
// tried in priority order; the first recognizer that fires wins.
type shapeMatcher struct {
	kind      shapeKind
	recognize func(m map[string]any) bool
	// extract returns the real transaction hash and, when the shape carries
	// one, the object to read receipt fields from directly
	extract func(m map[string]any) (txHash string, body map[string]any)
}

var shapeMatchers = []shapeMatcher{
	{
		kind: shapeDirectReceipt,
		recognize: func(m map[string]any) bool {
			return isTxHash(m["transactionHash"]) && hasLogsArray(m)
		},
		extract: func(m map[string]any) (string, map[string]any) {
			return m["transactionHash"].(string), m
		},
	},
	{
		kind: shapeWrappedReceipt,
		recognize: func(m map[string]any) bool {
			inner, ok := m["receipt"].(map[string]any)
			return ok && isTxHash(inner["transactionHash"])
		},
		extract: func(m map[string]any) (string, map[string]any) {
			inner := m["receipt"].(map[string]any)
			return inner["transactionHash"].(string), inner
		},
	},
	{
		kind: shapeResultWrapped,
		recognize: func(m map[string]any) bool {
			inner, ok := m["result"].(map[string]any)
			return ok && isTxHash(inner["transactionHash"])
		},
		extract: func(m map[string]any) (string, map[string]any) {
			inner := m["result"].(map[string]any)
			return inner["transactionHash"].(string), inner
		},
	},
	{
		kind: shapeHashOnly,
		recognize: func(m map[string]any) bool {
			for _, field := range hashOnlyFields {
				if isTxHash(m[field]) {
					return true
				}
			}
			// transactionHash without logs also degrades to hash-only
			return isTxHash(m["transactionHash"])
		},
		extract: func(m map[string]any) (string, map[string]any) {
			if isTxHash(m["transactionHash"]) {
				return m["transactionHash"].(string), nil
			}
			for _, field := range hashOnlyFields {
				if isTxHash(m[field]) {
					return m[field].(string), nil
				}
			}
			return "", nil
		},
	},
}

// Normalize canonicalizes raw, re-fetching from the chain when necessary
func (n *normalizer) Normalize(ctx context.Context, raw any) (*domain.CanonicalReceipt, error) {
	m, err := n.toMap(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction result: %w", err)
	}

	for _, matcher := range shapeMatchers {
		if !matcher.recognize(m) {
			continue
		}

		txHash, body := matcher.extract(m)
		logger.DebugCtx(ctx, "Recognized transaction result shape",
			zap.String("shape", string(matcher.kind)),
			zap.String("tx_hash", txHash))

		if body != nil && hasLogsArray(body) {
			if canonical, err := buildFromMap(txHash, body); err == nil {
				if verr := Validate(canonical); verr != nil {
					return nil, verr
				}
				return canonical, nil
			} else {
				logger.WarnCtx(ctx, "Receipt body unusable, re-fetching from chain",
					zap.String("tx_hash", txHash),
					zap.Error(err))
			}
		}

		return n.refetch(ctx, txHash)
	}

	return nil, domain.ErrNoHashFound
}

// refetch pulls the full receipt from the chain by hash
func (n *normalizer) refetch(ctx context.Context, txHash string) (*domain.CanonicalReceipt, error) {
	receipt, err := n.chain.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	canonical := FromChainReceipt(receipt)
	if err := Validate(canonical); err != nil {
		return nil, err
	}
	return canonical, nil
}

// Validate checks a canonical receipt's structure before it reaches the
// extractor. A receipt for a pending transaction, for example, carries block
// number zero and must not be scanned. All offending fields are collected so
// the error names the full damage at once.
func Validate(r *domain.CanonicalReceipt) error {
	if r == nil {
		return &domain.ReceiptValidationError{Fields: []string{"receipt"}}
	}

	var fields []string
	if !txHashPattern.MatchString(r.TransactionHash) {
		fields = append(fields, "transactionHash")
	}
	if r.BlockNumber == 0 {
		fields = append(fields, "blockNumber")
	}
	if r.Status != domain.ReceiptStatusSuccess && r.Status != domain.ReceiptStatusReverted {
		fields = append(fields, "status")
	}
	if r.Logs == nil {
		fields = append(fields, "logs")
	}
	for i, l := range r.Logs {
		if l.Topics == nil {
			fields = append(fields, fmt.Sprintf("logs[%d].topics", i))
		}
		if l.Data == nil {
			fields = append(fields, fmt.Sprintf("logs[%d].data", i))
		}
	}
	if len(fields) > 0 {
		return &domain.ReceiptValidationError{Fields: fields}
	}
	return nil
}

// toMap converts any loosely-typed input to a string-keyed map via a JSON
// round trip
func (n *normalizer) toMap(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case []byte:
		var m map[string]any
		if err := n.json.Unmarshal(v, &m); err != nil {
			return nil, err
		}
		return m, nil
	default:
		data, err := n.json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		var m map[string]any
		if err := n.json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil
	}
}

// FromChainReceipt converts a node receipt into the canonical shape
func FromChainReceipt(r *types.Receipt) *domain.CanonicalReceipt {
	status := domain.ReceiptStatusReverted
	if r.Status == types.ReceiptStatusSuccessful {
		status = domain.ReceiptStatusSuccess
	}

	logs := make([]types.Log, 0, len(r.Logs))
	for _, l := range r.Logs {
		logs = append(logs, *l)
	}

	var blockNumber uint64
	if r.BlockNumber != nil {
		blockNumber = r.BlockNumber.Uint64()
	}

	return &domain.CanonicalReceipt{
		TransactionHash: r.TxHash.Hex(),
		BlockNumber:     blockNumber,
		Status:          status,
		GasUsed:         r.GasUsed,
		Logs:            logs,
	}
}

// buildFromMap converts a loosely-typed receipt object into the canonical
// shape. Any structural surprise aborts the conversion so the caller can fall
// back to a chain re-fetch.
func buildFromMap(txHash string, m map[string]any) (*domain.CanonicalReceipt, error) {
	rawLogs, ok := m["logs"].([]any)
	if !ok {
		return nil, fmt.Errorf("logs is not an array")
	}

	blockNumber, err := parseUintField(m["blockNumber"])
	if err != nil {
		return nil, fmt.Errorf("malformed blockNumber: %w", err)
	}

	status, err := parseStatusField(m["status"])
	if err != nil {
		return nil, err
	}

	gasUsed, err := parseUintField(m["gasUsed"])
	if err != nil {
		// gasUsed is informational; wrappers often omit it
		gasUsed = 0
	}

	logs := make([]types.Log, 0, len(rawLogs))
	for i, rawLog := range rawLogs {
		logMap, ok := rawLog.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("log %d is not an object", i)
		}

		parsed, err := parseLog(logMap, txHash, blockNumber)
		if err != nil {
			return nil, fmt.Errorf("log %d: %w", i, err)
		}
		logs = append(logs, parsed)
	}

	return &domain.CanonicalReceipt{
		TransactionHash: txHash,
		BlockNumber:     blockNumber,
		Status:          status,
		GasUsed:         gasUsed,
		Logs:            logs,
	}, nil
}

// parseLog converts one loosely-typed log entry
func parseLog(m map[string]any, txHash string, blockNumber uint64) (types.Log, error) {
	rawTopics, ok := m["topics"].([]any)
	if !ok {
		return types.Log{}, fmt.Errorf("topics is not an array")
	}

	topics := make([]common.Hash, 0, len(rawTopics))
	for _, rawTopic := range rawTopics {
		topicStr, ok := rawTopic.(string)
		if !ok || !txHashPattern.MatchString(topicStr) {
			return types.Log{}, fmt.Errorf("malformed topic %v", rawTopic)
		}
		topics = append(topics, common.HexToHash(topicStr))
	}

	dataStr, ok := m["data"].(string)
	if !ok {
		return types.Log{}, fmt.Errorf("data is not a string")
	}
	data, err := hexutil.Decode(dataStr)
	if err != nil {
		return types.Log{}, fmt.Errorf("malformed data: %w", err)
	}

	addressStr, _ := m["address"].(string)
	if !common.IsHexAddress(addressStr) {
		return types.Log{}, fmt.Errorf("malformed address %q", addressStr)
	}

	logBlockNumber := blockNumber
	if bn, err := parseUintField(m["blockNumber"]); err == nil && bn > 0 {
		logBlockNumber = bn
	}

	return types.Log{
		Address:     common.HexToAddress(addressStr),
		Topics:      topics,
		Data:        data,
		BlockNumber: logBlockNumber,
		TxHash:      common.HexToHash(txHash),
	}, nil
}

// parseUintField accepts JSON numbers, decimal strings and 0x-hex strings
func parseUintField(v any) (uint64, error) {
	switch val := v.(type) {
	case float64:
		if val < 0 {
			return 0, fmt.Errorf("negative value %v", val)
		}
		return uint64(val), nil
	case string:
		if val == "" {
			return 0, fmt.Errorf("empty value")
		}
		if len(val) > 2 && val[0:2] == "0x" {
			n, err := hexutil.DecodeUint64(val)
			if err != nil {
				return 0, err
			}
			return n, nil
		}
		var n uint64
		if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
			return 0, err
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// parseStatusField accepts the common receipt status encodings
func parseStatusField(v any) (domain.ReceiptStatus, error) {
	switch val := v.(type) {
	case float64:
		if val == 1 {
			return domain.ReceiptStatusSuccess, nil
		}
		return domain.ReceiptStatusReverted, nil
	case string:
		switch val {
		case "0x1", "1", "success":
			return domain.ReceiptStatusSuccess, nil
		case "0x0", "0", "reverted":
			return domain.ReceiptStatusReverted, nil
		}
		return "", fmt.Errorf("unknown status %q", val)
	case bool:
		if val {
			return domain.ReceiptStatusSuccess, nil
		}
		return domain.ReceiptStatusReverted, nil
	default:
		return "", fmt.Errorf("unsupported status type %T", v)
	}
}

// isTxHash reports whether v is a 32-byte hex transaction hash
func isTxHash(v any) bool {
	s, ok := v.(string)
	return ok && txHashPattern.MatchString(s)
}

// hasLogsArray reports whether the object carries a usable logs array
func hasLogsArray(m map[string]any) bool {
	_, ok := m["logs"].([]any)
	return ok
}
