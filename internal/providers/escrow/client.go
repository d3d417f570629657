package escrow

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/giftvault/escrow-indexer/internal/adapter"
	"github.com/giftvault/escrow-indexer/internal/domain"
)

// escrowABIJSON covers the read surface this subsystem consumes: the gift
// record getter, the gift counter and the registration event.
const escrowABIJSON = `[
{"constant":true,"inputs":[{"name":"giftId","type":"uint256"}],"name":"getGift","outputs":[{"name":"creator","type":"address"},{"name":"expirationTime","type":"uint256"},{"name":"nftContract","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"passwordHash","type":"bytes32"},{"name":"status","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"},
{"constant":true,"inputs":[],"name":"giftCounter","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
{"anonymous":false,"inputs":[{"indexed":true,"name":"giftId","type":"uint256"},{"indexed":true,"name":"creator","type":"address"},{"indexed":true,"name":"nftContract","type":"address"},{"indexed":false,"name":"tokenId","type":"uint256"},{"indexed":false,"name":"expiresAt","type":"uint256"},{"indexed":false,"name":"gate","type":"uint8"},{"indexed":false,"name":"giftMessage","type":"string"},{"indexed":false,"name":"registeredBy","type":"address"}],"name":"GiftRegistered","type":"event"}
]`

// Client is the read-only surface of the escrow contract. The chain is always
// the source of truth for gift records.
//
//go:generate mockgen -source=client.go -destination=../../mocks/escrow.go -package=mocks -mock_names=Client=MockEscrowClient
type Client interface {
	// Address returns the configured escrow contract address
	Address() string

	// GetGift reads the authoritative gift record for giftID
	GetGift(ctx context.Context, giftID uint64) (*domain.OnChainGiftRecord, error)

	// GiftCounter returns the contract's current gift counter
	GiftCounter(ctx context.Context) (uint64, error)

	// TransactionReceipt fetches a full receipt by transaction hash.
	// Returns domain.ErrReceiptNotOnChain when the node does not know the hash.
	TransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error)

	// FilterRegistrationLogs queries GiftRegistered logs emitted by the escrow
	// contract in [fromBlock, toBlock], both inclusive
	FilterRegistrationLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error)

	// DecodeRegistrationLog decodes a single log against the GiftRegistered
	// signature. Non-matching logs return an error and must be skipped.
	DecodeRegistrationLog(vLog types.Log) (*domain.ParsedRegistrationEvent, error)

	// LatestBlock returns the current head block number
	LatestBlock(ctx context.Context) (uint64, error)

	// Close closes the connection
	Close()
}

type client struct {
	contractAddr common.Address
	addrHex      string
	eth          adapter.EthClient
	abi          abi.ABI
	eventTopic   common.Hash
	callTimeout  time.Duration
}

// NewClient creates an escrow contract reader bound to one contract address
func NewClient(contractAddress string, eth adapter.EthClient, callTimeout time.Duration) (Client, error) {
	if contractAddress == "" {
		return nil, domain.ErrMissingContractAddress
	}
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("malformed escrow contract address %q", contractAddress)
	}

	parsed, err := abi.JSON(strings.NewReader(escrowABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse escrow ABI: %w", err)
	}

	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}

	return &client{
		contractAddr: common.HexToAddress(contractAddress),
		addrHex:      domain.NormalizeAddress(contractAddress),
		eth:          eth,
		abi:          parsed,
		eventTopic:   parsed.Events["GiftRegistered"].ID,
		callTimeout:  callTimeout,
	}, nil
}

// Address returns the configured escrow contract address
func (c *client) Address() string {
	return c.addrHex
}

// GetGift reads the authoritative gift record for giftID
func (c *client) GetGift(ctx context.Context, giftID uint64) (*domain.OnChainGiftRecord, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	data, err := c.abi.Pack("getGift", new(big.Int).SetUint64(giftID))
	if err != nil {
		return nil, fmt.Errorf("failed to pack getGift call: %w", err)
	}

	result, err := c.eth.CallContract(callCtx, ethereum.CallMsg{
		To:   &c.contractAddr,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("getGift(%d) call failed: %w", giftID, err)
	}

	out, err := c.abi.Unpack("getGift", result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getGift(%d) result: %w", giftID, err)
	}
	if len(out) != 6 {
		return nil, fmt.Errorf("unexpected getGift output arity: %d", len(out))
	}

	record := &domain.OnChainGiftRecord{
		GiftID:         giftID,
		Creator:        out[0].(common.Address),
		ExpirationTime: out[1].(*big.Int),
		NFTContract:    out[2].(common.Address),
		TokenID:        out[3].(*big.Int),
		PasswordHash:   out[4].([32]byte),
		Status:         domain.GiftStatus(out[5].(uint8)),
	}
	return record, nil
}

// GiftCounter returns the contract's current gift counter
func (c *client) GiftCounter(ctx context.Context) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	data, err := c.abi.Pack("giftCounter")
	if err != nil {
		return 0, fmt.Errorf("failed to pack giftCounter call: %w", err)
	}

	result, err := c.eth.CallContract(callCtx, ethereum.CallMsg{
		To:   &c.contractAddr,
		Data: data,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("giftCounter call failed: %w", err)
	}

	var counter *big.Int
	if err := c.abi.UnpackIntoInterface(&counter, "giftCounter", result); err != nil {
		return 0, fmt.Errorf("failed to unpack giftCounter result: %w", err)
	}

	return counter.Uint64(), nil
}

// TransactionReceipt fetches a full receipt by transaction hash
func (c *client) TransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	receipt, err := c.eth.TransactionReceipt(callCtx, common.HexToHash(txHash))
	if err != nil {
		if isNotFoundError(err) {
			return nil, domain.ErrReceiptNotOnChain
		}
		return nil, fmt.Errorf("failed to fetch receipt %s: %w", txHash, err)
	}
	if receipt == nil {
		return nil, domain.ErrReceiptNotOnChain
	}
	return receipt, nil
}

// FilterRegistrationLogs queries GiftRegistered logs in [fromBlock, toBlock]
func (c *client) FilterRegistrationLogs(ctx context.Context, fromBlock, toBlock uint64) ([]types.Log, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.contractAddr},
		Topics:    [][]common.Hash{{c.eventTopic}},
	}

	return c.eth.FilterLogs(callCtx, query)
}

// DecodeRegistrationLog decodes a single log against the GiftRegistered signature
func (c *client) DecodeRegistrationLog(vLog types.Log) (*domain.ParsedRegistrationEvent, error) {
	if len(vLog.Topics) != 4 {
		return nil, fmt.Errorf("not a GiftRegistered log: expected 4 topics, got %d", len(vLog.Topics))
	}
	if vLog.Topics[0] != c.eventTopic {
		return nil, fmt.Errorf("not a GiftRegistered log: topic %s", vLog.Topics[0].Hex())
	}

	out, err := c.abi.Unpack("GiftRegistered", vLog.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack GiftRegistered data: %w", err)
	}
	if len(out) != 5 {
		return nil, fmt.Errorf("unexpected GiftRegistered data arity: %d", len(out))
	}

	tokenID := out[0].(*big.Int)
	expiresAt := out[1].(*big.Int)
	giftMessage := out[3].(string)
	registeredBy := out[4].(common.Address)

	event := &domain.ParsedRegistrationEvent{
		GiftID:       new(big.Int).SetBytes(vLog.Topics[1].Bytes()).Uint64(),
		TokenID:      tokenID.Uint64(),
		Creator:      common.BytesToAddress(vLog.Topics[2].Bytes()).Hex(),
		NFTContract:  common.BytesToAddress(vLog.Topics[3].Bytes()).Hex(),
		ExpiresAt:    expiresAt.Int64(),
		GiftMessage:  giftMessage,
		RegisteredBy: registeredBy.Hex(),
		TxHash:       vLog.TxHash.Hex(),
		BlockNumber:  vLog.BlockNumber,
	}
	return event, nil
}

// LatestBlock returns the current head block number
func (c *client) LatestBlock(ctx context.Context) (uint64, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	header, err := c.eth.HeaderByNumber(callCtx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest header: %w", err)
	}
	return header.Number.Uint64(), nil
}

// Close closes the connection
func (c *client) Close() {
	c.eth.Close()
}

// EventTopic exposes the GiftRegistered topic hash for query building
func EventTopic() (common.Hash, error) {
	parsed, err := abi.JSON(strings.NewReader(escrowABIJSON))
	if err != nil {
		return common.Hash{}, err
	}
	return parsed.Events["GiftRegistered"].ID, nil
}

// isNotFoundError checks if the error indicates an unknown transaction
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ethereum.NotFound) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "unknown transaction")
}

// IsRateLimitError checks if the error indicates provider throttling
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "exceeded maximum")
}
