package receipt_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/giftvault/escrow-indexer/internal/adapter"
	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/logger"
	"github.com/giftvault/escrow-indexer/internal/mocks"
	"github.com/giftvault/escrow-indexer/internal/receipt"
)

func TestMain(m *testing.M) {
	logger.Initialize(logger.Config{Debug: true})
	m.Run()
}

const (
	testTxHash   = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testTopic    = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	testContract = "0x1111111111111111111111111111111111111111"
)

func directReceiptInput() map[string]any {
	return map[string]any{
		"transactionHash": testTxHash,
		"blockNumber":     float64(1200),
		"status":          "0x1",
		"gasUsed":         float64(21000),
		"logs": []any{
			map[string]any{
				"address": testContract,
				"topics":  []any{testTopic},
				"data":    "0x00",
			},
		},
	}
}

func TestNormalize_DirectReceipt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chain := mocks.NewMockEscrowClient(ctrl)
	n := receipt.NewNormalizer(chain, &adapter.RealJSON{})

	canonical, err := n.Normalize(context.Background(), directReceiptInput())
	assert.NoError(t, err)
	assert.Equal(t, testTxHash, canonical.TransactionHash)
	assert.Equal(t, uint64(1200), canonical.BlockNumber)
	assert.Equal(t, domain.ReceiptStatusSuccess, canonical.Status)
	assert.Len(t, canonical.Logs, 1)
	assert.Equal(t, common.HexToAddress(testContract), canonical.Logs[0].Address)
}

func TestNormalize_WrappedReceipt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chain := mocks.NewMockEscrowClient(ctrl)
	n := receipt.NewNormalizer(chain, &adapter.RealJSON{})

	input := map[string]any{
		"relayId": "meta-tx-123",
		"receipt": directReceiptInput(),
	}

	canonical, err := n.Normalize(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, testTxHash, canonical.TransactionHash)
	assert.Len(t, canonical.Logs, 1)
}

func TestNormalize_ResultWrapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chain := mocks.NewMockEscrowClient(ctrl)
	n := receipt.NewNormalizer(chain, &adapter.RealJSON{})

	input := map[string]any{
		"result": directReceiptInput(),
	}

	canonical, err := n.Normalize(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, testTxHash, canonical.TransactionHash)
}

func TestNormalize_HashOnlyRefetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chainReceipt := &types.Receipt{
		TxHash:      common.HexToHash(testTxHash),
		BlockNumber: big.NewInt(1200),
		Status:      types.ReceiptStatusSuccessful,
		GasUsed:     21000,
		Logs: []*types.Log{
			{
				Address:     common.HexToAddress(testContract),
				Topics:      []common.Hash{common.HexToHash(testTopic)},
				Data:        []byte{0x00},
				BlockNumber: 1200,
				TxHash:      common.HexToHash(testTxHash),
			},
		},
	}

	chain := mocks.NewMockEscrowClient(ctrl)
	chain.EXPECT().TransactionReceipt(gomock.Any(), testTxHash).Return(chainReceipt, nil).Times(4)

	n := receipt.NewNormalizer(chain, &adapter.RealJSON{})

	for _, field := range []string{"hash", "txHash", "transactionId", "id"} {
		t.Run(field, func(t *testing.T) {
			canonical, err := n.Normalize(context.Background(), map[string]any{field: testTxHash})
			assert.NoError(t, err)
			assert.Equal(t, testTxHash, canonical.TransactionHash)
			assert.Equal(t, uint64(1200), canonical.BlockNumber)
			assert.Equal(t, domain.ReceiptStatusSuccess, canonical.Status)
			assert.Len(t, canonical.Logs, 1)
		})
	}
}

func TestNormalize_HashWithoutLogsRefetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chainReceipt := &types.Receipt{
		TxHash:      common.HexToHash(testTxHash),
		BlockNumber: big.NewInt(1200),
		Status:      types.ReceiptStatusFailed,
	}

	chain := mocks.NewMockEscrowClient(ctrl)
	chain.EXPECT().TransactionReceipt(gomock.Any(), testTxHash).Return(chainReceipt, nil)

	n := receipt.NewNormalizer(chain, &adapter.RealJSON{})

	canonical, err := n.Normalize(context.Background(), map[string]any{
		"transactionHash": testTxHash,
		"status":          "0x0",
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.ReceiptStatusReverted, canonical.Status)
	assert.Empty(t, canonical.Logs)
}

func TestNormalize_MalformedBodyFallsBackToRefetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chainReceipt := &types.Receipt{
		TxHash:      common.HexToHash(testTxHash),
		BlockNumber: big.NewInt(1200),
		Status:      types.ReceiptStatusSuccessful,
	}

	chain := mocks.NewMockEscrowClient(ctrl)
	chain.EXPECT().TransactionReceipt(gomock.Any(), testTxHash).Return(chainReceipt, nil)

	n := receipt.NewNormalizer(chain, &adapter.RealJSON{})

	input := directReceiptInput()
	input["logs"] = []any{"not-an-object"}

	canonical, err := n.Normalize(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, testTxHash, canonical.TransactionHash)
}

func TestNormalize_PendingReceiptFailsValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// a pending transaction's receipt has no block number yet
	chainReceipt := &types.Receipt{
		TxHash: common.HexToHash(testTxHash),
		Status: types.ReceiptStatusSuccessful,
	}

	chain := mocks.NewMockEscrowClient(ctrl)
	chain.EXPECT().TransactionReceipt(gomock.Any(), testTxHash).Return(chainReceipt, nil)

	n := receipt.NewNormalizer(chain, &adapter.RealJSON{})

	_, err := n.Normalize(context.Background(), map[string]any{"hash": testTxHash})
	var vErr *domain.ReceiptValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "blockNumber")
}

func TestNormalize_ZeroBlockBodyFailsValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chain := mocks.NewMockEscrowClient(ctrl)
	n := receipt.NewNormalizer(chain, &adapter.RealJSON{})

	input := directReceiptInput()
	input["blockNumber"] = float64(0)

	_, err := n.Normalize(context.Background(), input)
	var vErr *domain.ReceiptValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "blockNumber")
}

func TestValidate_CollectsAllOffendingFields(t *testing.T) {
	err := receipt.Validate(&domain.CanonicalReceipt{
		TransactionHash: "0x123",
		BlockNumber:     0,
		Status:          "pending",
		Logs: []types.Log{
			{Data: []byte{}},
		},
	})
	var vErr *domain.ReceiptValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"transactionHash", "blockNumber", "status", "logs[0].topics"}, vErr.Fields)

	assert.NoError(t, receipt.Validate(&domain.CanonicalReceipt{
		TransactionHash: testTxHash,
		BlockNumber:     1200,
		Status:          domain.ReceiptStatusSuccess,
		Logs:            []types.Log{},
	}))

	err = receipt.Validate(nil)
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"receipt"}, vErr.Fields)
}

func TestNormalize_NoHashFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chain := mocks.NewMockEscrowClient(ctrl)
	n := receipt.NewNormalizer(chain, &adapter.RealJSON{})

	cases := []map[string]any{
		{},
		{"hash": "0x123"},
		{"transactionHash": 42},
		{"id": "not-a-hash"},
	}

	for _, input := range cases {
		_, err := n.Normalize(context.Background(), input)
		assert.ErrorIs(t, err, domain.ErrNoHashFound)
	}
}

func TestNormalize_ReceiptNotOnChain(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chain := mocks.NewMockEscrowClient(ctrl)
	chain.EXPECT().
		TransactionReceipt(gomock.Any(), testTxHash).
		Return(nil, domain.ErrReceiptNotOnChain)

	n := receipt.NewNormalizer(chain, &adapter.RealJSON{})

	_, err := n.Normalize(context.Background(), map[string]any{"hash": testTxHash})
	assert.ErrorIs(t, err, domain.ErrReceiptNotOnChain)
}

func TestNormalize_StructInputRoundTrips(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chainReceipt := &types.Receipt{
		TxHash:      common.HexToHash(testTxHash),
		BlockNumber: big.NewInt(55),
		Status:      types.ReceiptStatusSuccessful,
	}

	chain := mocks.NewMockEscrowClient(ctrl)
	chain.EXPECT().TransactionReceipt(gomock.Any(), testTxHash).Return(chainReceipt, nil)

	n := receipt.NewNormalizer(chain, &adapter.RealJSON{})

	input := struct {
		TxHash string `json:"txHash"`
	}{TxHash: testTxHash}

	canonical, err := n.Normalize(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, uint64(55), canonical.BlockNumber)
}
