package extractor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/extractor"
	"github.com/giftvault/escrow-indexer/internal/logger"
	"github.com/giftvault/escrow-indexer/internal/mocks"
)

func TestMain(m *testing.M) {
	logger.Initialize(logger.Config{Debug: true})
	m.Run()
}

const (
	escrowAddr  = "0x1111111111111111111111111111111111111111"
	nftAddr     = "0x2222222222222222222222222222222222222222"
	creatorAddr = "0x3333333333333333333333333333333333333333"
	otherAddr   = "0x4444444444444444444444444444444444444444"
	txHash      = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func escrowLog(block uint64) types.Log {
	return types.Log{
		Address:     common.HexToAddress(escrowAddr),
		Topics:      []common.Hash{common.HexToHash("0x01")},
		BlockNumber: block,
		TxHash:      common.HexToHash(txHash),
	}
}

func registrationEvent(giftID, tokenID uint64) *domain.ParsedRegistrationEvent {
	return &domain.ParsedRegistrationEvent{
		GiftID:       giftID,
		TokenID:      tokenID,
		Creator:      creatorAddr,
		NFTContract:  nftAddr,
		ExpiresAt:    1700000000,
		RegisteredBy: creatorAddr,
		TxHash:       txHash,
		BlockNumber:  1200,
	}
}

func uint64Ptr(v uint64) *uint64 { return &v }

func TestExtract_FromReceiptLogs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vLog := escrowLog(1200)
	chain := mocks.NewMockEscrowClient(ctrl)
	chain.EXPECT().Address().Return(escrowAddr).AnyTimes()
	chain.EXPECT().DecodeRegistrationLog(vLog).Return(registrationEvent(7, 42), nil)

	clock := mocks.NewMockClock(ctrl)
	x := extractor.NewExtractor(chain, clock, 0)

	receipt := &domain.CanonicalReceipt{
		TransactionHash: txHash,
		BlockNumber:     1200,
		Status:          domain.ReceiptStatusSuccess,
		Logs:            []types.Log{vLog},
	}

	event, err := x.Extract(context.Background(), receipt, extractor.Options{
		ExpectedTokenID:     uint64Ptr(42),
		ExpectedNFTContract: nftAddr,
	})
	assert.NoError(t, err)
	assert.Equal(t, uint64(7), event.GiftID)
	assert.Equal(t, uint64(42), event.TokenID)
}

func TestExtract_IgnoresForeignContractLogs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	foreignLog := types.Log{Address: common.HexToAddress(otherAddr), BlockNumber: 1200}

	chain := mocks.NewMockEscrowClient(ctrl)
	chain.EXPECT().Address().Return(escrowAddr).AnyTimes()
	// foreign log never reaches the decoder; the fallback block query runs
	chain.EXPECT().FilterRegistrationLogs(gomock.Any(), uint64(1200), uint64(1200)).Return(nil, nil)

	clock := mocks.NewMockClock(ctrl)
	x := extractor.NewExtractor(chain, clock, 0)

	receipt := &domain.CanonicalReceipt{
		TransactionHash: txHash,
		BlockNumber:     1200,
		Status:          domain.ReceiptStatusSuccess,
		Logs:            []types.Log{foreignLog},
	}

	_, err := x.Extract(context.Background(), receipt, extractor.Options{})
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestExtract_FilterRejections(t *testing.T) {
	cases := []struct {
		name  string
		event *domain.ParsedRegistrationEvent
		opts  extractor.Options
	}{
		{
			name:  "token id mismatch",
			event: registrationEvent(7, 42),
			opts:  extractor.Options{ExpectedTokenID: uint64Ptr(99)},
		},
		{
			name:  "nft contract mismatch",
			event: registrationEvent(7, 42),
			opts:  extractor.Options{ExpectedNFTContract: otherAddr},
		},
		{
			name:  "zero gift id",
			event: registrationEvent(0, 42),
		},
		{
			name: "zero creator address",
			event: &domain.ParsedRegistrationEvent{
				GiftID:      7,
				TokenID:     42,
				Creator:     domain.ETHEREUM_ZERO_ADDRESS,
				NFTContract: nftAddr,
				TxHash:      txHash,
			},
		},
		{
			name: "malformed nft contract",
			event: &domain.ParsedRegistrationEvent{
				GiftID:      7,
				TokenID:     42,
				Creator:     creatorAddr,
				NFTContract: "0xnot-an-address",
				TxHash:      txHash,
			},
		},
		{
			name: "zero registered by address",
			event: &domain.ParsedRegistrationEvent{
				GiftID:       7,
				TokenID:      42,
				Creator:      creatorAddr,
				NFTContract:  nftAddr,
				RegisteredBy: domain.ETHEREUM_ZERO_ADDRESS,
				TxHash:       txHash,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			vLog := escrowLog(1200)
			chain := mocks.NewMockEscrowClient(ctrl)
			chain.EXPECT().Address().Return(escrowAddr).AnyTimes()
			chain.EXPECT().DecodeRegistrationLog(vLog).Return(tc.event, nil)
			chain.EXPECT().FilterRegistrationLogs(gomock.Any(), uint64(1200), uint64(1200)).Return(nil, nil)

			clock := mocks.NewMockClock(ctrl)
			x := extractor.NewExtractor(chain, clock, 0)

			receipt := &domain.CanonicalReceipt{
				TransactionHash: txHash,
				BlockNumber:     1200,
				Status:          domain.ReceiptStatusSuccess,
				Logs:            []types.Log{vLog},
			}

			_, err := x.Extract(context.Background(), receipt, tc.opts)
			assert.ErrorIs(t, err, domain.ErrEventNotFound)
		})
	}
}

func TestExtract_SingleBlockFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vLog := escrowLog(1200)
	chain := mocks.NewMockEscrowClient(ctrl)
	chain.EXPECT().Address().Return(escrowAddr).AnyTimes()
	chain.EXPECT().FilterRegistrationLogs(gomock.Any(), uint64(1200), uint64(1200)).Return([]types.Log{vLog}, nil)
	chain.EXPECT().DecodeRegistrationLog(vLog).Return(registrationEvent(7, 42), nil)

	clock := mocks.NewMockClock(ctrl)
	x := extractor.NewExtractor(chain, clock, 0)

	receipt := &domain.CanonicalReceipt{
		TransactionHash: txHash,
		BlockNumber:     1200,
		Status:          domain.ReceiptStatusSuccess,
	}

	event, err := x.Extract(context.Background(), receipt, extractor.Options{})
	assert.NoError(t, err)
	assert.Equal(t, uint64(7), event.GiftID)
}

func TestExtract_RangeScanChunks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vLog := escrowLog(1150)
	chain := mocks.NewMockEscrowClient(ctrl)
	chain.EXPECT().Address().Return(escrowAddr).AnyTimes()

	// 1200 blocks split into exactly three chunks of at most 500
	gomock.InOrder(
		chain.EXPECT().FilterRegistrationLogs(gomock.Any(), uint64(100), uint64(599)).Return(nil, nil),
		chain.EXPECT().FilterRegistrationLogs(gomock.Any(), uint64(600), uint64(1099)).Return(nil, nil),
		chain.EXPECT().FilterRegistrationLogs(gomock.Any(), uint64(1100), uint64(1299)).Return([]types.Log{vLog}, nil),
	)
	chain.EXPECT().DecodeRegistrationLog(vLog).Return(registrationEvent(7, 42), nil)

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Sleep(250 * time.Millisecond).Times(2)

	x := extractor.NewExtractor(chain, clock, 250*time.Millisecond)

	receipt := &domain.CanonicalReceipt{TransactionHash: txHash, Status: domain.ReceiptStatusSuccess}

	event, err := x.Extract(context.Background(), receipt, extractor.Options{
		FromBlock: 100,
		ToBlock:   1299,
	})
	assert.NoError(t, err)
	assert.Equal(t, uint64(7), event.GiftID)
}

func TestExtract_RangeScanRateLimitAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	chain := mocks.NewMockEscrowClient(ctrl)
	chain.EXPECT().Address().Return(escrowAddr).AnyTimes()
	chain.EXPECT().
		FilterRegistrationLogs(gomock.Any(), uint64(100), uint64(599)).
		Return(nil, errors.New("429 too many requests"))

	clock := mocks.NewMockClock(ctrl)
	x := extractor.NewExtractor(chain, clock, 0)

	receipt := &domain.CanonicalReceipt{TransactionHash: txHash, Status: domain.ReceiptStatusSuccess}

	_, err := x.Extract(context.Background(), receipt, extractor.Options{
		FromBlock: 100,
		ToBlock:   1299,
	})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestExtract_RangeScanSkipsFailedChunk(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vLog := escrowLog(700)
	chain := mocks.NewMockEscrowClient(ctrl)
	chain.EXPECT().Address().Return(escrowAddr).AnyTimes()

	// first chunk fails through all retries, second chunk has the event
	chain.EXPECT().
		FilterRegistrationLogs(gomock.Any(), uint64(100), uint64(599)).
		Return(nil, errors.New("connection reset")).
		Times(4)
	chain.EXPECT().
		FilterRegistrationLogs(gomock.Any(), uint64(600), uint64(1099)).
		Return([]types.Log{vLog}, nil)
	chain.EXPECT().DecodeRegistrationLog(vLog).Return(registrationEvent(7, 42), nil)

	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().After(1 * time.Second).Return(closedTimeChan())
	clock.EXPECT().After(2 * time.Second).Return(closedTimeChan())
	clock.EXPECT().After(4 * time.Second).Return(closedTimeChan())

	x := extractor.NewExtractor(chain, clock, 0)

	receipt := &domain.CanonicalReceipt{TransactionHash: txHash, Status: domain.ReceiptStatusSuccess}

	event, err := x.Extract(context.Background(), receipt, extractor.Options{
		FromBlock: 100,
		ToBlock:   1099,
	})
	assert.NoError(t, err)
	assert.Equal(t, uint64(7), event.GiftID)
}

func closedTimeChan() <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}
