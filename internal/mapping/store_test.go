package mapping_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/giftvault/escrow-indexer/internal/adapter"
	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/logger"
	"github.com/giftvault/escrow-indexer/internal/mapping"
	"github.com/giftvault/escrow-indexer/internal/mocks"
)

func TestMain(m *testing.M) {
	logger.Initialize(logger.Config{Debug: true})
	m.Run()
}

const nftContract = "0x2222222222222222222222222222222222222222"

func newStore(t *testing.T, ctrl *gomock.Controller, allowLegacy bool) (mapping.Store, *mocks.MockRedisClient, *mocks.MockClock) {
	t.Helper()
	redis := mocks.NewMockRedisClient(ctrl)
	clock := mocks.NewMockClock(ctrl)
	return mapping.NewStore(redis, &adapter.RealJSON{}, clock, allowLegacy), redis, clock
}

func mappingJSON(tokenID, giftID string, updatedAt time.Time) string {
	record := domain.GiftMapping{
		SchemaVersion: domain.MappingSchemaVersion,
		TokenID:       tokenID,
		GiftID:        giftID,
		NFTContract:   nftContract,
		ChainID:       1,
		UpdatedAt:     updatedAt,
	}
	data, _ := (&adapter.RealJSON{}).Marshal(record)
	return string(data)
}

func TestStore_WritesForwardAndReverse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, clock := newStore(t, ctrl, false)

	now := time.Unix(1_700_000_100, 0).UTC()
	clock.EXPECT().Now().Return(now)

	redis.EXPECT().Get(gomock.Any(), "gift_mapping:42").Return("", adapter.ErrKeyNotFound)
	redis.EXPECT().
		Set(gomock.Any(), "gift_mapping:42", gomock.Any(), domain.MappingTTL).
		DoAndReturn(func(_ context.Context, _ string, value string, _ time.Duration) error {
			var record domain.GiftMapping
			assert.NoError(t, (&adapter.RealJSON{}).Unmarshal([]byte(value), &record))
			assert.Equal(t, domain.MappingSchemaVersion, record.SchemaVersion)
			assert.Equal(t, "42", record.TokenID)
			assert.Equal(t, "7", record.GiftID)
			assert.Equal(t, nftContract, record.NFTContract)
			assert.Equal(t, now, record.UpdatedAt)
			return nil
		})
	redis.EXPECT().Set(gomock.Any(), "reverse_mapping:7", "42", domain.MappingTTL).Return(nil)

	outcome, err := st.Store(context.Background(), mapping.StoreRequest{
		TokenID:     "42",
		GiftID:      "7",
		NFTContract: nftContract,
		ChainID:     1,
	})
	assert.NoError(t, err)
	assert.True(t, outcome.Written)
}

func TestStore_IdempotentReplaySkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, clock := newStore(t, ctrl, false)
	clock.EXPECT().Now().Return(time.Unix(1_700_000_100, 0)).AnyTimes()

	redis.EXPECT().
		SetNX(gomock.Any(), "idempotency:key-1", "1", domain.IdempotencyTTL).
		Return(false, nil)

	outcome, err := st.Store(context.Background(), mapping.StoreRequest{
		TokenID:        "42",
		GiftID:         "7",
		NFTContract:    nftContract,
		IdempotencyKey: "key-1",
	})
	assert.NoError(t, err)
	assert.False(t, outcome.Written)
	assert.Equal(t, mapping.SkipReasonDuplicate, outcome.Reason)
}

func TestStore_LastWriteWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, _ := newStore(t, ctrl, false)

	// existing record written at t=100; an update stamped t=50 must lose
	stored := mappingJSON("42", "7", time.Unix(100, 0).UTC())
	redis.EXPECT().Get(gomock.Any(), "gift_mapping:42").Return(stored, nil)

	outcome, err := st.Store(context.Background(), mapping.StoreRequest{
		TokenID:     "42",
		GiftID:      "9",
		NFTContract: nftContract,
		UpdatedAt:   time.Unix(50, 0).UTC(),
	})
	assert.NoError(t, err)
	assert.False(t, outcome.Written)
	assert.Equal(t, mapping.SkipReasonStale, outcome.Reason)
}

func TestStore_NewerTimestampOverwrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, _ := newStore(t, ctrl, false)

	stored := mappingJSON("42", "7", time.Unix(100, 0).UTC())
	redis.EXPECT().Get(gomock.Any(), "gift_mapping:42").Return(stored, nil)
	redis.EXPECT().Set(gomock.Any(), "gift_mapping:42", gomock.Any(), domain.MappingTTL).Return(nil)
	redis.EXPECT().Set(gomock.Any(), "reverse_mapping:9", "42", domain.MappingTTL).Return(nil)

	outcome, err := st.Store(context.Background(), mapping.StoreRequest{
		TokenID:     "42",
		GiftID:      "9",
		NFTContract: nftContract,
		UpdatedAt:   time.Unix(200, 0).UTC(),
	})
	assert.NoError(t, err)
	assert.True(t, outcome.Written)
}

func TestStore_LegacyValueAlwaysOverwritten(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, _ := newStore(t, ctrl, false)

	// bare digits carry no timestamp, any schema write upgrades them
	redis.EXPECT().Get(gomock.Any(), "gift_mapping:42").Return("7", nil)
	redis.EXPECT().Set(gomock.Any(), "gift_mapping:42", gomock.Any(), domain.MappingTTL).Return(nil)
	redis.EXPECT().Set(gomock.Any(), "reverse_mapping:7", "42", domain.MappingTTL).Return(nil)

	outcome, err := st.Store(context.Background(), mapping.StoreRequest{
		TokenID:     "42",
		GiftID:      "7",
		NFTContract: nftContract,
		UpdatedAt:   time.Unix(1, 0).UTC(),
	})
	assert.NoError(t, err)
	assert.True(t, outcome.Written)
}

func TestStore_ValidationRejections(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, _, _ := newStore(t, ctrl, false)

	cases := []struct {
		name  string
		req   mapping.StoreRequest
		field string
	}{
		{
			name:  "non numeric token id",
			req:   mapping.StoreRequest{TokenID: "abc", GiftID: "7", NFTContract: nftContract},
			field: "tokenId",
		},
		{
			name:  "negative token id",
			req:   mapping.StoreRequest{TokenID: "-1", GiftID: "7", NFTContract: nftContract},
			field: "tokenId",
		},
		{
			name:  "zero gift id",
			req:   mapping.StoreRequest{TokenID: "42", GiftID: "0", NFTContract: nftContract},
			field: "giftId",
		},
		{
			name:  "zero contract address",
			req:   mapping.StoreRequest{TokenID: "42", GiftID: "7", NFTContract: domain.ETHEREUM_ZERO_ADDRESS},
			field: "nftContract",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := st.Store(context.Background(), tc.req)
			var vErr *domain.ValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestLookup_OK(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, _ := newStore(t, ctrl, false)
	redis.EXPECT().
		Get(gomock.Any(), "gift_mapping:42").
		Return(mappingJSON("42", "7", time.Unix(100, 0).UTC()), nil)

	result := st.Lookup(context.Background(), "42")
	assert.Equal(t, domain.LookupOK, result.Reason)
	assert.Equal(t, "7", result.GiftID)
}

func TestLookup_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, _ := newStore(t, ctrl, false)
	redis.EXPECT().Get(gomock.Any(), "gift_mapping:42").Return("", adapter.ErrKeyNotFound)

	result := st.Lookup(context.Background(), "42")
	assert.Equal(t, domain.LookupMissing, result.Reason)
}

func TestLookup_LegacyRejectedByDefault(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, _ := newStore(t, ctrl, false)
	redis.EXPECT().Get(gomock.Any(), "gift_mapping:42").Return("7", nil)

	result := st.Lookup(context.Background(), "42")
	assert.Equal(t, domain.LookupLegacyIncompatible, result.Reason)
	assert.ErrorIs(t, result.Err, domain.ErrLegacyIncompatible)
}

func TestLookup_LegacyAllowedByFlag(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, _ := newStore(t, ctrl, true)
	redis.EXPECT().Get(gomock.Any(), "gift_mapping:42").Return("7", nil)

	result := st.Lookup(context.Background(), "42")
	assert.Equal(t, domain.LookupOK, result.Reason)
	assert.Equal(t, "7", result.GiftID)
}

func TestLookup_InvalidFormat(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, _ := newStore(t, ctrl, true)
	redis.EXPECT().Get(gomock.Any(), "gift_mapping:42").Return("not json, not digits", nil)

	result := st.Lookup(context.Background(), "42")
	assert.Equal(t, domain.LookupInvalidFormat, result.Reason)
}

func TestReverseLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, _ := newStore(t, ctrl, false)
	redis.EXPECT().Get(gomock.Any(), "reverse_mapping:7").Return("42", nil)
	redis.EXPECT().Get(gomock.Any(), "reverse_mapping:8").Return("", adapter.ErrKeyNotFound)

	tokenID, err := st.ReverseLookup(context.Background(), "7")
	assert.NoError(t, err)
	assert.Equal(t, "42", tokenID)

	_, err = st.ReverseLookup(context.Background(), "8")
	assert.ErrorIs(t, err, domain.ErrMappingNotFound)
}

func TestRepairReverse(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, _ := newStore(t, ctrl, false)
	redis.EXPECT().Set(gomock.Any(), "reverse_mapping:7", "42", domain.MappingTTL).Return(nil)

	assert.NoError(t, st.RepairReverse(context.Background(), "7", "42"))

	var vErr *domain.ValidationError
	assert.ErrorAs(t, st.RepairReverse(context.Background(), "0", "42"), &vErr)
	assert.ErrorAs(t, st.RepairReverse(context.Background(), "7", "abc"), &vErr)
}

func TestSaltRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	st, redis, _ := newStore(t, ctrl, false)
	redis.EXPECT().Set(gomock.Any(), "gift_salt:7", "s3cr3t", domain.MappingTTL).Return(nil)
	redis.EXPECT().Get(gomock.Any(), "gift_salt:7").Return("s3cr3t", nil)
	redis.EXPECT().Get(gomock.Any(), "gift_salt:8").Return("", adapter.ErrKeyNotFound)

	assert.NoError(t, st.StoreSalt(context.Background(), "7", "s3cr3t"))

	salt, err := st.GetSalt(context.Background(), "7")
	assert.NoError(t, err)
	assert.Equal(t, "s3cr3t", salt)

	_, err = st.GetSalt(context.Background(), "8")
	assert.ErrorIs(t, err, domain.ErrMappingNotFound)
}

func TestMissCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clock := mocks.NewMockClock(ctrl)
	base := time.Unix(1000, 0)

	cache := mapping.NewMissCache(clock, 30*time.Second)

	clock.EXPECT().Now().Return(base)
	cache.Record("42")

	clock.EXPECT().Now().Return(base.Add(10 * time.Second))
	assert.True(t, cache.Hit("42"))

	clock.EXPECT().Now().Return(base.Add(31 * time.Second))
	assert.False(t, cache.Hit("42"))

	// expired entry is gone; no further clock reads needed
	assert.False(t, cache.Hit("42"))

	clock.EXPECT().Now().Return(base)
	cache.Record("43")
	cache.Evict("43")
	assert.False(t, cache.Hit("43"))
}
