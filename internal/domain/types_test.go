package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/giftvault/escrow-indexer/internal/domain"
)

func TestParsedRegistrationEvent_Valid(t *testing.T) {
	valid := domain.ParsedRegistrationEvent{
		GiftID:       37,
		TokenID:      68,
		Creator:      "0x1111111111111111111111111111111111111111",
		NFTContract:  "0x2222222222222222222222222222222222222222",
		ExpiresAt:    1767225600,
		RegisteredBy: "0x3333333333333333333333333333333333333333",
	}

	assert.True(t, valid.Valid())

	tests := []struct {
		name   string
		mutate func(e *domain.ParsedRegistrationEvent)
	}{
		{"zero gift id", func(e *domain.ParsedRegistrationEvent) { e.GiftID = 0 }},
		{"zero expiry", func(e *domain.ParsedRegistrationEvent) { e.ExpiresAt = 0 }},
		{"zero creator", func(e *domain.ParsedRegistrationEvent) { e.Creator = domain.ETHEREUM_ZERO_ADDRESS }},
		{"malformed contract", func(e *domain.ParsedRegistrationEvent) { e.NFTContract = "not-an-address" }},
		{"empty registered by", func(e *domain.ParsedRegistrationEvent) { e.RegisteredBy = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			assert.False(t, e.Valid())
		})
	}
}

func TestIsValidAddress(t *testing.T) {
	assert.True(t, domain.IsValidAddress("0x1111111111111111111111111111111111111111"))
	assert.True(t, domain.IsValidAddress("0xAbCd111111111111111111111111111111111111"))
	assert.False(t, domain.IsValidAddress(domain.ETHEREUM_ZERO_ADDRESS))
	assert.False(t, domain.IsValidAddress("0x123"))
	assert.False(t, domain.IsValidAddress(""))
}

func TestParseGiftID(t *testing.T) {
	id, err := domain.ParseGiftID("37")
	assert.NoError(t, err)
	assert.Equal(t, uint64(37), id)

	_, err = domain.ParseGiftID("0")
	assert.Error(t, err)

	_, err = domain.ParseGiftID("abc")
	assert.Error(t, err)

	_, err = domain.ParseGiftID("-1")
	assert.Error(t, err)
}

func TestSameAddress(t *testing.T) {
	assert.True(t, domain.SameAddress(
		"0xAbCd111111111111111111111111111111111111",
		"0xabcd111111111111111111111111111111111111",
	))
	assert.False(t, domain.SameAddress(
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
	))
}
