package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/giftvault/escrow-indexer/internal/store"
)

func TestNormalizeConnectionPoolSettings_Defaults(t *testing.T) {
	maxOpen, maxIdle, lifetime, idleTime := store.NormalizeConnectionPoolSettings(0, 0, 0, 0)

	assert.Equal(t, 20, maxOpen)
	assert.Equal(t, 5, maxIdle)
	assert.Equal(t, 5*time.Minute, lifetime)
	assert.Equal(t, 10*time.Minute, idleTime)
}

func TestNormalizeConnectionPoolSettings_IdleClampedToOpen(t *testing.T) {
	maxOpen, maxIdle, _, _ := store.NormalizeConnectionPoolSettings(4, 10, time.Minute, time.Minute)

	assert.Equal(t, 4, maxOpen)
	assert.Equal(t, 4, maxIdle)
}

func TestNormalizeConnectionPoolSettings_ExplicitValuesKept(t *testing.T) {
	maxOpen, maxIdle, lifetime, idleTime := store.NormalizeConnectionPoolSettings(50, 10, 2*time.Minute, 3*time.Minute)

	assert.Equal(t, 50, maxOpen)
	assert.Equal(t, 10, maxIdle)
	assert.Equal(t, 2*time.Minute, lifetime)
	assert.Equal(t, 3*time.Minute, idleTime)
}
