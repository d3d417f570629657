// Package store persists the reconciliation audit journal in PostgreSQL.
// Redis holds the hot mappings; this journal is the durable record of what
// the reconciler found and fixed.
package store

import (
	"context"
	"time"

	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/store/schema"
)

// CreateIncidentInput describes one reconciliation finding to journal
type CreateIncidentInput struct {
	EventID        string
	Kind           schema.IncidentKind
	TokenID        string
	GiftID         string
	OnChainTokenID string
	Reason         string
	Detail         any
	DetectedAt     time.Time
}

// CreateSweepCycleInput summarizes one finished sweep pass
type CreateSweepCycleInput struct {
	StartedAt     time.Time
	FinishedAt    time.Time
	Ceiling       uint64
	Scanned       uint64
	Diverged      uint64
	Repaired      uint64
	Unrecoverable uint64
	Errors        uint64
}

// Store defines the journal persistence interface
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockJournalStore
type Store interface {
	// CreateIncident journals one reconciliation finding. Re-journaling the
	// same event id is a no-op.
	CreateIncident(ctx context.Context, input CreateIncidentInput) error

	// CreateIncidentFromEvent journals a published mapping event verbatim
	CreateIncidentFromEvent(ctx context.Context, event *domain.MappingEvent) error

	// CreateSweepCycle records the summary of one finished sweep pass
	CreateSweepCycle(ctx context.Context, input CreateSweepCycleInput) error

	// GetRecentIncidents returns the newest incidents for a token, most
	// recent first
	GetRecentIncidents(ctx context.Context, tokenID string, limit int) ([]schema.MappingIncident, error)

	// GetLastSweepCycle returns the most recently finished sweep cycle, or
	// nil when none has run yet
	GetLastSweepCycle(ctx context.Context) (*schema.SweepCycle, error)
}
