package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/giftvault/escrow-indexer/internal/domain"
	"github.com/giftvault/escrow-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL journal store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// It accesses the underlying *sql.DB and sets the pool configuration.
// If any of the pool settings are 0 or empty, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	// Set defaults if not provided
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// CreateIncident journals one reconciliation finding
func (s *pgStore) CreateIncident(ctx context.Context, input CreateIncidentInput) error {
	var detailJSON []byte
	if input.Detail != nil {
		var err error
		detailJSON, err = json.Marshal(input.Detail)
		if err != nil {
			return fmt.Errorf("failed to marshal incident detail: %w", err)
		}
	}

	incident := schema.MappingIncident{
		EventID:        input.EventID,
		Kind:           input.Kind,
		TokenID:        input.TokenID,
		GiftID:         input.GiftID,
		OnChainTokenID: input.OnChainTokenID,
		Reason:         input.Reason,
		Detail:         detailJSON,
		DetectedAt:     input.DetectedAt,
	}

	// Sweep retries journal the same event id; ON CONFLICT DO NOTHING keeps
	// the journal append-only without duplicates
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&incident).Error; err != nil {
		return fmt.Errorf("failed to create mapping incident: %w", err)
	}

	return nil
}

// CreateIncidentFromEvent journals a published mapping event verbatim
func (s *pgStore) CreateIncidentFromEvent(ctx context.Context, event *domain.MappingEvent) error {
	return s.CreateIncident(ctx, CreateIncidentInput{
		EventID:        event.EventID,
		Kind:           schema.IncidentKind(event.Type),
		TokenID:        event.TokenID,
		GiftID:         event.GiftID,
		OnChainTokenID: event.ObservedTokenID,
		Reason:         event.Reason,
		Detail:         event,
		DetectedAt:     event.Timestamp,
	})
}

// CreateSweepCycle records the summary of one finished sweep pass
func (s *pgStore) CreateSweepCycle(ctx context.Context, input CreateSweepCycleInput) error {
	cycle := schema.SweepCycle{
		StartedAt:     input.StartedAt,
		FinishedAt:    input.FinishedAt,
		Ceiling:       input.Ceiling,
		Scanned:       input.Scanned,
		Diverged:      input.Diverged,
		Repaired:      input.Repaired,
		Unrecoverable: input.Unrecoverable,
		Errors:        input.Errors,
	}

	if err := s.db.WithContext(ctx).Create(&cycle).Error; err != nil {
		return fmt.Errorf("failed to create sweep cycle: %w", err)
	}

	return nil
}

// GetRecentIncidents returns the newest incidents for a token
func (s *pgStore) GetRecentIncidents(ctx context.Context, tokenID string, limit int) ([]schema.MappingIncident, error) {
	var incidents []schema.MappingIncident
	err := s.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("detected_at DESC").
		Limit(limit).
		Find(&incidents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get incidents: %w", err)
	}

	return incidents, nil
}

// GetLastSweepCycle returns the most recently finished sweep cycle
func (s *pgStore) GetLastSweepCycle(ctx context.Context) (*schema.SweepCycle, error) {
	var cycle schema.SweepCycle
	err := s.db.WithContext(ctx).Order("started_at DESC").First(&cycle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get last sweep cycle: %w", err)
	}

	return &cycle, nil
}
