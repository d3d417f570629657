package schema

import (
	"time"

	"gorm.io/datatypes"
)

// IncidentKind classifies a journal entry
type IncidentKind string

const (
	IncidentKindDetected      IncidentKind = "detected"
	IncidentKindRepaired      IncidentKind = "repaired"
	IncidentKindUnrecoverable IncidentKind = "unrecoverable"
)

// MappingIncident is one reconciliation finding: a divergence between the
// cached mapping and the on-chain gift record, plus what was done about it
type MappingIncident struct {
	ID              uint64         `gorm:"primaryKey;autoIncrement"`
	EventID         string         `gorm:"column:event_id;uniqueIndex;not null"`
	Kind            IncidentKind   `gorm:"column:kind;index;not null"`
	TokenID         string         `gorm:"column:token_id;index;not null"`
	GiftID          string         `gorm:"column:gift_id;index"`
	OnChainTokenID  string         `gorm:"column:on_chain_token_id"`
	Reason          string         `gorm:"column:reason;not null"`
	Detail          datatypes.JSON `gorm:"column:detail"`
	DetectedAt      time.Time      `gorm:"column:detected_at;index;not null"`
	CreatedAt       time.Time
}

// TableName overrides the table name
func (MappingIncident) TableName() string {
	return "mapping_incidents"
}
