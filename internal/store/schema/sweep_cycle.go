package schema

import "time"

// SweepCycle summarizes one pass of the background reconciliation sweep
type SweepCycle struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	StartedAt     time.Time `gorm:"column:started_at;index;not null"`
	FinishedAt    time.Time `gorm:"column:finished_at"`
	Ceiling       uint64    `gorm:"column:ceiling"` // gift counter at cycle start
	Scanned       uint64    `gorm:"column:scanned"`
	Diverged      uint64    `gorm:"column:diverged"`
	Repaired      uint64    `gorm:"column:repaired"`
	Unrecoverable uint64    `gorm:"column:unrecoverable"`
	Errors        uint64    `gorm:"column:errors"`
	CreatedAt     time.Time
}

// TableName overrides the table name
func (SweepCycle) TableName() string {
	return "sweep_cycles"
}
