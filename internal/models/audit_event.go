package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditEvent records one lifecycle action taken against a strategy.
type AuditEvent struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	StrategyID string         `gorm:"type:varchar(16);index" json:"strategy_id"`
	Action     string         `gorm:"type:varchar(40);not null;index" json:"action"`
	Success    bool           `gorm:"not null" json:"success"`
	Message    string         `gorm:"type:text" json:"message"`
	Detail     datatypes.JSON `json:"detail,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
