package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StrategyStatusRunning = "running"
	StrategyStatusStopped = "stopped"
)

// Strategy is one configured grid workload. Identity and configuration live
// here; the container runtime owns the live state.
type Strategy struct {
	ID          string         `gorm:"type:varchar(16);primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(120);not null" json:"name"`
	Exchange    string         `gorm:"type:varchar(50);not null;index" json:"exchange"`
	TradingPair string         `gorm:"type:varchar(50);not null" json:"pair"`
	Status      string         `gorm:"type:varchar(20);not null;index" json:"status"`
	Config      datatypes.JSON `json:"config"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Strategy) TableName() string {
	return "strategies"
}
