package repository

import (
	"context"
	"time"

	"github.com/ohlcv/VuePy-Stack/internal/models"
)

type StrategyRepository interface {
	UpsertStrategy(ctx context.Context, item *models.Strategy) error
	GetStrategy(ctx context.Context, id string) (*models.Strategy, error)
	ListStrategies(ctx context.Context) ([]models.Strategy, error)
	UpdateStrategyStatus(ctx context.Context, id string, status string) error
	DeleteStrategy(ctx context.Context, id string) (bool, error)
	CountStrategiesByStatus(ctx context.Context) (map[string]int64, error)
}

type AuditRepository interface {
	InsertAuditEvent(ctx context.Context, item *models.AuditEvent) error
	ListAuditEvents(ctx context.Context, params ListAuditEventsParams) ([]models.AuditEvent, error)
	DeleteAuditEventsBefore(ctx context.Context, before time.Time) (int64, error)
}

type Repository interface {
	StrategyRepository
	AuditRepository
}

type ListAuditEventsParams struct {
	StrategyID *string
	Action     *string
	Limit      int
	Offset     int
}
