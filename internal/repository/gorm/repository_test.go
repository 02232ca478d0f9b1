package gormrepository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ohlcv/VuePy-Stack/internal/models"
	"github.com/ohlcv/VuePy-Stack/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := gdb.AutoMigrate(&models.Strategy{}, &models.AuditEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqldb, err := gdb.DB(); err == nil {
			_ = sqldb.Close()
		}
	})
	return New(gdb)
}

func TestStore_UpsertIsInsertOrReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	item := &models.Strategy{
		ID:          "a1b2c3d4",
		Name:        "grid_binance_BTC-USDT",
		Exchange:    "binance",
		TradingPair: "BTC-USDT",
		Status:      models.StrategyStatusRunning,
		Config:      datatypes.JSON(`{"grid_count":10}`),
	}
	if err := s.UpsertStrategy(ctx, item); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	replaced := *item
	replaced.Name = "renamed"
	replaced.Status = models.StrategyStatusStopped
	if err := s.UpsertStrategy(ctx, &replaced); err != nil {
		t.Fatalf("upsert replace: %v", err)
	}

	items, err := s.ListStrategies(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len=%d want=1", len(items))
	}
	if items[0].Name != "renamed" || items[0].Status != models.StrategyStatusStopped {
		t.Fatalf("got=%+v", items[0])
	}
}

func TestStore_GetMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetStrategy(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got != nil {
		t.Fatalf("got=%+v want nil", got)
	}
}

func TestStore_StatusUpdateDeleteAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"00000001", "00000002", "00000003"} {
		if err := s.UpsertStrategy(ctx, &models.Strategy{ID: id, Name: id, Exchange: "okx", TradingPair: "ETH-USDT", Status: models.StrategyStatusRunning}); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}
	if err := s.UpdateStrategyStatus(ctx, "00000002", models.StrategyStatusStopped); err != nil {
		t.Fatalf("update: %v", err)
	}

	counts, err := s.CountStrategiesByStatus(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[models.StrategyStatusRunning] != 2 || counts[models.StrategyStatusStopped] != 1 {
		t.Fatalf("counts=%v", counts)
	}

	removed, err := s.DeleteStrategy(ctx, "00000003")
	if err != nil || !removed {
		t.Fatalf("delete removed=%v err=%v", removed, err)
	}
	removed, err = s.DeleteStrategy(ctx, "00000003")
	if err != nil || removed {
		t.Fatalf("second delete removed=%v err=%v want false", removed, err)
	}
}

func TestStore_AuditEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i, action := range []string{"create", "start", "stop"} {
		if err := s.InsertAuditEvent(ctx, &models.AuditEvent{StrategyID: "a1b2c3d4", Action: action, Success: i != 2}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	action := "start"
	items, err := s.ListAuditEvents(ctx, repository.ListAuditEventsParams{Action: &action})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Action != "start" {
		t.Fatalf("items=%+v", items)
	}

	n, err := s.DeleteAuditEventsBefore(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 3 {
		t.Fatalf("deleted=%d want=3", n)
	}
}
