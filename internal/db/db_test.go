package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ohlcv/VuePy-Stack/internal/config"
)

func TestOpen_SQLiteCreatesParentAndMigrates(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "grid.db")
	d, err := Open(config.DBConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer Close(d)

	if err := AutoMigrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !d.Gorm.Migrator().HasTable("strategies") {
		t.Fatalf("strategies table missing")
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(config.DBConfig{Driver: "mysql", DSN: "x"})
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("err=%v want unsupported driver", err)
	}
}

func TestSQLiteDSN_AppendsPragmas(t *testing.T) {
	dsn, err := sqliteDSN(config.DBConfig{DSN: filepath.Join(t.TempDir(), "a.db")})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(dsn, "_journal_mode=WAL") {
		t.Fatalf("dsn=%q missing WAL", dsn)
	}
}
