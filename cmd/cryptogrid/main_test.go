package main

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/app"
	"github.com/ohlcv/VuePy-Stack/internal/auth"
	"github.com/ohlcv/VuePy-Stack/internal/config"
	"github.com/ohlcv/VuePy-Stack/internal/container/containertest"
	"github.com/ohlcv/VuePy-Stack/internal/output"
)

func newCLI(t *testing.T) (*commandLine, *strings.Builder, *containertest.Runtime) {
	t.Helper()
	cfg, err := config.Load("", true)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	dir := t.TempDir()
	cfg.DB.DSN = filepath.Join(dir, "engine.db")
	cfg.Strategy.FilesDir = filepath.Join(dir, "strategies")
	cfg.Auth.JWTSecret = "cli-secret"
	cfg.Auth.TokenTTL = time.Hour

	rt := containertest.New()
	out := &strings.Builder{}
	c := &commandLine{cfg: cfg, log: zap.NewNop(), format: output.FormatJSON, out: out}
	c.build = func(ctx context.Context) (*app.App, error) {
		return app.Build(ctx, cfg, zap.NewNop(), app.BuildOptions{Runtime: rt})
	}
	return c, out, rt
}

func exitCode(err error) int {
	var e exitError
	if errors.As(err, &e) {
		return e.code
	}
	if err != nil {
		return -1
	}
	return 0
}

func TestDispatchUnknownAndMissingArgs(t *testing.T) {
	c, _, _ := newCLI(t)
	if err := c.dispatch(context.Background(), []string{"frobnicate"}); !errors.Is(err, errUsage) {
		t.Fatalf("unknown: err=%v", err)
	}
	if err := c.dispatch(context.Background(), []string{"start"}); !errors.Is(err, errUsage) {
		t.Fatalf("missing arg: err=%v", err)
	}
}

func TestDispatchListAndDelete(t *testing.T) {
	c, out, _ := newCLI(t)
	if err := c.dispatch(context.Background(), []string{"list"}); err != nil {
		t.Fatalf("list: %v", err)
	}
	var res map[string]any
	if err := json.Unmarshal([]byte(out.String()), &res); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if res["success"] != true {
		t.Fatalf("list result=%v", res)
	}

	out.Reset()
	err := c.dispatch(context.Background(), []string{"delete", "nothere1"})
	if exitCode(err) != 1 {
		t.Fatalf("delete missing: err=%v", err)
	}
	if !strings.Contains(out.String(), `"success": false`) {
		t.Fatalf("delete output=%q", out.String())
	}
}

func TestDispatchPullImageHonoursPresence(t *testing.T) {
	c, _, rt := newCLI(t)
	if err := c.dispatch(context.Background(), []string{"pull-image"}); exitCode(err) != 1 {
		t.Fatalf("missing image without pull: err=%v", err)
	}
	rt.AddImage("hummingbot/hummingbot:latest")
	if err := c.dispatch(context.Background(), []string{"pull-image"}); err != nil {
		t.Fatalf("present image: err=%v", err)
	}
}

func TestTokenCommand(t *testing.T) {
	c, out, _ := newCLI(t)
	if err := c.dispatch(context.Background(), []string{"token", "alice"}); err != nil {
		t.Fatalf("token: %v", err)
	}
	var res map[string]string
	if err := json.Unmarshal([]byte(out.String()), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := (auth.JWT{Secret: []byte("cli-secret")}).Verify(res["token"])
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Operator != "alice" {
		t.Fatalf("operator=%q want=alice", claims.Operator)
	}

	c.cfg.Auth.JWTSecret = ""
	if err := c.dispatch(context.Background(), []string{"token"}); err == nil {
		t.Fatalf("expected error without secret")
	}
}

func TestLoadConfigMissingDefaultFallsBackToEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CG_CONFIG", "")
	t.Setenv("CG_IMAGE_TAG", "v9")
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Image.Tag != "v9" {
		t.Fatalf("tag=%q want=v9", cfg.Image.Tag)
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for explicit missing file")
	}
}
