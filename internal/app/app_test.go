package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ohlcv/VuePy-Stack/internal/auth"
	"github.com/ohlcv/VuePy-Stack/internal/config"
	"github.com/ohlcv/VuePy-Stack/internal/container/containertest"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("", true)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	dir := t.TempDir()
	cfg.App.Env = "test"
	cfg.DB.DSN = filepath.Join(dir, "engine.db")
	cfg.Strategy.FilesDir = filepath.Join(dir, "strategies")
	cfg.Cron.Reconcile = "@every 1h"
	return cfg
}

func TestBuildWiresManager(t *testing.T) {
	cfg := testConfig(t)
	rt := containertest.New()
	a, err := Build(context.Background(), cfg, nil, BuildOptions{Runtime: rt})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer a.Close()

	res := a.Manager.ListStrategies(context.Background())
	if !res.Success || len(res.Strategies) != 0 {
		t.Fatalf("list=%+v", res)
	}
	if got := len(a.Manager.Exchanges()); got == 0 {
		t.Fatalf("exchanges=%d want>0", got)
	}
	img := a.Manager.EnsureImage(context.Background(), "")
	if img.OK {
		t.Fatalf("image should be missing without pull: %+v", img)
	}
}

func TestBuildRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB.Driver = "oracle"
	if _, err := Build(context.Background(), cfg, nil, BuildOptions{Runtime: containertest.New()}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRouterHealthAndAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	a, err := Build(context.Background(), cfg, nil, BuildOptions{Runtime: containertest.New()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer a.Close()
	r := a.Router()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("readyz got=%d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/exchanges", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated got=%d", w.Code)
	}

	tok, _, err := a.JWT().Sign(auth.Claims{Operator: "test"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/exchanges", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("authenticated got=%d", w.Code)
	}
}

func TestStartCronDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cron.Enabled = false
	a, err := Build(context.Background(), cfg, nil, BuildOptions{Runtime: containertest.New()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer a.Close()
	runner, err := a.StartCron(context.Background())
	if err != nil || runner != nil {
		t.Fatalf("runner=%v err=%v", runner, err)
	}
}

func TestAdminAPIRequiresSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = ""
	a, err := Build(context.Background(), cfg, nil, BuildOptions{Runtime: containertest.New()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer a.Close()

	r := a.Router()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz got=%d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/strategies/abcd1234", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("api without secret got=%d want=%d", w.Code, http.StatusNotFound)
	}

	if err := a.Serve(context.Background()); !errors.Is(err, ErrAuthDisabled) {
		t.Fatalf("Serve err=%v want=%v", err, ErrAuthDisabled)
	}
}
