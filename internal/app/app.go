package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/audit"
	"github.com/ohlcv/VuePy-Stack/internal/cache"
	"github.com/ohlcv/VuePy-Stack/internal/config"
	"github.com/ohlcv/VuePy-Stack/internal/container"
	"github.com/ohlcv/VuePy-Stack/internal/db"
	"github.com/ohlcv/VuePy-Stack/internal/exchange"
	"github.com/ohlcv/VuePy-Stack/internal/image"
	"github.com/ohlcv/VuePy-Stack/internal/lifecycle"
	gormrepository "github.com/ohlcv/VuePy-Stack/internal/repository/gorm"
	"github.com/ohlcv/VuePy-Stack/internal/strategyconf"
)

// App owns every long-lived collaborator of one manager instance.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	DB       *db.DB
	Store    *gormrepository.Store
	Cache    cache.Store
	Runtime  container.Runtime
	Recorder *audit.Recorder
	Manager  *lifecycle.Manager

	closers []func() error
}

type BuildOptions struct {
	// AllowPull lets the manager download a missing image.
	AllowPull bool
	// Runtime replaces the docker client.
	Runtime container.Runtime
}

// Build opens the store, cache and container runtime and wires the
// lifecycle manager. On error everything opened so far is closed.
func Build(ctx context.Context, cfg config.Config, log *zap.Logger, opts BuildOptions) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: log}
	if err := a.build(ctx, opts); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, opts BuildOptions) error {
	cfg, log := a.Config, a.Logger

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	a.DB = dbConn
	a.closers = append(a.closers, func() error { return db.Close(dbConn) })
	if err := db.AutoMigrate(dbConn); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	a.Store = gormrepository.New(dbConn.Gorm)

	store, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	a.Cache = store
	a.closers = append(a.closers, store.Close)

	rt := opts.Runtime
	if rt == nil {
		docker, err := container.NewDockerRuntime(cfg.Docker.Host, cfg.Docker.StopTimeout)
		if err != nil {
			return fmt.Errorf("docker client: %w", err)
		}
		rt = docker
	}
	a.Runtime = rt
	a.closers = append(a.closers, rt.Close)
	if err := rt.Ping(ctx); err != nil {
		return fmt.Errorf("docker is not reachable: %w", err)
	}

	client := exchange.NewClient(exchange.Options{
		Timeout:    cfg.Exchange.Timeout,
		CatalogTTL: cfg.Exchange.CatalogTTL,
		BaseURLs:   cfg.Exchange.BaseURLs,
		Cache:      store,
		Logger:     log.Named("exchange"),
	})

	orch := container.NewOrchestrator(rt, container.Options{
		Prefix:         cfg.Strategy.ContainerPrefix,
		MountPath:      cfg.Strategy.MountPath,
		ConfigFileName: cfg.Strategy.ConfigFileName,
		ConfigPassword: cfg.Strategy.ConfigPassword,
		LogTail:        cfg.Strategy.LogTail,
		Logger:         log.Named("container"),
	})

	acq := image.NewAcquirer(rt, image.Options{
		MaxAttempts:    cfg.Image.MaxAttempts,
		InitialBackoff: cfg.Image.InitialBackoff,
		ProbeURL:       cfg.Image.ProbeURL,
		ProbeTimeout:   cfg.Image.ProbeTimeout,
		Logger:         log.Named("image"),
	})

	a.Recorder = audit.NewRecorder(a.Store, log.Named("audit"), cfg.Audit.Timeout, sinks(cfg.Audit)...)
	a.closers = append(a.closers, func() error { a.Recorder.Close(); return nil })

	a.Manager = lifecycle.NewManager(lifecycle.Deps{
		Repo:       a.Store,
		Configs:    strategyconf.NewBuilder(cfg.Strategy.FilesDir, cfg.Strategy.ConfigFileName),
		Validator:  exchange.NewValidator(client, log.Named("exchange")),
		Markets:    client,
		Images:     acq,
		Containers: orch,
		Auditor:    a.Recorder,
		Logger:     log.Named("lifecycle"),
	}, lifecycle.Options{
		ImageRepository: cfg.Image.Repository,
		ImageTag:        cfg.Image.Tag,
		AllowPull:       opts.AllowPull || cfg.Image.Pull,
	})
	log.Info("strategy manager ready",
		zap.String("db_driver", cfg.DB.Driver),
		zap.String("cache", cfg.Cache.Backend),
		zap.String("image", image.Ref(cfg.Image.Repository, cfg.Image.Tag)),
		zap.Bool("allow_pull", opts.AllowPull || cfg.Image.Pull),
	)
	return nil
}

func sinks(cfg config.AuditConfig) []audit.Sink {
	var out []audit.Sink
	if strings.TrimSpace(cfg.PaaSBase) != "" && strings.TrimSpace(cfg.PaaSAPIKey) != "" {
		out = append(out, audit.NewPaaSClient(cfg.PaaSBase, cfg.PaaSAPIKey, cfg.Agent, cfg.Timeout))
	}
	if strings.TrimSpace(cfg.WebhookURL) != "" {
		out = append(out, audit.NewWebhookSink(cfg.WebhookURL, cfg.Agent, cfg.Timeout))
	}
	return out
}

// Close releases collaborators in reverse order of creation.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
