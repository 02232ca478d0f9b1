package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/auth"
	cronrunner "github.com/ohlcv/VuePy-Stack/internal/cron"
	"github.com/ohlcv/VuePy-Stack/internal/handler"

	_ "github.com/ohlcv/VuePy-Stack/docs"
)

// Router builds the admin HTTP API.
func (a *App) Router() *gin.Engine {
	if strings.EqualFold(a.Config.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(a.Logger.Named("http")))
	engine.Use(auth.Middleware(a.JWT()))

	health := &handler.HealthHandler{DB: a.DB.Gorm, Runtime: a.Runtime}
	health.Register(engine)
	if !a.JWT().Enabled() {
		a.Logger.Warn("auth.jwt_secret is not set; /api routes are not registered")
		return engine
	}
	strategies := &handler.StrategyHandler{Manager: a.Manager, Logger: a.Logger.Named("http"), LogTail: a.Config.Strategy.LogTail}
	strategies.Register(engine)
	exchanges := &handler.ExchangeHandler{Manager: a.Manager}
	exchanges.Register(engine)
	events := &handler.AuditHandler{Repo: a.Store}
	events.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return engine
}

func (a *App) JWT() auth.JWT {
	return auth.JWT{Secret: []byte(a.Config.Auth.JWTSecret), TokenTTL: a.Config.Auth.TokenTTL}
}

// StartCron schedules the reconcile and audit retention jobs. The returned
// runner is nil when cron is disabled.
func (a *App) StartCron(ctx context.Context) (*cronrunner.Runner, error) {
	if !a.Config.Cron.Enabled {
		return nil, nil
	}
	runner := cronrunner.New(a.Logger, ctx)
	if spec := strings.TrimSpace(a.Config.Cron.Reconcile); spec != "" {
		job := cronrunner.ReconcileJob(a.Manager, a.Logger.Named("reconcile"), time.Minute)
		if _, err := runner.Add("reconcile", spec, job); err != nil {
			return nil, err
		}
	}
	if spec := strings.TrimSpace(a.Config.Cron.AuditPrune); spec != "" && a.Config.Audit.Retention > 0 {
		job := cronrunner.AuditPruneJob(a.Store, a.Config.Audit.Retention, a.Logger.Named("audit"))
		if _, err := runner.Add("audit_prune", spec, job); err != nil {
			return nil, err
		}
	}
	if runner.Entries() == 0 {
		return nil, nil
	}
	runner.Start()
	return runner, nil
}

// ErrAuthDisabled is returned by Serve when no JWT secret is configured.
var ErrAuthDisabled = errors.New("admin API requires auth.jwt_secret (CG_AUTH_JWT_SECRET)")

// Serve runs the admin API and the reconcile job until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	if !a.JWT().Enabled() {
		return ErrAuthDisabled
	}
	runner, err := a.StartCron(ctx)
	if err != nil {
		a.Logger.Warn("cron register reconcile failed", zap.Error(err))
	}
	if runner != nil {
		defer runner.Stop()
	}

	srv := &http.Server{
		Addr:              a.Config.Server.HTTPAddr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server started", zap.String("addr", srv.Addr), zap.Bool("auth", a.JWT().Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.Logger.Info("http server stopped")
	return nil
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("took", time.Since(start)),
		}
		switch {
		case status >= 500:
			log.Warn("http request", fields...)
		default:
			log.Debug("http request", fields...)
		}
	}
}
