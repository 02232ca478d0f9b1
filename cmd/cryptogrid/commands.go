package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/app"
	"github.com/ohlcv/VuePy-Stack/internal/auth"
	"github.com/ohlcv/VuePy-Stack/internal/config"
	"github.com/ohlcv/VuePy-Stack/internal/ipc"
	"github.com/ohlcv/VuePy-Stack/internal/lifecycle"
	"github.com/ohlcv/VuePy-Stack/internal/output"
	"github.com/ohlcv/VuePy-Stack/internal/repository"
)

var errUsage = errors.New("usage")

type commandLine struct {
	cfg    config.Config
	log    *zap.Logger
	opts   options
	format output.Format
	out    io.Writer

	build func(ctx context.Context) (*app.App, error)
}

func (c *commandLine) dispatch(ctx context.Context, args []string) error {
	name, rest := args[0], args[1:]
	switch name {
	case "help", "-h", "--help":
		return errUsage
	case "token":
		return c.token(rest)
	}

	need := map[string]int{
		"create": 2, "status": 1, "start": 1, "stop": 1, "delete": 1,
		"pairs": 1, "validate": 1, "logs": 1,
		"list": 0, "exchanges": 0, "pull-image": 0, "reconcile": 0, "cleanup": 0, "serve": 0, "audit": 0,
	}
	want, known := need[name]
	if !known {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", name)
		return errUsage
	}
	if len(rest) < want {
		fmt.Fprintf(os.Stderr, "%s needs %d argument(s)\n", name, want)
		return errUsage
	}

	a, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	m := a.Manager

	switch name {
	case "create":
		params := map[string]any{}
		if len(rest) > 2 {
			if err := json.Unmarshal([]byte(rest[2]), &params); err != nil {
				return fmt.Errorf("strategy parameters must be a JSON object: %w", err)
			}
		}
		params["exchange"] = rest[0]
		params["pair"] = rest[1]
		res := m.CreateStrategy(ctx, params)
		return c.report(res, res.Success)
	case "status":
		res := m.GetStatus(ctx, rest[0])
		return c.report(res, res.Success)
	case "list":
		res := m.ListStrategies(ctx)
		return c.report(res, res.Success)
	case "start":
		res := m.StartStrategy(ctx, rest[0])
		return c.report(res, res.Success)
	case "stop":
		res := m.StopStrategy(ctx, rest[0])
		return c.report(res, res.Success)
	case "delete":
		res := m.DeleteStrategy(ctx, rest[0])
		return c.report(res, res.Success)
	case "exchanges":
		return c.report(m.Exchanges(), true)
	case "pairs":
		testnet := false
		if len(rest) > 1 {
			if testnet, err = strconv.ParseBool(rest[1]); err != nil {
				return fmt.Errorf("testnet must be true or false: %w", err)
			}
		}
		res := m.TradingPairs(ctx, rest[0], testnet)
		return c.report(res, res.Success)
	case "validate":
		res := m.ValidateExchange(ctx, rest[0], arg(rest, 1), arg(rest, 2))
		return c.report(res, res.Success)
	case "logs":
		tail := c.cfg.Strategy.LogTail
		if len(rest) > 1 {
			if tail, err = strconv.Atoi(rest[1]); err != nil || tail < 0 {
				return fmt.Errorf("tail must be a non-negative integer")
			}
		}
		text, err := m.Logs(ctx, rest[0], tail)
		if err != nil {
			return err
		}
		_, err = io.WriteString(c.out, text)
		return err
	case "pull-image":
		res := m.EnsureImage(ctx, arg(rest, 0))
		return c.report(res, res.OK)
	case "reconcile":
		res := m.Reconcile(ctx)
		return c.report(res, res.Success)
	case "cleanup":
		res := m.Cleanup(ctx)
		return c.report(res, res.Success)
	case "audit":
		params := repository.ListAuditEventsParams{Limit: 50}
		if id := arg(rest, 0); id != "" {
			params.StrategyID = &id
		}
		items, err := a.Store.ListAuditEvents(ctx, params)
		if err != nil {
			return err
		}
		return c.report(items, true)
	case "serve":
		return a.Serve(ctx)
	}
	return errUsage
}

func (c *commandLine) open(ctx context.Context) (*app.App, error) {
	if c.build != nil {
		return c.build(ctx)
	}
	return app.Build(ctx, c.cfg, c.log, app.BuildOptions{AllowPull: c.opts.pullImage})
}

func (c *commandLine) token(rest []string) error {
	j := auth.JWT{Secret: []byte(c.cfg.Auth.JWTSecret), TokenTTL: c.cfg.Auth.TokenTTL}
	if !j.Enabled() {
		return errors.New("auth.jwt_secret (CG_AUTH_JWT_SECRET) is not set")
	}
	operator := arg(rest, 0)
	if operator == "" {
		operator = "operator"
	}
	tok, exp, err := j.Sign(auth.Claims{Operator: operator, Role: "admin"})
	if err != nil {
		return err
	}
	return c.report(map[string]any{
		"token":      tok,
		"operator":   operator,
		"expires_at": exp.UTC().Format(time.RFC3339),
	}, true)
}

// report prints v and turns an unsuccessful result into exit status 1.
func (c *commandLine) report(v any, success bool) error {
	if err := output.Write(c.out, c.format, v); err != nil {
		return err
	}
	if !success {
		return exitError{code: 1}
	}
	return nil
}

func arg(args []string, i int) string {
	if i < len(args) {
		return strings.TrimSpace(args[i])
	}
	return ""
}

// runIPC serves the protocol on stdin/stdout. The manager is built lazily
// by init or the first request so that the ready sentinel is written
// before docker or the database are touched.
func runIPC(ctx context.Context, cfg config.Config, log *zap.Logger, opts options) error {
	var built atomic.Pointer[app.App]
	factory := func(ctx context.Context) (ipc.Service, error) {
		a, err := app.Build(ctx, cfg, log, app.BuildOptions{AllowPull: opts.pullImage})
		if err != nil {
			return nil, err
		}
		built.Store(a)
		return a.Manager, nil
	}
	defer func() {
		if a := built.Load(); a != nil {
			_ = a.Close()
		}
	}()

	srv, err := ipc.NewServer(factory, ipc.Options{
		ReadySentinel: cfg.IPC.ReadySentinel,
		MaxLineBytes:  cfg.IPC.MaxLineBytes,
		Logger:        log.Named("ipc"),
	})
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, os.Stdin, os.Stdout) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		log.Info("ipc server interrupted")
		return nil
	}
}

var _ ipc.Service = (*lifecycle.Manager)(nil)
