package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/config"
	"github.com/ohlcv/VuePy-Stack/internal/logger"
	"github.com/ohlcv/VuePy-Stack/internal/output"
)

const defaultConfigPath = "config/config.yaml"

type options struct {
	ipc        bool
	pullImage  bool
	debug      bool
	logFile    string
	configPath string
	output     string
}

// exitError carries a process exit code for a command whose result was
// reported but unsuccessful.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

func main() {
	if err := run(os.Args[1:]); err != nil {
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	var opts options
	fs := pflag.NewFlagSet("cryptogrid", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.BoolVar(&opts.ipc, "ipc", false, "serve line-delimited JSON requests on stdin/stdout")
	fs.BoolVar(&opts.pullImage, "pull-image", false, "pull the strategy image when it is missing")
	fs.BoolVar(&opts.debug, "debug", false, "debug logging")
	fs.StringVar(&opts.logFile, "log-file", "", "also write logs to this rotating file")
	fs.StringVar(&opts.configPath, "config", "", "config file (env: CG_CONFIG, default "+defaultConfigPath+")")
	fs.StringVarP(&opts.output, "output", "o", "json", "output format: json|text")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	format, err := output.ParseFormat(opts.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}
	if strings.TrimSpace(opts.logFile) != "" {
		cfg.Log.File = strings.TrimSpace(opts.logFile)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.ipc {
		return runIPC(ctx, cfg, log, opts)
	}

	args := fs.Args()
	if len(args) == 0 {
		usage(fs)
		return exitError{code: 2}
	}
	cli := &commandLine{cfg: cfg, log: log, opts: opts, format: format, out: os.Stdout}
	err = cli.dispatch(ctx, args)
	if errors.Is(err, errUsage) {
		usage(fs)
		return exitError{code: 2}
	}
	if err != nil {
		log.Debug("command failed", zap.String("command", args[0]), zap.Error(err))
	}
	return err
}

// loadConfig reads the config file when present. Without an explicit path
// a missing default file falls back to defaults plus environment.
func loadConfig(path string) (config.Config, error) {
	explicit := true
	if path == "" {
		path = os.Getenv("CG_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
		explicit = false
	}
	envOnly := false
	if raw := os.Getenv("CG_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}
	if !envOnly && !explicit {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			envOnly = true
		}
	}
	return config.Load(path, envOnly)
}

func usage(fs *pflag.FlagSet) {
	fmt.Fprint(os.Stderr, `cryptogrid [flags] <command> [args]

Commands:
  create <exchange> <pair> [json]    create a grid strategy and its container
  status <id>                        strategy and container status
  list                               all strategies with live status
  start <id>                         start a strategy container
  stop <id>                          stop a strategy container
  delete <id>                        remove container, files and record
  exchanges                          supported exchanges
  pairs <exchange> [testnet]         trading pairs listed by an exchange
  validate <exchange> [key] [secret] check connectivity and credentials
  logs <id> [tail]                   recent container output
  pull-image [tag]                   ensure the strategy image is present
  reconcile                          sync stored status with containers
  cleanup                            remove orphan containers and files
  audit [id]                         recent lifecycle audit events
  serve                              admin HTTP API with periodic reconcile
  token [operator]                   mint an admin API token
  help                               this text

Flags:
`)
	fs.PrintDefaults()
}
