package image

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/container"
)

const (
	DefaultRepository = "hummingbot/hummingbot"
	DefaultTag        = "latest"
)

type Options struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	ProbeURL       string
	ProbeTimeout   time.Duration
	Logger         *zap.Logger
}

// Result is reported to callers as {success, message}.
type Result struct {
	OK       bool   `json:"success"`
	Message  string `json:"message"`
	Image    string `json:"image"`
	Pulled   bool   `json:"pulled"`
	Attempts int    `json:"attempts"`
}

// Acquirer makes sure the workload image is available locally.
type Acquirer struct {
	rt    container.Runtime
	opts  Options
	log   *zap.Logger
	probe func(ctx context.Context) error
}

func NewAcquirer(rt container.Runtime, opts Options) *Acquirer {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 2 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	a := &Acquirer{rt: rt, opts: opts, log: log}
	a.probe = a.httpProbe
	return a
}

func Ref(repository, tag string) string {
	repository = strings.TrimSpace(repository)
	if repository == "" {
		repository = DefaultRepository
	}
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = DefaultTag
	}
	return repository + ":" + tag
}

func (a *Acquirer) Ensure(ctx context.Context, repository, tag string, allowPull bool) Result {
	ref := Ref(repository, tag)

	exists, err := a.rt.ImageExists(ctx, ref)
	if err != nil {
		a.log.Error("image lookup failed", zap.String("image", ref), zap.Error(err))
		return Result{Image: ref, Message: fmt.Sprintf("check image %s failed: %v", ref, err)}
	}
	if exists {
		return Result{OK: true, Image: ref, Message: fmt.Sprintf("image %s is present", ref)}
	}
	if !allowPull {
		a.log.Info("image missing and pull not allowed", zap.String("image", ref))
		return Result{Image: ref, Message: fmt.Sprintf("image %s not found locally; run with --pull-image to pull it", ref)}
	}

	attempts := 0
	permanent := false
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		a.log.Info("pulling image", zap.String("image", ref), zap.Int("attempt", attempts), zap.Int("max_attempts", a.opts.MaxAttempts))

		if perr := a.probe(ctx); perr != nil {
			if networkFailure(perr) {
				a.log.Warn("registry unreachable, skipping pull attempt", zap.String("image", ref), zap.Error(perr))
				return struct{}{}, fmt.Errorf("registry unreachable: %w", perr)
			}
			a.log.Warn("registry probe failed", zap.String("image", ref), zap.Error(perr))
		}

		if perr := a.rt.PullImage(ctx, ref); perr != nil {
			if Retryable(perr) {
				a.log.Warn("image pull failed, will retry", zap.String("image", ref), zap.Error(perr))
				return struct{}{}, perr
			}
			permanent = true
			return struct{}{}, backoff.Permanent(perr)
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(a.policy()),
		backoff.WithMaxTries(uint(a.opts.MaxAttempts)),
	)

	switch {
	case err == nil:
		a.log.Info("image pulled", zap.String("image", ref), zap.Int("attempts", attempts))
		return Result{OK: true, Image: ref, Pulled: true, Attempts: attempts, Message: fmt.Sprintf("pulled image %s", ref)}
	case permanent:
		a.log.Error("image pull failed", zap.String("image", ref), zap.Error(err))
		return Result{Image: ref, Attempts: attempts, Message: fmt.Sprintf("pull image %s failed: %v", ref, err)}
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return Result{Image: ref, Attempts: attempts, Message: fmt.Sprintf("pull image %s interrupted: %v", ref, err)}
	default:
		a.log.Error("image pull exhausted retries", zap.String("image", ref), zap.Int("attempts", attempts), zap.Error(err))
		return Result{Image: ref, Attempts: attempts, Message: fmt.Sprintf("pull image %s failed after reaching maximum retries (%d): %v", ref, attempts, err)}
	}
}

func (a *Acquirer) policy() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.opts.InitialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = a.opts.InitialBackoff << uint(a.opts.MaxAttempts)
	b.Reset()
	return b
}

func (a *Acquirer) httpProbe(ctx context.Context) error {
	if a.opts.ProbeURL == "" {
		return nil
	}
	resp, err := resty.New().SetTimeout(a.opts.ProbeTimeout).R().SetContext(ctx).Get(a.opts.ProbeURL)
	if err != nil {
		return err
	}
	if resp.StatusCode() >= 400 {
		a.log.Warn("registry probe returned error status", zap.Int("status", resp.StatusCode()))
	}
	return nil
}

// Retryable reports whether a pull error looks like a transient network
// failure.
func Retryable(err error) bool {
	return container.IsTransient(err)
}

func networkFailure(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "forcibly closed") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "deadline exceeded")
}
