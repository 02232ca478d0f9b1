package container

import (
	"context"
	"io"
	"time"
)

// Raw runtime states as reported by the engine.
const (
	StateCreated    = "created"
	StateRunning    = "running"
	StatePaused     = "paused"
	StateRestarting = "restarting"
	StateRemoving   = "removing"
	StateExited     = "exited"
	StateDead       = "dead"
)

const (
	LabelManaged    = "cryptogrid.managed"
	LabelStrategyID = "cryptogrid.strategy_id"
)

// Info describes one container as seen by the runtime.
type Info struct {
	ID      string
	Name    string
	Image   string
	State   string
	Created time.Time
	Labels  map[string]string
}

type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// Spec is what Create needs to build a container.
type Spec struct {
	Name   string
	Image  string
	Env    []string
	Labels map[string]string
	Mounts []Mount
}

// Runtime is the container engine collaborator. Missing objects are
// reported with apperr.KindNotFound except FindByName, which returns nil.
type Runtime interface {
	Ping(ctx context.Context) error
	FindByName(ctx context.Context, name string) (*Info, error)
	ListByLabel(ctx context.Context, key, value string) ([]Info, error)
	Inspect(ctx context.Context, id string) (*Info, error)
	Create(ctx context.Context, spec Spec) (string, error)
	Start(ctx context.Context, id string) error
	Stop(ctx context.Context, id string) error
	Remove(ctx context.Context, id string, force bool) error
	Logs(ctx context.Context, id string, tail int) (string, error)
	FollowLogs(ctx context.Context, id string, tail int) (io.ReadCloser, error)
	ImageExists(ctx context.Context, ref string) (bool, error)
	PullImage(ctx context.Context, ref string) error
	Close() error
}
