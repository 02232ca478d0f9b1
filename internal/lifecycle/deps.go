package lifecycle

import (
	"context"
	"io"

	"github.com/ohlcv/VuePy-Stack/internal/audit"
	"github.com/ohlcv/VuePy-Stack/internal/container"
	"github.com/ohlcv/VuePy-Stack/internal/exchange"
	"github.com/ohlcv/VuePy-Stack/internal/image"
	"github.com/ohlcv/VuePy-Stack/internal/strategyconf"
)

type ConfigWriter interface {
	Write(id string, doc strategyconf.Document) (*strategyconf.Artifact, error)
	Remove(id string) error
	Exists(id string) bool
	IDs() ([]string, error)
}

type ExchangeValidator interface {
	Validate(ctx context.Context, id string, creds *exchange.Credentials) (bool, string)
}

type MarketSource interface {
	Exchanges() []exchange.Info
	LoadMarkets(ctx context.Context, id string, testnet bool) ([]string, error)
}

type ImageEnsurer interface {
	Ensure(ctx context.Context, repository, tag string, allowPull bool) image.Result
}

type Containers interface {
	ContainerName(id string) string
	Create(ctx context.Context, id, imageRef, workDir string) (*container.Handle, error)
	Status(ctx context.Context, id string) container.Report
	Describe(ctx context.Context, id string) container.Report
	Start(ctx context.Context, id string) (container.Outcome, error)
	Stop(ctx context.Context, id string) (container.Outcome, error)
	Remove(ctx context.Context, id string) error
	Logs(ctx context.Context, id string, tail int) (string, error)
	FollowLogs(ctx context.Context, id string, tail int) (io.ReadCloser, error)
	Managed(ctx context.Context) ([]container.Info, error)
	RemoveContainer(ctx context.Context, containerID string) error
}

type Auditor interface {
	Record(ctx context.Context, ev audit.Event)
}
