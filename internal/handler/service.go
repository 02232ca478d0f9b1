package handler

import (
	"context"
	"io"

	"github.com/ohlcv/VuePy-Stack/internal/exchange"
	"github.com/ohlcv/VuePy-Stack/internal/image"
	"github.com/ohlcv/VuePy-Stack/internal/lifecycle"
)

// Manager is the lifecycle surface exposed over HTTP.
type Manager interface {
	CreateStrategy(ctx context.Context, raw map[string]any) lifecycle.CreateResult
	StartStrategy(ctx context.Context, id string) lifecycle.Result
	StopStrategy(ctx context.Context, id string) lifecycle.Result
	DeleteStrategy(ctx context.Context, id string) lifecycle.Result
	ListStrategies(ctx context.Context) lifecycle.ListResult
	GetStatus(ctx context.Context, id string) lifecycle.StatusResult
	Logs(ctx context.Context, id string, tail int) (string, error)
	FollowLogs(ctx context.Context, id string, tail int) (io.ReadCloser, error)
	Exchanges() []exchange.Info
	TradingPairs(ctx context.Context, exchangeID string, testnet bool) lifecycle.PairsResult
	ValidateExchange(ctx context.Context, exchangeID, apiKey, secret string) lifecycle.Result
	EnsureImage(ctx context.Context, tag string) image.Result
	Reconcile(ctx context.Context) lifecycle.ReconcileResult
}
