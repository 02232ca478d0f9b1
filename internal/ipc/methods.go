package ipc

import (
	"context"
	"errors"
	"fmt"

	"github.com/ohlcv/VuePy-Stack/internal/exchange"
	"github.com/ohlcv/VuePy-Stack/internal/image"
	"github.com/ohlcv/VuePy-Stack/internal/lifecycle"
)

type Method string

const (
	MethodInit              Method = "init"
	MethodCreateStrategy    Method = "create_strategy"
	MethodStartStrategy     Method = "start_strategy"
	MethodStopStrategy      Method = "stop_strategy"
	MethodDeleteStrategy    Method = "delete_strategy"
	MethodGetStrategies     Method = "get_strategies"
	MethodGetStrategyStatus Method = "get_strategy_status"
	MethodGetExchanges      Method = "get_exchanges"
	MethodGetTradingPairs   Method = "get_trading_pairs"
	MethodValidateExchange  Method = "validate_exchange_connection"
	MethodCheckOrPullImage  Method = "check_or_pull_hummingbot_image"
)

// Methods is the complete protocol surface.
func Methods() []Method {
	return []Method{
		MethodInit,
		MethodCreateStrategy,
		MethodStartStrategy,
		MethodStopStrategy,
		MethodDeleteStrategy,
		MethodGetStrategies,
		MethodGetStrategyStatus,
		MethodGetExchanges,
		MethodGetTradingPairs,
		MethodValidateExchange,
		MethodCheckOrPullImage,
	}
}

// Service is what the protocol dispatches to.
type Service interface {
	CreateStrategy(ctx context.Context, raw map[string]any) lifecycle.CreateResult
	StartStrategy(ctx context.Context, id string) lifecycle.Result
	StopStrategy(ctx context.Context, id string) lifecycle.Result
	DeleteStrategy(ctx context.Context, id string) lifecycle.Result
	ListStrategies(ctx context.Context) lifecycle.ListResult
	GetStatus(ctx context.Context, id string) lifecycle.StatusResult
	Exchanges() []exchange.Info
	TradingPairs(ctx context.Context, exchangeID string, testnet bool) lifecycle.PairsResult
	ValidateExchange(ctx context.Context, exchangeID, apiKey, secret string) lifecycle.Result
	EnsureImage(ctx context.Context, tag string) image.Result
}

// Handler runs one method against an initialised service.
type Handler func(ctx context.Context, svc Service, args Args) (any, error)

func defaultHandlers() map[Method]Handler {
	return map[Method]Handler{
		MethodCreateStrategy: func(ctx context.Context, svc Service, args Args) (any, error) {
			params, err := args.Object(0, "params")
			if err != nil {
				return nil, err
			}
			return svc.CreateStrategy(ctx, params), nil
		},
		MethodStartStrategy: idHandler(func(ctx context.Context, svc Service, id string) any {
			return svc.StartStrategy(ctx, id)
		}),
		MethodStopStrategy: idHandler(func(ctx context.Context, svc Service, id string) any {
			return svc.StopStrategy(ctx, id)
		}),
		MethodDeleteStrategy: idHandler(func(ctx context.Context, svc Service, id string) any {
			return svc.DeleteStrategy(ctx, id)
		}),
		MethodGetStrategyStatus: idHandler(func(ctx context.Context, svc Service, id string) any {
			return svc.GetStatus(ctx, id)
		}),
		MethodGetStrategies: func(ctx context.Context, svc Service, _ Args) (any, error) {
			res := svc.ListStrategies(ctx)
			if !res.Success {
				return nil, errors.New(res.Message)
			}
			return res.Strategies, nil
		},
		MethodGetExchanges: func(_ context.Context, svc Service, _ Args) (any, error) {
			return svc.Exchanges(), nil
		},
		MethodGetTradingPairs: func(ctx context.Context, svc Service, args Args) (any, error) {
			ex, err := args.String(0, "exchange")
			if err != nil {
				return nil, err
			}
			testnet, err := args.OptBool(1, "testnet", false)
			if err != nil {
				return nil, err
			}
			res := svc.TradingPairs(ctx, ex, testnet)
			if !res.Success {
				return nil, errors.New(res.Message)
			}
			return res.Pairs, nil
		},
		MethodValidateExchange: func(ctx context.Context, svc Service, args Args) (any, error) {
			ex, err := args.String(0, "exchange")
			if err != nil {
				return nil, err
			}
			key, err := args.OptString(1, "apiKey", "")
			if err != nil {
				return nil, err
			}
			secret, err := args.OptString(2, "secret", "")
			if err != nil {
				return nil, err
			}
			return svc.ValidateExchange(ctx, ex, key, secret), nil
		},
		MethodCheckOrPullImage: func(ctx context.Context, svc Service, args Args) (any, error) {
			tag, err := args.OptString(0, "tag", "")
			if err != nil {
				return nil, err
			}
			return svc.EnsureImage(ctx, tag), nil
		},
	}
}

func idHandler(fn func(ctx context.Context, svc Service, id string) any) Handler {
	return func(ctx context.Context, svc Service, args Args) (any, error) {
		id, err := args.String(0, "strategyId")
		if err != nil {
			return nil, err
		}
		return fn(ctx, svc, id), nil
	}
}

// checkTable fails unless every method other than init has exactly one
// handler and no handler is registered for an unknown method.
func checkTable(handlers map[Method]Handler) error {
	known := map[Method]bool{}
	for _, m := range Methods() {
		known[m] = true
		if m == MethodInit {
			continue
		}
		if handlers[m] == nil {
			return fmt.Errorf("no handler for method %q", m)
		}
	}
	for m := range handlers {
		if !known[m] {
			return fmt.Errorf("handler registered for unknown method %q", m)
		}
		if m == MethodInit {
			return fmt.Errorf("init is handled by the server")
		}
	}
	return nil
}
