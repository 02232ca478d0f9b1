package exchange

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/ohlcv/VuePy-Stack/internal/apperr"
	"github.com/ohlcv/VuePy-Stack/internal/cache"
)

type APIError struct {
	Exchange string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Exchange, e.Status, body)
}

type Options struct {
	Timeout    time.Duration
	CatalogTTL time.Duration
	// BaseURLs replaces the REST host for an exchange id. "<id>:testnet"
	// replaces the testnet host.
	BaseURLs map[string]string
	Cache    cache.Store
	Logger   *zap.Logger
}

// Client talks to exchange public REST APIs.
type Client struct {
	http  *resty.Client
	opts  Options
	log   *zap.Logger
	cache cache.Store
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "cryptogrid-engine")
	return &Client{http: h, opts: opts, log: log, cache: opts.Cache}
}

func (c *Client) Exchanges() []Info {
	return Exchanges()
}

func (c *Client) Supported(id string) bool {
	return Supported(id)
}

// LoadMarkets returns BASE/QUOTE symbols, served from cache when fresh.
func (c *Client) LoadMarkets(ctx context.Context, id string, testnet bool) ([]string, error) {
	d, ok := lookup(id)
	if !ok {
		return nil, apperr.Validation("unsupported exchange: " + id)
	}
	key := fmt.Sprintf("markets:%s:%t", d.ID, testnet)
	if cached, found, err := cache.GetJSON[[]string](ctx, c.cache, key); err == nil && found {
		return cached, nil
	} else if err != nil {
		c.log.Warn("market cache read failed", zap.String("exchange", d.ID), zap.Error(err))
	}

	symbols, err := c.fetchMarkets(ctx, d, testnet)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, c.cache, key, symbols, c.opts.CatalogTTL); err != nil {
		c.log.Warn("market cache write failed", zap.String("exchange", d.ID), zap.Error(err))
	}
	return symbols, nil
}

// FetchMarkets always goes to the network.
func (c *Client) FetchMarkets(ctx context.Context, id string, testnet bool) ([]string, error) {
	d, ok := lookup(id)
	if !ok {
		return nil, apperr.Validation("unsupported exchange: " + id)
	}
	return c.fetchMarkets(ctx, d, testnet)
}

func (c *Client) fetchMarkets(ctx context.Context, d Descriptor, testnet bool) ([]string, error) {
	host, err := c.host(d, testnet)
	if err != nil {
		return nil, err
	}
	body, err := c.get(ctx, d, host+d.Path, d.Query, nil)
	if err != nil {
		return nil, err
	}
	if d.CodePath != "" {
		if code := gjson.GetBytes(body, d.CodePath); code.Exists() && code.String() != d.CodeOK {
			return nil, apperr.Wrap(apperr.KindRuntimeAPI, &APIError{Exchange: d.ID, Status: 200, Body: string(body)}, "load markets")
		}
	}
	symbols, err := d.extract(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRuntimeAPI, err, "load markets")
	}
	c.log.Debug("markets loaded", zap.String("exchange", d.ID), zap.Bool("testnet", testnet), zap.Int("count", len(symbols)))
	return normalize(symbols), nil
}

func (c *Client) host(d Descriptor, testnet bool) (string, error) {
	if testnet {
		if v := c.opts.BaseURLs[d.ID+":testnet"]; v != "" {
			return strings.TrimRight(v, "/"), nil
		}
		if d.TestnetURL == "" {
			return "", apperr.Validation(fmt.Sprintf("exchange %s has no testnet", d.ID))
		}
		return d.TestnetURL, nil
	}
	if v := c.opts.BaseURLs[d.ID]; v != "" {
		return strings.TrimRight(v, "/"), nil
	}
	return d.BaseURL, nil
}

func (c *Client) get(ctx context.Context, d Descriptor, url string, query map[string]string, headers map[string]string) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransientInfra, err, "request "+d.ID)
	}
	if resp.IsError() {
		apiErr := &APIError{Exchange: d.ID, Status: resp.StatusCode(), Body: resp.String()}
		switch {
		case resp.StatusCode() == 401 || resp.StatusCode() == 403:
			return nil, apperr.Wrap(apperr.KindValidation, apiErr, "credentials rejected")
		case resp.StatusCode() == 429 || resp.StatusCode() >= 500:
			return nil, apperr.Wrap(apperr.KindTransientInfra, apiErr, "request "+d.ID)
		default:
			return nil, apperr.Wrap(apperr.KindRuntimeAPI, apiErr, "request "+d.ID)
		}
	}
	return resp.Body(), nil
}
