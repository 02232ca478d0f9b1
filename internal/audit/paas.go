package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// PaaSClient ships audit events to an easyweb3 platform log endpoint.
type PaaSClient struct {
	BaseURL string
	APIKey  string
	Agent   string

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	http *resty.Client
}

func NewPaaSClient(baseURL, apiKey, agent string, timeout time.Duration) *PaaSClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &PaaSClient{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		APIKey:  strings.TrimSpace(apiKey),
		Agent:   agent,
		http:    resty.New().SetTimeout(timeout).SetHeader("Content-Type", "application/json"),
	}
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func (c *PaaSClient) Name() string { return "paas" }

func (c *PaaSClient) login(ctx context.Context) error {
	if c.BaseURL == "" {
		return errors.New("paas base url is empty")
	}
	if c.APIKey == "" {
		return errors.New("paas api key is empty")
	}
	var lr loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"api_key": c.APIKey}).
		SetResult(&lr).
		Post(c.BaseURL + "/api/v1/auth/login")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("paas login http %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	exp, _ := time.Parse(time.RFC3339, strings.TrimSpace(lr.ExpiresAt))

	c.mu.Lock()
	c.token = strings.TrimSpace(lr.Token)
	c.expiresAt = exp
	c.mu.Unlock()
	return nil
}

func (c *PaaSClient) ensureToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	tok, exp := c.token, c.expiresAt
	c.mu.RUnlock()
	if tok == "" || (!exp.IsZero() && time.Until(exp) < 2*time.Minute) {
		if err := c.login(ctx); err != nil {
			return "", err
		}
		c.mu.RLock()
		tok = c.token
		c.mu.RUnlock()
	}
	return tok, nil
}

type createLogRequest struct {
	Agent      string         `json:"agent"`
	Action     string         `json:"action"`
	Level      string         `json:"level"`
	Details    map[string]any `json:"details"`
	SessionKey string         `json:"session_key"`
	Metadata   map[string]any `json:"metadata"`
}

func (c *PaaSClient) Send(ctx context.Context, ev Event) error {
	tok, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}
	level := "info"
	if !ev.Success {
		level = "error"
	}
	details := map[string]any{"message": ev.Message, "success": ev.Success}
	for k, v := range ev.Detail {
		details[k] = v
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(tok).
		SetBody(createLogRequest{
			Agent:      c.Agent,
			Action:     "strategy_" + ev.Action,
			Level:      level,
			Details:    details,
			SessionKey: ev.StrategyID,
			Metadata:   map[string]any{"strategy_id": ev.StrategyID, "at": ev.At.UTC().Format(time.RFC3339)},
		}).
		Post(c.BaseURL + "/api/v1/logs")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("paas create log http %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return nil
}
