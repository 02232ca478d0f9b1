package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type WebhookSink struct {
	URL     string
	Project string
	http    *resty.Client
}

type webhookPayload struct {
	Project    string         `json:"project"`
	Event      string         `json:"event"`
	Message    string         `json:"message"`
	StrategyID string         `json:"strategy_id,omitempty"`
	Success    bool           `json:"success"`
	Detail     map[string]any `json:"detail,omitempty"`
	At         time.Time      `json:"at"`
}

func NewWebhookSink(url, project string, timeout time.Duration) *WebhookSink {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &WebhookSink{URL: url, Project: project, http: resty.New().SetTimeout(timeout)}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Send(ctx context.Context, ev Event) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(webhookPayload{
			Project:    s.Project,
			Event:      "strategy." + ev.Action,
			Message:    ev.Message,
			StrategyID: ev.StrategyID,
			Success:    ev.Success,
			Detail:     ev.Detail,
			At:         ev.At.UTC(),
		}).
		Post(s.URL)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("webhook http status %d", resp.StatusCode())
	}
	return nil
}
