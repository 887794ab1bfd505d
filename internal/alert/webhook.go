// Package alert delivers domain check notifications to a webhook.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/maildns/internal/model"
)

// StatusError is returned when the webhook answers with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned %d", e.StatusCode)
}

// Temporary reports whether retrying could succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode < 400 || e.StatusCode >= 500
}

// Webhook posts alerts as JSON. With no URL configured alerts are only logged.
type Webhook struct {
	url      string
	template string
	logger   zerolog.Logger
	client   *http.Client
}

// NewWebhook creates a Webhook. template is "generic" or "slack".
func NewWebhook(url, template string, logger zerolog.Logger) *Webhook {
	return &Webhook{
		url:      url,
		template: template,
		logger:   logger.With().Str("component", "alert").Logger(),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Send delivers one alert.
func (w *Webhook) Send(ctx context.Context, a model.Alert) error {
	ev := w.logger.Info()
	if a.Severity == model.SeverityError {
		ev = w.logger.Error()
	}
	ev.Str("domain_id", a.DomainID).Str("domain", a.DomainName).Msg(a.Message)

	if w.url == "" {
		return nil
	}

	var body []byte
	var err error
	switch w.template {
	case "slack":
		body, err = buildSlackPayload(a)
	default:
		body, err = buildGenericPayload(a)
	}
	if err != nil {
		return fmt.Errorf("build webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook POST: %w", err)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &StatusError{StatusCode: resp.StatusCode}
}

// GenericPayload is the default JSON payload.
type GenericPayload struct {
	Event string      `json:"event"`
	Alert model.Alert `json:"alert"`
}

func buildGenericPayload(a model.Alert) ([]byte, error) {
	return json.Marshal(GenericPayload{
		Event: "mail_domain.dns." + a.Severity,
		Alert: a,
	})
}

func buildSlackPayload(a model.Alert) ([]byte, error) {
	emoji := ":information_source:"
	if a.Severity == model.SeverityError {
		emoji = ":rotating_light:"
	}

	blocks := []map[string]interface{}{
		{
			"type": "section",
			"text": map[string]string{
				"type": "mrkdwn",
				"text": fmt.Sprintf("%s *%s*", emoji, a.DomainName),
			},
		},
		{
			"type": "section",
			"text": map[string]string{
				"type": "mrkdwn",
				"text": a.Message,
			},
		},
		{
			"type": "context",
			"elements": []map[string]string{
				{"type": "mrkdwn", "text": fmt.Sprintf("*Domain ID:* %s", a.DomainID)},
			},
		},
	}

	return json.Marshal(map[string]interface{}{
		"text":   a.Message,
		"blocks": blocks,
	})
}
