// Package notify delivers backup outcomes to external channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/kestrelops/worksafe/internal/config"
	"github.com/kestrelops/worksafe/internal/logging"
	"github.com/kestrelops/worksafe/internal/types"
)

// WebhookNotifier posts the sync outcome as JSON to a configured endpoint.
// Delivery is strictly best-effort: failures are logged and returned for
// observability but never change the cycle's result.
type WebhookNotifier struct {
	logger *logging.Logger
	url    string
	client *http.Client
}

// webhookPayload is the wire format sent to the endpoint.
type webhookPayload struct {
	Event     string   `json:"event"`
	Status    string   `json:"status"`
	Hostname  string   `json:"hostname"`
	LastSync  string   `json:"lastSync,omitempty"`
	Error     string   `json:"error,omitempty"`
	Details   string   `json:"details,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	DurationS float64  `json:"durationSeconds"`
}

// NewWebhookNotifier creates a notifier from the webhook settings. When
// webhooks are disabled it returns nil, which callers treat as "no
// notifications".
func NewWebhookNotifier(cfg *config.Config, logger *logging.Logger) (*WebhookNotifier, error) {
	if cfg == nil || !cfg.WebhookEnabled {
		return nil, nil
	}
	if _, err := url.ParseRequestURI(cfg.WebhookURL); err != nil {
		return nil, fmt.Errorf("invalid webhook URL: %w", err)
	}

	timeout := cfg.WebhookTimeout
	if timeout <= 0 {
		timeout = 10
	}
	return &WebhookNotifier{
		logger: logger,
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}, nil
}

// SendSyncResult posts the result of one sync cycle.
func (w *WebhookNotifier) SendSyncResult(ctx context.Context, result types.SyncResult, duration time.Duration) error {
	if w == nil {
		return nil
	}

	hostname, _ := os.Hostname()
	status := "failure"
	if result.Success {
		status = "success"
		if len(result.Warnings) > 0 {
			status = "warning"
		}
	}

	payload := webhookPayload{
		Event:     "sync",
		Status:    status,
		Hostname:  hostname,
		LastSync:  result.LastSync,
		Error:     result.Error,
		Details:   result.Details,
		Warnings:  result.Warnings,
		DurationS: duration.Seconds(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned %s", resp.Status)
	}

	w.logger.Debug("Webhook delivered (%s)", status)
	return nil
}
