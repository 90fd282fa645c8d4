// Package notify pushes best-effort "verification complete" messages to the
// claim's origin channel. Failures here are logged and swallowed; they must
// never fail a verification job.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"claimcheck/internal/model"
)

// Notification is the completion payload pushed to the webhook
type Notification struct {
	ClaimID    string       `json:"claim_id"`
	Status     model.Status `json:"status"`
	Confidence float64      `json:"confidence"`
	Priority   int          `json:"priority"`
	// Publish flags results that met the auto-publish criteria
	Publish bool `json:"publish"`
}

// Notifier delivers notifications to a configured webhook
type Notifier struct {
	webhookURL string
	client     *http.Client
	limiter    *rate.Limiter
}

// New creates a Notifier. An empty webhook URL disables delivery.
func New(cfg model.NotifyConfig) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
	}
}

// Notify posts the notification. A nil return means delivered; callers log
// and ignore errors either way.
func (n *Notifier) Notify(ctx context.Context, notification Notification) error {
	if n.webhookURL == "" {
		return nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification status: %d", resp.StatusCode)
	}
	return nil
}
