// Package webhook posts job lifecycle events to a configured endpoint.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/videokit/bgremove/internal/logging"
	"github.com/videokit/bgremove/pkg/models"
)

// Event names delivered to the endpoint.
const (
	EventJobCompleted = "job.completed"
	EventJobFailed    = "job.failed"
)

// Event is the payload posted for every notification.
type Event struct {
	Event     string                   `json:"event"`
	Timestamp time.Time                `json:"timestamp"`
	Result    *models.ProcessingResult `json:"result"`
}

// Notifier delivers job events to one HTTP endpoint. Delivery is best
// effort with a short retry; a dead endpoint never fails a job.
type Notifier struct {
	client *http.Client
	url    string
	secret string
	logger *logging.Logger
	delays []time.Duration
}

// NewNotifier creates a notifier for the given endpoint. An empty
// secret disables payload signing.
func NewNotifier(url, secret string, logger *logging.Logger) *Notifier {
	return &Notifier{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		url:    url,
		secret: secret,
		logger: logger,
		delays: []time.Duration{0, time.Second, 5 * time.Second},
	}
}

// NotifyResult sends a completed or failed event for a finished job.
func (n *Notifier) NotifyResult(ctx context.Context, result *models.ProcessingResult) error {
	event := EventJobCompleted
	if !result.Succeeded() {
		event = EventJobFailed
	}
	return n.notify(ctx, event, result)
}

func (n *Notifier) notify(ctx context.Context, event string, result *models.ProcessingResult) error {
	payload, err := json.Marshal(Event{
		Event:     event,
		Timestamp: time.Now().UTC(),
		Result:    result,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var lastErr error
	for attempt, delay := range n.delays {
		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if lastErr = n.deliver(ctx, event, payload); lastErr == nil {
			return nil
		}
		n.logger.Warnf("Webhook delivery attempt %d failed: %v", attempt+1, lastErr)
	}

	return fmt.Errorf("webhook delivery failed: %w", lastErr)
}

func (n *Notifier) deliver(ctx context.Context, event string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "bgremove-webhook/1.0")
	req.Header.Set("X-Webhook-Event", event)
	if n.secret != "" {
		req.Header.Set("X-Webhook-Signature", n.sign(payload))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

// sign generates the HMAC-SHA256 signature for a payload
func (n *Notifier) sign(payload []byte) string {
	h := hmac.New(sha256.New, []byte(n.secret))
	h.Write(payload)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}
