package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nao1215/leakwatch/internal/model"
)

// Payload is the JSON body posted to the webhook.
type Payload struct {
	Company       string              `json:"company"`
	DetectionTime time.Time           `json:"detection_time"`
	LeakCount     int                 `json:"leak_count"`
	Leaks         []*model.LeakRecord `json:"leaks"`
}

// NewPayload builds the webhook body of an alert.
func NewPayload(alert Alert) Payload {
	leaks := alert.Leaks
	if leaks == nil {
		leaks = []*model.LeakRecord{}
	}
	return Payload{
		Company:       alert.Company,
		DetectionTime: alert.DetectedAt,
		LeakCount:     len(leaks),
		Leaks:         leaks,
	}
}

// WebhookSink posts alerts to an HTTP endpoint.
type WebhookSink struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// WebhookOption configures a WebhookSink.
type WebhookOption func(*WebhookSink)

// WithHTTPClient sets the client used for the POST.
func WithHTTPClient(c *http.Client) WebhookOption {
	return func(w *WebhookSink) {
		if c != nil {
			w.client = c
		}
	}
}

// WithWebhookTimeout bounds one delivery.
func WithWebhookTimeout(d time.Duration) WebhookOption {
	return func(w *WebhookSink) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// NewWebhookSink creates a WebhookSink posting to url.
func NewWebhookSink(url string, opts ...WebhookOption) *WebhookSink {
	w := &WebhookSink{
		url:     url,
		client:  http.DefaultClient,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name implements Sink.
func (w *WebhookSink) Name() string { return "webhook" }

// Send implements Sink. Any 2xx answer is a success.
func (w *WebhookSink) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(NewPayload(alert))
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024)) //nolint:errcheck

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %d", ErrWebhookStatus, resp.StatusCode)
	}
	return nil
}
