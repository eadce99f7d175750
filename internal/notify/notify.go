// Package notify posts scan events to a user supplied webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/certwatch-app/cw-inspector/internal/inspector"
	"github.com/certwatch-app/cw-inspector/internal/version"
)

// Event types
const (
	EventScanCompleted      = "scan.completed"
	EventScanFailed         = "scan.failed"
	EventCertificateRotated = "certificate.rotated"
)

// maxErrorBody bounds how much of a failed response is quoted in errors
const maxErrorBody = 512

// Event is the webhook payload
// Fields are ordered for optimal memory alignment
type Event struct {
	SentAt         time.Time             `json:"sent_at"`
	Report         *inspector.ScanReport `json:"report,omitempty"`
	Type           string                `json:"event"`
	Domain         string                `json:"domain"`
	Error          string                `json:"error,omitempty"`
	Kind           string                `json:"kind,omitempty"`
	PreviousSerial string                `json:"previous_serial,omitempty"`
	Agent          string                `json:"agent"`
}

// ReportEvent builds a completion event for a report
func ReportEvent(report *inspector.ScanReport) Event {
	return Event{
		Type:   EventScanCompleted,
		Domain: report.Domain.String(),
		Report: report,
	}
}

// FailureEvent builds a failure event for a scan error
func FailureEvent(domain string, err error) Event {
	return Event{
		Type:   EventScanFailed,
		Domain: domain,
		Error:  err.Error(),
		Kind:   string(inspector.KindOf(err)),
	}
}

// RotationEvent builds an event for a certificate whose serial changed
func RotationEvent(report *inspector.ScanReport, previousSerial string) Event {
	return Event{
		Type:           EventCertificateRotated,
		Domain:         report.Domain.String(),
		Report:         report,
		PreviousSerial: previousSerial,
	}
}

// Client delivers events to a webhook URL
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	url        string
}

// New creates a webhook Client
func New(url string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Send posts ev as JSON. Any non-2xx response is an error.
func (c *Client) Send(ctx context.Context, ev Event) error {
	if ev.SentAt.IsZero() {
		ev.SentAt = time.Now().UTC()
	}
	ev.Agent = version.UserAgent()

	jsonData, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	c.logger.Debug("sending webhook",
		zap.String("event", ev.Type),
		zap.String("domain", ev.Domain),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
