// Package notify delivers reminder messages to users of the host platform.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/readerboard/readerboard-server/internal/logger"
)

// DailyReminder is the message of the daily notification job.
const DailyReminder = "Earn daily points for the READERBOARD by logging your pages read (or not-read) today!"

// Sender delivers one message to one user. Send reports whether delivery
// succeeded and never returns an error; failures are the sender's to log.
type Sender interface {
	Send(ctx context.Context, fid int64, message string) bool
}

// NoopSender accepts every message without delivering it.
type NoopSender struct {
	logger *slog.Logger
}

// NewNoopSender creates a sender used when no webhook is configured.
func NewNoopSender(log *slog.Logger) *NoopSender {
	if log == nil {
		log = logger.Discard().Logger
	}
	return &NoopSender{logger: log}
}

// Send logs the message and reports success.
func (s *NoopSender) Send(_ context.Context, fid int64, message string) bool {
	s.logger.Debug("notification dropped, no sender configured", "fid", fid, "message", message)
	return true
}

// WebhookSender posts each message as JSON to a configured URL.
type WebhookSender struct {
	url    string
	http   *http.Client
	logger *slog.Logger
}

// webhookPayload is the body of a webhook delivery.
type webhookPayload struct {
	FID     int64  `json:"fid"`
	Message string `json:"message"`
	SentAt  string `json:"sentAt"`
}

// NewWebhookSender creates a sender that posts to url.
func NewWebhookSender(url string, log *slog.Logger) *WebhookSender {
	if log == nil {
		log = logger.Discard().Logger
	}
	return &WebhookSender{
		url:    url,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: log,
	}
}

// Send posts the message. Any non-2xx response counts as a failure.
func (s *WebhookSender) Send(ctx context.Context, fid int64, message string) bool {
	if err := s.post(ctx, fid, message); err != nil {
		s.logger.Warn("notification failed", "fid", fid, "error", err)
		return false
	}
	return true
}

func (s *WebhookSender) post(ctx context.Context, fid int64, message string) error {
	body, err := json.Marshal(webhookPayload{
		FID:     fid,
		Message: message,
		SentAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// New selects the webhook sender when url is set and the noop sender
// otherwise.
func New(url string, log *slog.Logger) Sender {
	if url == "" {
		return NewNoopSender(log)
	}
	return NewWebhookSender(url, log)
}
