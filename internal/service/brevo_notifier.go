package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tooffoundation/site-backend/internal/observability"
)

const DefaultBrevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type BrevoSettings struct {
	APIKey    string
	Endpoint  string
	FromName  string
	FromEmail string
	Timeout   time.Duration
}

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoEmailRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent,omitempty"`
}

// BrevoPasswordResetNotifier delivers reset codes through the Brevo
// transactional email API.
type BrevoPasswordResetNotifier struct {
	settings BrevoSettings
	client   *http.Client
	now      func() time.Time
}

func NewBrevoPasswordResetNotifier(settings BrevoSettings) (*BrevoPasswordResetNotifier, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("brevo api key is required")
	}
	if settings.Endpoint == "" {
		settings.Endpoint = DefaultBrevoEndpoint
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	return &BrevoPasswordResetNotifier{
		settings: settings,
		client: &http.Client{
			Timeout:   settings.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}, nil
}

func (n *BrevoPasswordResetNotifier) SendPasswordResetCode(ctx context.Context, notification PasswordResetNotification) error {
	start := time.Now()
	outcome := "success"
	defer func() { observability.RecordNotificationDelivery(ctx, "brevo", outcome, time.Since(start)) }()

	rendered, err := renderPasswordResetEmail(notification, n.now())
	if err != nil {
		outcome = "error"
		return err
	}
	payload, err := json.Marshal(brevoEmailRequest{
		Sender:      brevoContact{Name: n.settings.FromName, Email: n.settings.FromEmail},
		To:          []brevoContact{{Email: notification.Email}},
		Subject:     rendered.Subject,
		HTMLContent: rendered.HTML,
		TextContent: rendered.Text,
	})
	if err != nil {
		outcome = "error"
		return fmt.Errorf("encode brevo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.settings.Endpoint, bytes.NewReader(payload))
	if err != nil {
		outcome = "error"
		return fmt.Errorf("build brevo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", n.settings.APIKey)

	resp, err := n.client.Do(req)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("send brevo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = "rejected"
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("brevo api status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
