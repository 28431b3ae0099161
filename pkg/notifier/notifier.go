// Package notifier is the client-side dispatcher for alert notifications.
// Detectors hand it a Request; it validates locally, posts to the
// send-alert endpoint, and reports the outcome without retrying.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Request carries one alert dispatch. Transient: constructed per call,
// never persisted here.
type Request struct {
	UserID                string   `json:"user_id"`
	UserEmail             string   `json:"user_email"`
	UserName              string   `json:"user_name"`
	EmergencyContactEmail string   `json:"emergency_contact_email"`
	AlertType             string   `json:"alert_type"`
	Content               string   `json:"content,omitempty"`
	ThreatLevel           string   `json:"threat_level,omitempty"`
	Latitude              *float64 `json:"latitude,omitempty"`
	Longitude             *float64 `json:"longitude,omitempty"`
	AlertID               string   `json:"alert_id,omitempty"`
}

// Result is the uniform outcome shape. Success false carries a message
// describing either a local validation failure, a server rejection, or
// a network-level failure; the caller decides whether to retry.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logrus.Logger

	// ProviderKey is the services entry the health check inspects,
	// e.g. "mailgun". Connected means the delivery provider is wired,
	// not merely that the endpoint answered.
	ProviderKey string
}

func NewClient(baseURL string, logger *logrus.Logger) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		Logger:      logger,
		ProviderKey: "mailgun",
	}
}

// SendAlert dispatches one alert notification. Missing required fields
// fail fast with no network call.
func (c *Client) SendAlert(ctx context.Context, req Request) Result {
	if strings.TrimSpace(req.EmergencyContactEmail) == "" || strings.TrimSpace(req.UserName) == "" {
		return Result{
			Success: false,
			Message: "Missing required fields: emergency contact email or user name",
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/send-alert", bytes.NewReader(body))
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		// No response at all; distinct from a server rejection.
		if c.Logger != nil {
			c.Logger.WithError(err).Warn("send-alert request failed")
		}
		return Result{Success: false, Message: "notification service unreachable: " + err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		msg := fmt.Sprintf("send-alert failed with status %d", resp.StatusCode)
		if derr := json.NewDecoder(resp.Body).Decode(&errBody); derr == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		if c.Logger != nil {
			c.Logger.WithField("status", resp.StatusCode).Warn("send-alert rejected")
		}
		return Result{Success: false, Message: msg}
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		data = map[string]any{}
	}
	return Result{Success: true, Data: data}
}

// Healthy reports whether the notification service and its downstream
// email-delivery provider are both up.
func (c *Client) Healthy(ctx context.Context) bool {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		if c.Logger != nil {
			c.Logger.WithError(err).Warn("health check failed")
		}
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false
	}
	if body.Services[c.providerKey()] != "connected" {
		if c.Logger != nil {
			c.Logger.WithField("provider", c.providerKey()).Warn("delivery provider not connected")
		}
		return false
	}
	return body.Status == "healthy"
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (c *Client) providerKey() string {
	if c.ProviderKey != "" {
		return c.ProviderKey
	}
	return "mailgun"
}
