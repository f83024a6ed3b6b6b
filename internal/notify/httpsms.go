// Rayguard - Intrusion Detection Demo with a Tamper-Evident Threat Ledger
// Copyright 2026 Rayguard Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rayguard/rayguard

package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

// DefaultHTTPSMSEndpoint is the httpSMS message send API.
const DefaultHTTPSMSEndpoint = "https://api.httpsms.com/v1/messages/send"

// HTTPSMSConfig configures the httpSMS notifier.
type HTTPSMSConfig struct {
	// Endpoint overrides the httpSMS API URL (for testing).
	Endpoint string

	// APIKey authenticates against httpSMS via the x-api-key header.
	APIKey string

	// From is the sending phone number registered with httpSMS.
	From string

	// To is the recipient phone number.
	To string

	// Timeout bounds a single send. Default 10s.
	Timeout time.Duration
}

// HTTPSMSNotifier sends alerts as SMS through the httpSMS gateway.
type HTTPSMSNotifier struct {
	endpoint string
	apiKey   string
	from     string
	to       string
	client   *http.Client
}

// smsPayload is the httpSMS send request body.
type smsPayload struct {
	Content   string `json:"content"`
	From      string `json:"from"`
	To        string `json:"to"`
	Encrypted bool   `json:"encrypted"`
}

// NewHTTPSMSNotifier creates an httpSMS-backed notifier.
func NewHTTPSMSNotifier(cfg HTTPSMSConfig) *HTTPSMSNotifier {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultHTTPSMSEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &HTTPSMSNotifier{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		from:     cfg.From,
		to:       cfg.To,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Send delivers the alert as a single SMS.
func (n *HTTPSMSNotifier) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(smsPayload{
		Content: alert.Content(),
		From:    n.from,
		To:      n.to,
	})
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// Drain a bounded slice of the body for the error message.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("httpsms returned status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
