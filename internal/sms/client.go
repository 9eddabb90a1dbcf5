// Package sms sends text messages through a Twilio-compatible REST API.
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"leadline_backend/platform/config"
	"leadline_backend/platform/logger"
	"leadline_backend/platform/phone"
)

type Client struct {
	accountSID string
	authToken  string
	apiBase    string
	http       *http.Client
	log        *logger.Logger
}

// NewClient builds the SMS client. Returns nil when the provider is not
// configured; a nil client drops messages silently so local setups run
// without credentials.
func NewClient(cfg config.SMSConfig, log *logger.Logger) *Client {
	if !cfg.IsSMSEnabled() {
		return nil
	}

	apiBase := cfg.GetTwilioAPIBase()
	if apiBase == "" {
		apiBase = "https://api.twilio.com/2010-04-01"
	}

	return &Client{
		accountSID: cfg.GetTwilioAccountSID(),
		authToken:  cfg.GetTwilioAuthToken(),
		apiBase:    strings.TrimRight(apiBase, "/"),
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type messageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// Send delivers one SMS and returns the provider's message id.
func (c *Client) Send(ctx context.Context, to, from, body string) (string, error) {
	if c == nil {
		return "", nil
	}

	form := url.Values{}
	form.Set("To", phone.NormalizeE164(to))
	form.Set("From", phone.NormalizeE164(from))
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.apiBase, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("sms provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var msg messageResponse
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("decode sms response: %w", err)
	}

	c.log.Info("sms sent", "to", phone.NormalizeE164(to), "message_id", msg.SID)
	return msg.SID, nil
}
