// Package voice places outbound AI phone calls through a Retell-compatible
// REST API.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadline_backend/internal/escalation"
	"leadline_backend/platform/config"
	"leadline_backend/platform/logger"
	"leadline_backend/platform/phone"
)

type Client struct {
	apiKey     string
	apiBase    string
	agentID    string
	fromNumber string
	http       *http.Client
	log        *logger.Logger
}

// NewClient builds the voice client. Returns nil when the provider is not
// configured; the engine treats a nil initiator as a placement failure so
// the lead stays visible for manual follow-up.
func NewClient(cfg config.VoiceConfig, log *logger.Logger) *Client {
	if !cfg.IsVoiceEnabled() {
		return nil
	}

	apiBase := cfg.GetRetellAPIBase()
	if apiBase == "" {
		apiBase = "https://api.retellai.com"
	}

	return &Client{
		apiKey:     cfg.GetRetellAPIKey(),
		apiBase:    strings.TrimRight(apiBase, "/"),
		agentID:    cfg.GetRetellAgentID(),
		fromNumber: cfg.GetRetellFromNumber(),
		http:       &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
}

type createCallRequest struct {
	FromNumber       string            `json:"from_number"`
	ToNumber         string            `json:"to_number"`
	OverrideAgentID  string            `json:"override_agent_id,omitempty"`
	DynamicVariables map[string]string `json:"retell_llm_dynamic_variables,omitempty"`
}

type createCallResponse struct {
	CallID     string `json:"call_id"`
	CallStatus string `json:"call_status"`
}

// Initiate places the outbound call and returns the provider's call id. The
// lead and tenant context travels as dynamic variables so the agent can
// greet by name and pitch the right services.
func (c *Client) Initiate(ctx context.Context, callCtx escalation.CallContext) (string, error) {
	if c == nil {
		return "", fmt.Errorf("voice provider not configured")
	}

	from := c.fromNumber
	if callCtx.FromNumber != "" {
		from = callCtx.FromNumber
	}

	payload := createCallRequest{
		FromNumber:      phone.NormalizeE164(from),
		ToNumber:        phone.NormalizeE164(callCtx.LeadPhone),
		OverrideAgentID: c.agentID,
		DynamicVariables: map[string]string{
			"lead_name":     callCtx.LeadName,
			"business_name": callCtx.TenantName,
			"greeting":      callCtx.Greeting,
			"tone":          callCtx.Tone,
			"services":      strings.Join(callCtx.Services, ", "),
			"calendar_link": callCtx.CalendarLink,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal call payload: %w", err)
	}

	endpoint := c.apiBase + "/v2/create-phone-call"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("voice provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var call createCallResponse
	if err := json.Unmarshal(data, &call); err != nil {
		return "", fmt.Errorf("decode call response: %w", err)
	}
	if call.CallID == "" {
		return "", fmt.Errorf("voice provider returned empty call id")
	}

	c.log.Info("ai call placed", "call_id", call.CallID, "to", phone.NormalizeE164(callCtx.LeadPhone))
	return call.CallID, nil
}
