// Package twilio is the secondary provider: a Twilio-style messages endpoint
// authenticated with an account SID and auth token.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"outreach/internal/messaging/providers"
	"outreach/pkg/delivery"
	"outreach/pkg/phone"
)

// Label identifies this provider.
const Label = "twilio"

// SignatureHeader carries "sha256=<hex>" on status callbacks.
const SignatureHeader = "X-Webhook-Signature"

const (
	defaultBaseURL = "https://api.twilio.com"
	defaultTimeout = 10 * time.Second
	channelPrefix  = "whatsapp:"
)

var vocabulary = map[string]delivery.Status{
	"accepted":    delivery.StatusSent,
	"queued":      delivery.StatusSent,
	"sending":     delivery.StatusSent,
	"sent":        delivery.StatusSent,
	"delivered":   delivery.StatusDelivered,
	"read":        delivery.StatusRead,
	"undelivered": delivery.StatusFailed,
	"failed":      delivery.StatusFailed,
	"canceled":    delivery.StatusFailed,
}

// Config configures the adapter. Zero values fall back to defaults.
type Config struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	Template   providers.TemplateConfig
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Provider implements providers.Provider.
type Provider struct {
	cfg    Config
	client *http.Client
}

var _ providers.Provider = (*Provider)(nil)

// New builds the adapter.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Label() string { return Label }

func (p *Provider) SignatureHeader() string { return SignatureHeader }

func (p *Provider) RequiredCredentials() []providers.Credential {
	return []providers.Credential{
		{Name: "TWILIO_ACCOUNT_SID", Value: p.cfg.AccountSID},
		{Name: "TWILIO_AUTH_TOKEN", Value: p.cfg.AuthToken},
		{Name: "TWILIO_FROM", Value: p.cfg.From},
	}
}

type messageRequest struct {
	From     string                     `json:"from"`
	To       string                     `json:"to"`
	Type     string                     `json:"type"`
	Text     *providers.TextPayload     `json:"text,omitempty"`
	Template *providers.TemplatePayload `json:"template,omitempty"`
}

type messageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Send posts a text or template message.
func (p *Provider) Send(ctx context.Context, to, body string, tmpl *providers.Template) (*providers.SendResult, error) {
	req := messageRequest{
		From: address(p.cfg.From),
		To:   address(to),
	}
	if tmpl != nil {
		payload := tmpl.Payload()
		req.Type = "template"
		req.Template = &payload
	} else {
		req.Type = "text"
		req.Text = &providers.TextPayload{Body: body}
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.AccountSID)
	raw, err := providers.PostJSON(ctx, p.client, Label, endpoint, req, func(r *http.Request) {
		r.SetBasicAuth(p.cfg.AccountSID, p.cfg.AuthToken)
	})
	if err != nil {
		return nil, err
	}

	var resp messageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, Label, http.StatusOK, "decode response", err)
	}
	if resp.SID == "" {
		return nil, providers.NewProviderError(providers.ErrorBadData, Label, http.StatusOK, "response carried no message sid", nil)
	}

	status := delivery.StatusSent
	if resp.Status != "" {
		status = p.MapStatus(resp.Status)
	}
	return &providers.SendResult{
		Success:   true,
		MessageID: resp.SID,
		Provider:  Label,
		Status:    status,
	}, nil
}

func (p *Provider) MapStatus(raw string) delivery.Status {
	return providers.MapStatus(vocabulary, raw)
}

func (p *Provider) BuildTemplate(recipientName, targetLink string) *providers.Template {
	return p.cfg.Template.Build(recipientName, targetLink)
}

type callback struct {
	MessageSID    string `json:"MessageSid"`
	MessageStatus string `json:"MessageStatus"`
	To            string `json:"To"`
	ErrorCode     string `json:"ErrorCode"`
	ErrorMessage  string `json:"ErrorMessage"`
	Timestamp     string `json:"Timestamp"`
}

// ParseStatusCallback handles the single-status callback this provider sends.
func (p *Provider) ParseStatusCallback(body []byte) ([]providers.DeliveryStatusEvent, error) {
	var cb callback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrMalformedPayload, err)
	}
	if cb.MessageSID == "" {
		return nil, nil
	}

	event := providers.DeliveryStatusEvent{
		MessageID:   cb.MessageSID,
		Status:      p.MapStatus(cb.MessageStatus),
		RawStatus:   cb.MessageStatus,
		RecipientID: phone.Clean(strings.TrimPrefix(cb.To, channelPrefix)),
		Provider:    Label,
	}
	if ts, err := time.Parse(time.RFC3339, cb.Timestamp); err == nil {
		event.Timestamp = ts.UTC()
	}
	if cb.ErrorCode != "" {
		event.Error = &providers.StatusError{Code: cb.ErrorCode, Title: cb.ErrorMessage}
	}
	return []providers.DeliveryStatusEvent{event}, nil
}

// address renders a normalized number in the channel's addressing scheme.
func address(number string) string {
	if number == "" || strings.HasPrefix(number, channelPrefix) {
		return number
	}
	return channelPrefix + "+" + phone.Clean(number)
}
