// Package cloudapi is the primary provider: a WhatsApp Cloud API style
// endpoint authenticated with a bearer token.
package cloudapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"outreach/internal/messaging/providers"
	"outreach/pkg/delivery"
	"outreach/pkg/phone"
)

// Label identifies this provider.
const Label = "cloudapi"

// SignatureHeader carries "sha256=<hex>" on status callbacks.
const SignatureHeader = "X-Hub-Signature-256"

const (
	defaultBaseURL    = "https://graph.facebook.com"
	defaultAPIVersion = "v21.0"
	defaultTimeout    = 10 * time.Second
)

var vocabulary = map[string]delivery.Status{
	"accepted":  delivery.StatusSent,
	"sent":      delivery.StatusSent,
	"delivered": delivery.StatusDelivered,
	"read":      delivery.StatusRead,
	"failed":    delivery.StatusFailed,
	"deleted":   delivery.StatusFailed,
}

// Config configures the adapter. Zero values fall back to defaults.
type Config struct {
	BaseURL       string
	APIVersion    string
	PhoneNumberID string
	AccessToken   string
	Template      providers.TemplateConfig
	Timeout       time.Duration
	HTTPClient    *http.Client
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
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
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
		{Name: "CLOUDAPI_TOKEN", Value: p.cfg.AccessToken},
		{Name: "CLOUDAPI_PHONE_NUMBER_ID", Value: p.cfg.PhoneNumberID},
	}
}

type messageRequest struct {
	MessagingProduct string                     `json:"messaging_product"`
	To               string                     `json:"to"`
	Type             string                     `json:"type"`
	Text             *providers.TextPayload     `json:"text,omitempty"`
	Template         *providers.TemplatePayload `json:"template,omitempty"`
}

type messageResponse struct {
	Messages []struct {
		ID            string `json:"id"`
		MessageStatus string `json:"message_status"`
	} `json:"messages"`
}

// Send posts a text or template message.
func (p *Provider) Send(ctx context.Context, to, body string, tmpl *providers.Template) (*providers.SendResult, error) {
	req := messageRequest{MessagingProduct: "whatsapp", To: to}
	if tmpl != nil {
		payload := tmpl.Payload()
		req.Type = "template"
		req.Template = &payload
	} else {
		req.Type = "text"
		req.Text = &providers.TextPayload{Body: body}
	}

	endpoint := fmt.Sprintf("%s/%s/%s/messages", strings.TrimRight(p.cfg.BaseURL, "/"), p.cfg.APIVersion, p.cfg.PhoneNumberID)
	raw, err := providers.PostJSON(ctx, p.client, Label, endpoint, req, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)
	})
	if err != nil {
		return nil, err
	}

	var resp messageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, providers.NewProviderError(providers.ErrorBadData, Label, http.StatusOK, "decode response", err)
	}
	if len(resp.Messages) == 0 || resp.Messages[0].ID == "" {
		return nil, providers.NewProviderError(providers.ErrorBadData, Label, http.StatusOK, "response carried no message id", nil)
	}

	status := delivery.StatusSent
	if s := resp.Messages[0].MessageStatus; s != "" {
		status = p.MapStatus(s)
	}
	return &providers.SendResult{
		Success:   true,
		MessageID: resp.Messages[0].ID,
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
	Entry []struct {
		Changes []struct {
			Value struct {
				Statuses []callbackStatus `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type callbackStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
	Errors      []struct {
		Code  int    `json:"code"`
		Title string `json:"title"`
	} `json:"errors"`
}

// ParseStatusCallback flattens every status of every entry. Message and
// other non-status notifications yield no events.
func (p *Provider) ParseStatusCallback(body []byte) ([]providers.DeliveryStatusEvent, error) {
	var cb callback
	if err := json.Unmarshal(body, &cb); err != nil {
		return nil, fmt.Errorf("%w: %v", providers.ErrMalformedPayload, err)
	}

	var events []providers.DeliveryStatusEvent
	for _, entry := range cb.Entry {
		for _, change := range entry.Changes {
			for _, st := range change.Value.Statuses {
				if st.ID == "" {
					continue
				}
				events = append(events, p.toEvent(st))
			}
		}
	}
	return events, nil
}

func (p *Provider) toEvent(st callbackStatus) providers.DeliveryStatusEvent {
	event := providers.DeliveryStatusEvent{
		MessageID:   st.ID,
		Status:      p.MapStatus(st.Status),
		RawStatus:   st.Status,
		RecipientID: phone.Clean(st.RecipientID),
		Provider:    Label,
	}
	if secs, err := strconv.ParseInt(st.Timestamp, 10, 64); err == nil {
		event.Timestamp = time.Unix(secs, 0).UTC()
	}
	if len(st.Errors) > 0 {
		event.Error = &providers.StatusError{
			Code:  strconv.Itoa(st.Errors[0].Code),
			Title: st.Errors[0].Title,
		}
	}
	return event
}
