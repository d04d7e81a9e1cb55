package twilio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach/internal/messaging/providers"
	"outreach/internal/messaging/providers/contract"
	"outreach/pkg/delivery"
)

func newTestProvider(url string) *Provider {
	return New(Config{
		BaseURL:    url,
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "5511900000000",
		Template:   providers.TemplateConfig{Name: "HX-civic", Language: "pt_BR"},
	})
}

func TestSend(t *testing.T) {
	t.Run("posts with basic auth and channel addressing", func(t *testing.T) {
		var got messageRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "AC123", user)
			assert.Equal(t, "secret", pass)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
		}))
		defer srv.Close()

		result, err := newTestProvider(srv.URL).Send(context.Background(), "5511988887777", "Olá", nil)
		require.NoError(t, err)

		assert.Equal(t, "SM1", result.MessageID)
		assert.Equal(t, Label, result.Provider)
		assert.Equal(t, delivery.StatusSent, result.Status)

		assert.Equal(t, "whatsapp:+5511900000000", got.From)
		assert.Equal(t, "whatsapp:+5511988887777", got.To)
		assert.Equal(t, "text", got.Type)
		require.NotNil(t, got.Text)
		assert.Equal(t, "Olá", got.Text.Body)
		assert.Nil(t, got.Template)
	})

	t.Run("template without survey id omits the button", func(t *testing.T) {
		var got messageRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"sid":"SM2"}`))
		}))
		defer srv.Close()

		p := newTestProvider(srv.URL)
		_, err := p.Send(context.Background(), "5511988887777", "", p.BuildTemplate("Ana", "https://survey.example/s"))
		require.NoError(t, err)

		assert.Equal(t, "template", got.Type)
		require.NotNil(t, got.Template)
		assert.Len(t, got.Template.Components, 1)
	})
}

func TestProviderContract(t *testing.T) {
	p := newTestProvider("http://unused.test")

	(&contract.StatusMappingTest{
		Provider: p,
		Cases: map[string]delivery.Status{
			"queued":      delivery.StatusSent,
			"sending":     delivery.StatusSent,
			"sent":        delivery.StatusSent,
			"delivered":   delivery.StatusDelivered,
			"read":        delivery.StatusRead,
			"undelivered": delivery.StatusFailed,
			"failed":      delivery.StatusFailed,
		},
	}).Run(t)

	(&contract.TemplateTest{Provider: p}).Run(t)
}

func TestErrorContract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":20003,"message":"Authenticate","status":401}`))
	}))
	defer srv.Close()

	(&contract.ErrorContractTest{
		Name:           "bad credentials",
		Provider:       newTestProvider(srv.URL),
		ExpectedError:  providers.ErrorAuthentication,
		ExpectedStatus: http.StatusUnauthorized,
		ExpectedRetry:  false,
	}).Run(t)
}

func TestParseStatusCallback(t *testing.T) {
	p := newTestProvider("http://unused.test")

	t.Run("maps an undelivered callback", func(t *testing.T) {
		body := []byte(`{"MessageSid":"SM1","MessageStatus":"undelivered","To":"whatsapp:+5511988887777",
			"ErrorCode":"63016","ErrorMessage":"outside session window","Timestamp":"2025-01-01T12:00:00Z"}`)

		events, err := p.ParseStatusCallback(body)
		require.NoError(t, err)
		require.Len(t, events, 1)

		e := events[0]
		assert.Equal(t, "SM1", e.MessageID)
		assert.Equal(t, delivery.StatusFailed, e.Status)
		assert.Equal(t, "undelivered", e.RawStatus)
		assert.Equal(t, "5511988887777", e.RecipientID)
		assert.Equal(t, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), e.Timestamp)
		require.NotNil(t, e.Error)
		assert.Equal(t, "63016", e.Error.Code)
	})

	t.Run("callback without sid yields nothing", func(t *testing.T) {
		events, err := p.ParseStatusCallback([]byte(`{"MessageStatus":"sent"}`))
		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		_, err := p.ParseStatusCallback([]byte(`[`))
		assert.ErrorIs(t, err, providers.ErrMalformedPayload)
	})
}

func TestRequiredCredentials(t *testing.T) {
	missing := providers.MissingCredentials(New(Config{AccountSID: "AC1"}))
	assert.Equal(t, []string{"TWILIO_AUTH_TOKEN", "TWILIO_FROM"}, missing)
}
