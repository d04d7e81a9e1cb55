// Package contract holds reusable checks every provider adapter must pass.
package contract

import (
	"context"
	"errors"
	"testing"

	"outreach/internal/messaging/providers"
	"outreach/pkg/delivery"
)

// StatusMappingTest validates a provider's vocabulary lookup.
type StatusMappingTest struct {
	Provider providers.Provider
	Cases    map[string]delivery.Status
}

// Run checks every case and that unknown values pass through unchanged.
func (st *StatusMappingTest) Run(t *testing.T) {
	t.Helper()
	for raw, want := range st.Cases {
		if got := st.Provider.MapStatus(raw); got != want {
			t.Errorf("%s: MapStatus(%q) = %q, want %q", st.Provider.Label(), raw, got, want)
		}
		if !want.Known() {
			t.Errorf("%s: case %q maps to non-normalized status %q", st.Provider.Label(), raw, want)
		}
	}

	const unknown = "some_future_status"
	if got := st.Provider.MapStatus(unknown); got != delivery.Status(unknown) {
		t.Errorf("%s: unknown status should pass through, got %q", st.Provider.Label(), got)
	}
}

// TemplateTest validates template construction from a survey link.
type TemplateTest struct {
	Provider  providers.Provider
	LinkParam string
}

// Run checks that the link parameter is echoed back and omitted when absent.
func (tt *TemplateTest) Run(t *testing.T) {
	t.Helper()
	param := tt.LinkParam
	if param == "" {
		param = providers.DefaultLinkParam
	}

	withParam := tt.Provider.BuildTemplate("Maria", "https://survey.example/s?"+param+"=abc123")
	if withParam.RecipientName != "Maria" {
		t.Errorf("%s: recipient name not carried, got %q", tt.Provider.Label(), withParam.RecipientName)
	}
	if withParam.ButtonParam != "abc123" {
		t.Errorf("%s: expected button param abc123, got %q", tt.Provider.Label(), withParam.ButtonParam)
	}
	if n := len(withParam.Payload().Components); n != 2 {
		t.Errorf("%s: expected body and button components, got %d", tt.Provider.Label(), n)
	}

	without := tt.Provider.BuildTemplate("Maria", "https://survey.example/s")
	if without.ButtonParam != "" {
		t.Errorf("%s: expected empty button param, got %q", tt.Provider.Label(), without.ButtonParam)
	}
	for _, c := range without.Payload().Components {
		if c.Type == "button" {
			t.Errorf("%s: button component should be omitted when the link has no %q", tt.Provider.Label(), param)
		}
	}
}

// ErrorContractTest validates that send failures follow the taxonomy.
// Provider must be pointed at an endpoint that fails.
type ErrorContractTest struct {
	Name           string
	Provider       providers.Provider
	ExpectedError  providers.ErrorCategory
	ExpectedStatus int
	ExpectedRetry  bool
}

// Run executes a send and checks the resulting error.
func (ect *ErrorContractTest) Run(t *testing.T) {
	t.Helper()
	_, err := ect.Provider.Send(context.Background(), "5511988887777", "hello", nil)
	if err == nil {
		t.Fatalf("%s: expected error but got none", ect.Name)
	}

	if category := providers.GetCategory(err); category != ect.ExpectedError {
		t.Errorf("%s: expected error category %s, got %s", ect.Name, ect.ExpectedError, category)
	}
	if retryable := providers.IsRetryable(err); retryable != ect.ExpectedRetry {
		t.Errorf("%s: expected retryable=%v, got %v", ect.Name, ect.ExpectedRetry, retryable)
	}

	var pe *providers.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("%s: expected *ProviderError, got %T", ect.Name, err)
	}
	if pe.Provider != ect.Provider.Label() {
		t.Errorf("%s: expected provider label %s, got %s", ect.Name, ect.Provider.Label(), pe.Provider)
	}
	if pe.HTTPStatus != ect.ExpectedStatus {
		t.Errorf("%s: expected http status %d, got %d", ect.Name, ect.ExpectedStatus, pe.HTTPStatus)
	}
}
