package providers

import (
	"context"
	"fmt"
	"time"

	"outreach/pkg/delivery"
)

// Credential names a configuration value a provider needs in live mode.
type Credential struct {
	Name  string // e.g., "CLOUDAPI_TOKEN"
	Value string
}

// Missing reports whether the credential is unset.
func (c Credential) Missing() bool {
	return c.Value == ""
}

// SendResult is the outcome of a successful provider call.
type SendResult struct {
	Success   bool
	MessageID string
	Provider  string
	Status    delivery.Status
}

// StatusError carries the provider's failure detail for a failed message.
type StatusError struct {
	Code  string
	Title string
}

// DeliveryStatusEvent is the provider-neutral form of a status callback.
type DeliveryStatusEvent struct {
	MessageID   string
	Status      delivery.Status
	RawStatus   string
	Timestamp   time.Time
	RecipientID string
	Provider    string
	Error       *StatusError
}

// Provider is the contract every outbound channel implements. Adapters are
// stateless after construction and safe for concurrent use.
type Provider interface {
	// Label identifies the provider in results, errors, and metrics.
	Label() string

	// Send delivers body (or tmpl, when non-nil) to an already normalized
	// number. Failures are *ProviderError; there is no internal retry.
	Send(ctx context.Context, to, body string, tmpl *Template) (*SendResult, error)

	// MapStatus maps the provider vocabulary onto delivery.Status. Unknown
	// values are returned unchanged.
	MapStatus(raw string) delivery.Status

	// BuildTemplate builds the approved-template descriptor for a recipient.
	BuildTemplate(recipientName, targetLink string) *Template

	// ParseStatusCallback converts a verified callback body into events.
	ParseStatusCallback(body []byte) ([]DeliveryStatusEvent, error)

	// SignatureHeader is the header carrying the callback signature.
	SignatureHeader() string

	// RequiredCredentials lists what live mode needs.
	RequiredCredentials() []Credential
}

// MapStatus looks raw up in vocabulary and falls back to passing it through.
func MapStatus(vocabulary map[string]delivery.Status, raw string) delivery.Status {
	if s, ok := vocabulary[raw]; ok {
		return s
	}
	return delivery.Status(raw)
}

// MissingCredentials returns the names of unset credentials.
func MissingCredentials(p Provider) []string {
	var missing []string
	for _, c := range p.RequiredCredentials() {
		if c.Missing() {
			missing = append(missing, c.Name)
		}
	}
	return missing
}

// Factory constructs a provider variant.
type Factory func() (Provider, error)

// Registry maps provider names to factories. Selection happens once, when the
// gateway is built.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, f Factory) error {
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Build constructs the provider registered under name.
func (r *Registry) Build(name string) (Provider, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return f()
}
