package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// WebhookSecretEnv names the webhook secret in ConfigurationError.Missing.
const WebhookSecretEnv = "WEBHOOK_SECRET"

var (
	// ErrNoChannel means the citizen has neither a channel handle nor a phone.
	ErrNoChannel = errors.New("citizen has no usable channel handle")

	// ErrUnauthorizedWebhook means the callback signature did not verify.
	ErrUnauthorizedWebhook = errors.New("webhook signature verification failed")
)

// ConfigurationError reports an invalid gateway configuration. It is only
// returned from New.
type ConfigurationError struct {
	Provider string
	Missing  []string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("messaging provider %s is missing required configuration: %s",
			e.Provider, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("messaging provider %s: %s", e.Provider, e.Reason)
}
