package providers

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the provider returned invalid/malformed data
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates credential or permission issues
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorRejected indicates the provider refused the message itself
	ErrorRejected ErrorCategory = "rejected"

	// ErrorProviderOutage indicates the provider is unavailable
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorTransport indicates the request never got a response
	ErrorTransport ErrorCategory = "transport"
)

// ProviderError wraps provider failures with normalized categorization.
// HTTPStatus is zero for transport failures.
type ProviderError struct {
	Category   ErrorCategory
	Provider   string
	HTTPStatus int
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	status := "transport"
	if e.HTTPStatus != 0 {
		status = fmt.Sprintf("http %d", e.HTTPStatus)
	}
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s, %s]: %s: %v", e.Provider, e.Category, status, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s, %s]: %s", e.Provider, e.Category, status, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a normalized provider error. Retryability is a
// hint for callers; adapters never retry.
func NewProviderError(category ErrorCategory, provider string, httpStatus int, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorProviderOutage ||
		category == ErrorRateLimited ||
		category == ErrorTransport

	return &ProviderError{
		Category:   category,
		Provider:   provider,
		HTTPStatus: httpStatus,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// CategoryForStatus classifies a non-success HTTP status.
func CategoryForStatus(status int) ErrorCategory {
	switch {
	case status == 401 || status == 403:
		return ErrorAuthentication
	case status == 408 || status == 504:
		return ErrorTimeout
	case status == 429:
		return ErrorRateLimited
	case status >= 500:
		return ErrorProviderOutage
	default:
		return ErrorRejected
	}
}

// IsRetryable checks if an error is worth retrying
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error. Errors that are
// not provider errors report an empty category.
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrMalformedPayload = errors.New("malformed callback payload")
)
