package models

import (
	"time"
)

// EndpointClass categorizes endpoints for differentiated rate limiting.
type EndpointClass string

const (
	// ClassPublic: citizen-facing endpoints keyed by client IP - /r, /surveys/{id}
	ClassPublic EndpointClass = "public"
	// ClassOperator: authenticated operator API keyed by operator
	ClassOperator EndpointClass = "operator"
)

// IsValid checks if the endpoint class is one of the supported enum values.
func (c EndpointClass) IsValid() bool {
	switch c {
	case ClassPublic, ClassOperator:
		return true
	}
	return false
}

// Limit is a sliding-window budget.
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits are used for classes without an explicit limit.
var DefaultLimits = map[EndpointClass]Limit{
	ClassPublic:   {Requests: 30, Window: time.Minute},
	ClassOperator: {Requests: 300, Window: time.Minute},
}

// RateLimitResult is the outcome of one check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RateLimitExceededResponse is the 429 body.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// Key builds the bucket key for a class and subject.
func Key(class EndpointClass, subject string) string {
	return "ratelimit:" + string(class) + ":" + subject
}
