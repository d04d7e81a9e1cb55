package testutil

import (
	"net/http"
	"time"

	"outreach/pkg/requestcontext"
)

// WithOperator marks the request as authenticated, as the auth middleware would.
func WithOperator(req *http.Request, operator string) *http.Request {
	return req.WithContext(requestcontext.WithOperator(req.Context(), operator))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithUserAgent sets the header and the context value the metadata middleware
// would derive from it.
func WithUserAgent(req *http.Request, userAgent string) *http.Request {
	req.Header.Set("User-Agent", userAgent)
	ctx := requestcontext.WithClientMetadata(req.Context(), "192.0.2.1", userAgent)
	return req.WithContext(ctx)
}
