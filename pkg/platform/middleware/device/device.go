// Package device classifies the client behind a request from its User-Agent.
package device

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"outreach/pkg/requestcontext"
)

// Device classes. The set is closed so it can be used as a metric label.
const (
	ClassMobile  = "mobile"
	ClassDesktop = "desktop"
	ClassBot     = "bot"
	ClassUnknown = "unknown"
)

type contextKeyClass struct{}

// Classify maps a User-Agent header to a device class.
func Classify(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return ClassUnknown
	}
	ua := useragent.New(userAgent)
	switch {
	case ua.Bot():
		return ClassBot
	case ua.Mobile():
		return ClassMobile
	case ua.OS() == "":
		return ClassUnknown
	default:
		return ClassDesktop
	}
}

// Middleware stores the client's device class and User-Agent in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent := r.Header.Get("User-Agent")
		ctx := context.WithValue(r.Context(), contextKeyClass{}, Classify(userAgent))
		ctx = requestcontext.WithClientMetadata(ctx, requestcontext.ClientIP(ctx), userAgent)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Class returns the device class stored by Middleware, classifying the
// context's User-Agent when the middleware did not run.
func Class(ctx context.Context) string {
	if class, ok := ctx.Value(contextKeyClass{}).(string); ok {
		return class
	}
	return Classify(requestcontext.UserAgent(ctx))
}
