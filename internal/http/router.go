// Package httpapi assembles the HTTP surface: shared middleware, operator
// routes behind bearer auth, rate-limited public citizen routes, the
// provider webhook, health and metrics.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	ratelimit "outreach/internal/ratelimit/middleware"
	"outreach/internal/ratelimit/models"
	"outreach/pkg/platform/httputil"
	"outreach/pkg/platform/middleware/auth"
	"outreach/pkg/platform/middleware/metadata"
	"outreach/pkg/platform/middleware/request"
	"outreach/pkg/platform/middleware/requesttime"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// PublicRegistrar mounts routes that carry no operator token.
type PublicRegistrar interface {
	RegisterPublic(r chi.Router)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps collects everything the router serves.
type Deps struct {
	Logger       *slog.Logger
	Validator    auth.JWTValidator
	Latency      request.LatencyObserver
	Citizens     interface {
		Registrar
		PublicRegistrar
	}
	Statistics   Registrar
	Webhooks     Registrar
	Metrics      http.Handler
	HealthChecks map[string]HealthCheck
	Timeout      time.Duration
	RateLimit    *ratelimit.Middleware
}

// NewRouter wires all endpoints.
func NewRouter(d Deps) http.Handler {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(d.Logger))
	r.Use(request.Latency(d.Latency))

	r.Get("/health", healthHandler(d.HealthChecks))
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(timeout))
		if d.Webhooks != nil {
			d.Webhooks.Register(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(timeout))
		r.Use(d.RateLimit.RateLimit(models.ClassPublic))
		if d.Citizens != nil {
			d.Citizens.RegisterPublic(r)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(timeout))
		r.Use(auth.RequireAuth(d.Validator, d.Logger))
		r.Use(d.RateLimit.RateLimit(models.ClassOperator))
		if d.Citizens != nil {
			d.Citizens.Register(r)
		}
		if d.Statistics != nil {
			d.Statistics.Register(r)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
