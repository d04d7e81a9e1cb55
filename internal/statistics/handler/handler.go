package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"outreach/internal/statistics"
	"outreach/pkg/platform/httputil"
	"outreach/pkg/requestcontext"
)

// Service produces statistics snapshots.
type Service interface {
	Snapshot(ctx context.Context) (statistics.Statistics, error)
}

// Handler serves the operator statistics report.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Register mounts GET /statistics. Callers wrap r with authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/statistics", h.HandleStatistics)
}

func (h *Handler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Snapshot(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "statistics snapshot failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
