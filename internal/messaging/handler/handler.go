package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"outreach/internal/messaging/gateway"
	"outreach/internal/messaging/providers"
	dErrors "outreach/pkg/domain-errors"
	"outreach/pkg/platform/httputil"
	"outreach/pkg/requestcontext"
)

const maxWebhookBytes = 1 << 20

// Gateway verifies and parses inbound callbacks.
type Gateway interface {
	ProcessInboundStatus(ctx context.Context, body []byte, signature string) ([]providers.DeliveryStatusEvent, error)
	SignatureHeader() string
}

// StatusApplier applies parsed events to citizens and reports how many
// changed state.
type StatusApplier interface {
	ApplyStatusEvents(ctx context.Context, events []providers.DeliveryStatusEvent) (processed, ignored int, err error)
}

// Handler serves the provider webhook.
type Handler struct {
	gateway     Gateway
	applier     StatusApplier
	verifyToken string
	logger      *slog.Logger
}

// New constructs the webhook handler. verifyToken answers the subscription
// handshake; an empty token disables it.
func New(gw Gateway, applier StatusApplier, verifyToken string, logger *slog.Logger) *Handler {
	return &Handler{
		gateway:     gw,
		applier:     applier,
		verifyToken: verifyToken,
		logger:      logger,
	}
}

// Register mounts webhook endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/webhooks/messaging", h.HandleVerify)
	r.Post("/webhooks/messaging", h.HandleStatus)
}

// StatusResponse reports the outcome of one callback.
type StatusResponse struct {
	Processed int `json:"processed"`
	Ignored   int `json:"ignored"`
}

// HandleStatus handles POST /webhooks/messaging. The signature is checked on
// the raw body before anything is parsed.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable body"))
		return
	}

	events, err := h.gateway.ProcessInboundStatus(ctx, body, r.Header.Get(h.gateway.SignatureHeader()))
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorizedWebhook) {
			h.logger.WarnContext(ctx, "webhook rejected",
				"request_id", requestID,
				"client_ip", requestcontext.ClientIP(ctx),
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid signature"))
			return
		}
		h.logger.WarnContext(ctx, "webhook payload rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed status payload"))
		return
	}

	processed, ignored, err := h.applier.ApplyStatusEvents(ctx, events)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to apply status events",
			"request_id", requestID,
			"events", len(events),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "webhook processed",
		"request_id", requestID,
		"processed", processed,
		"ignored", ignored,
	)
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{Processed: processed, Ignored: ignored})
}

// HandleVerify answers the subscription handshake on GET /webhooks/messaging.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" || !h.tokenMatches(q.Get("hub.verify_token")) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "verification failed"))
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

// tokenMatches compares in constant time. An unset verify token matches nothing.
func (h *Handler) tokenMatches(provided string) bool {
	if h.verifyToken == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.verifyToken)) == 1
}
