package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"outreach/internal/citizen/models"
	"outreach/internal/citizen/service"
	dErrors "outreach/pkg/domain-errors"
	"outreach/pkg/platform/httputil"
	"outreach/pkg/platform/middleware/device"
	"outreach/pkg/requestcontext"
)

// Service defines the citizen operations exposed over HTTP.
type Service interface {
	Intake(ctx context.Context, cmd service.IntakeCommand) (*models.Citizen, error)
	Get(ctx context.Context, citizenID string) (*models.Citizen, error)
	List(ctx context.Context) ([]*models.Citizen, error)
	SendOutreach(ctx context.Context, citizenID string) (*service.OutreachResult, error)
	SendBatch(ctx context.Context, citizenIDs []string, concurrency int) (*service.BatchResult, error)
	RecordClick(ctx context.Context, citizenID, deviceClass string) (*models.Citizen, error)
	SubmitSurvey(ctx context.Context, citizenID string, cmd service.SurveyCommand) (*models.Citizen, error)
}

// Handler serves the operator API and the public citizen endpoints.
type Handler struct {
	service          Service
	logger           *slog.Logger
	surveyPageURL    string
	batchConcurrency int
}

// New creates a citizen Handler. surveyPageURL is where tracked links
// redirect; the citizen id is appended as a path segment.
func New(svc Service, logger *slog.Logger, surveyPageURL string, batchConcurrency int) *Handler {
	return &Handler{
		service:          svc,
		logger:           logger,
		surveyPageURL:    strings.TrimRight(surveyPageURL, "/"),
		batchConcurrency: batchConcurrency,
	}
}

// Register mounts the operator routes. Callers wrap r with authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/citizens", h.HandleIntake)
	r.Get("/citizens", h.HandleList)
	r.Get("/citizens/{id}", h.HandleGet)
	r.Post("/citizens/{id}/outreach", h.HandleSendOutreach)
	r.Post("/outreach/batch", h.HandleSendBatch)
}

// RegisterPublic mounts the citizen-facing routes, which carry no token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.With(device.Middleware).Get("/r", h.HandleClick)
	r.Post("/surveys/{id}", h.HandleSubmitSurvey)
}

// HandleIntake handles POST /citizens.
func (h *Handler) HandleIntake(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IntakeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.Intake(ctx, req.toCommand())
	if err != nil {
		h.logFailure(ctx, "citizen intake failed", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "citizen registered by operator",
		"request_id", requestID,
		"operator", requestcontext.Operator(ctx),
		"citizen_id", c.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, toCitizenResponse(c))
}

// HandleList handles GET /citizens.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	citizens, err := h.service.List(ctx)
	if err != nil {
		h.logFailure(ctx, "citizen list failed", err)
		httputil.WriteError(w, err)
		return
	}
	resp := CitizenListResponse{Citizens: make([]CitizenResponse, 0, len(citizens)), Total: len(citizens)}
	for _, c := range citizens {
		resp.Citizens = append(resp.Citizens, toCitizenResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /citizens/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure(ctx, "citizen lookup failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCitizenResponse(c))
}

// HandleSendOutreach handles POST /citizens/{id}/outreach.
func (h *Handler) HandleSendOutreach(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.service.SendOutreach(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.logFailure(ctx, "outreach send failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOutreachResponse(*result))
}

// HandleSendBatch handles POST /outreach/batch.
func (h *Handler) HandleSendBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	concurrency := req.Concurrency
	if concurrency == 0 {
		concurrency = h.batchConcurrency
	}

	result, err := h.service.SendBatch(ctx, req.CitizenIDs, concurrency)
	if err != nil {
		h.logFailure(ctx, "batch outreach failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBatchResponse(result))
}

// HandleClick handles GET /r?id=. The click is recorded before redirecting
// to the survey page.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	citizenID := strings.TrimSpace(r.URL.Query().Get("id"))
	if citizenID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "id is required"))
		return
	}

	if _, err := h.service.RecordClick(ctx, citizenID, device.Class(ctx)); err != nil {
		h.logFailure(ctx, "click tracking failed", err)
		httputil.WriteError(w, err)
		return
	}
	http.Redirect(w, r, h.surveyPageURL+"/"+url.PathEscape(citizenID), http.StatusFound)
}

// HandleSubmitSurvey handles POST /surveys/{id}.
func (h *Handler) HandleSubmitSurvey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SurveyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.service.SubmitSurvey(ctx, chi.URLParam(r, "id"), req.toCommand())
	if err != nil {
		h.logFailure(ctx, "survey submission failed", err)
		httputil.WriteError(w, err)
		return
	}
	resp, _ := c.SurveyResponse()
	httputil.WriteJSON(w, http.StatusCreated, SurveyAcceptedResponse{CitizenID: c.ID, AnsweredAt: resp.AnsweredAt})
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, attrs...)
		return
	}
	h.logger.ErrorContext(ctx, msg, attrs...)
}
