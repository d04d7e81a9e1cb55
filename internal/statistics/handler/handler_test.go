package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"outreach/internal/statistics"
	dErrors "outreach/pkg/domain-errors"
	"outreach/pkg/testutil"
)

type stubService struct {
	stats statistics.Statistics
	err   error
}

func (s stubService) Snapshot(context.Context) (statistics.Statistics, error) {
	return s.stats, s.err
}

func router(svc Service) http.Handler {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleStatistics(t *testing.T) {
	t.Run("renders the snapshot", func(t *testing.T) {
		stats := statistics.NewEngine().Calculate(nil)
		stats.Total = 3
		rr := testutil.DoRequest(router(stubService{stats: stats}), testutil.NewRequest(t, http.MethodGet, "/statistics"))

		testutil.AssertStatusOK(t, rr)
		resp := testutil.UnmarshalResponse[statistics.Statistics](t, rr)
		assert.Equal(t, 3, resp.Total)
	})

	t.Run("hides internal errors", func(t *testing.T) {
		svc := stubService{err: dErrors.Wrap(errors.New("db down"), dErrors.CodeInternal, "failed to load citizens")}
		rr := testutil.DoRequest(router(svc), testutil.NewRequest(t, http.MethodGet, "/statistics"))

		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
		assert.NotContains(t, rr.Body.String(), "db down")
	})
}
