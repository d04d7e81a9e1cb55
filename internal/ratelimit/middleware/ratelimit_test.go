package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"outreach/internal/ratelimit/models"
	"outreach/internal/ratelimit/store/bucket"
	"outreach/pkg/requestcontext"
	"outreach/pkg/testutil"
)

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
	return nil, errors.New("redis unavailable")
}

type RateLimitSuite struct {
	suite.Suite
	logger *slog.Logger
	next   http.Handler
	calls  int
}

func TestRateLimitSuite(t *testing.T) {
	suite.Run(t, new(RateLimitSuite))
}

func (s *RateLimitSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.calls = 0
	s.next = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.calls++
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *RateLimitSuite) request(ip, operator string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/r?id=c1", nil)
	ctx := requestcontext.WithClientMetadata(req.Context(), ip, "test-agent")
	if operator != "" {
		ctx = requestcontext.WithOperator(ctx, operator)
	}
	return req.WithContext(ctx)
}

func (s *RateLimitSuite) TestPublicLimitByIP() {
	mw := New(bucket.NewInMemoryBucketStore(), s.logger,
		WithLimit(models.ClassPublic, models.Limit{Requests: 2, Window: time.Minute}))
	h := mw.RateLimit(models.ClassPublic)(s.next)

	for range 2 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, s.request("203.0.113.7", ""))
		s.Equal(http.StatusNoContent, rr.Code)
		s.Equal("2", rr.Header().Get("X-RateLimit-Limit"))
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, s.request("203.0.113.7", ""))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusTooManyRequests, "rate_limit_exceeded")
	s.NotEmpty(rr.Header().Get("Retry-After"))
	s.Equal("0", rr.Header().Get("X-RateLimit-Remaining"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, s.request("198.51.100.1", ""))
	s.Equal(http.StatusNoContent, rr.Code)
	s.Equal(3, s.calls)
}

func (s *RateLimitSuite) TestOperatorLimitByOperator() {
	mw := New(bucket.NewInMemoryBucketStore(), s.logger,
		WithLimit(models.ClassOperator, models.Limit{Requests: 1, Window: time.Minute}))
	h := mw.RateLimit(models.ClassOperator)(s.next)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, s.request("203.0.113.7", "ana"))
	s.Equal(http.StatusNoContent, rr.Code)

	// same operator from another address shares the budget
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, s.request("198.51.100.1", "ana"))
	s.Equal(http.StatusTooManyRequests, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, s.request("203.0.113.7", "bruno"))
	s.Equal(http.StatusNoContent, rr.Code)
}

func (s *RateLimitSuite) TestFailsOpenOnStoreError() {
	mw := New(failingStore{}, s.logger)
	rr := httptest.NewRecorder()
	mw.RateLimit(models.ClassPublic)(s.next).ServeHTTP(rr, s.request("203.0.113.7", ""))

	s.Equal(http.StatusNoContent, rr.Code)
	s.Empty(rr.Header().Get("X-RateLimit-Limit"))
}

func (s *RateLimitSuite) TestDisabled() {
	mw := New(failingStore{}, s.logger, WithDisabled(true))
	rr := httptest.NewRecorder()
	mw.RateLimit(models.ClassPublic)(s.next).ServeHTTP(rr, s.request("203.0.113.7", ""))
	s.Equal(http.StatusNoContent, rr.Code)
}

func (s *RateLimitSuite) TestNilMiddlewarePassesThrough() {
	var mw *Middleware
	rr := httptest.NewRecorder()
	mw.RateLimit(models.ClassPublic)(s.next).ServeHTTP(rr, s.request("203.0.113.7", ""))
	s.Equal(http.StatusNoContent, rr.Code)
}

func TestAnonymizeIP(t *testing.T) {
	cases := map[string]string{
		"203.0.113.77":        "203.0.113.0",
		"2001:db8:abcd:12::1": "2001:db8:abcd::",
		"unknown":             "invalid",
	}
	for in, want := range cases {
		if got := anonymizeIP(in); got != want {
			t.Errorf("anonymizeIP(%q) = %q, want %q", in, got, want)
		}
	}
}
