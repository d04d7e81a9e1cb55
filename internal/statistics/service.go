package statistics

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"outreach/internal/citizen/models"
	dErrors "outreach/pkg/domain-errors"
	"outreach/pkg/requestcontext"
)

// Store is the snapshot source.
type Store interface {
	FindAll(ctx context.Context) ([]*models.Citizen, error)
}

// Metrics mirrors the latest snapshot as gauges.
type Metrics struct {
	Citizens            *prometheus.GaugeVec
	AverageSatisfaction prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		Citizens: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "outreach_citizens",
			Help: "Citizens by engagement status at the last statistics snapshot",
		}, []string{"engagement_status"}),
		AverageSatisfaction: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "outreach_average_satisfaction",
			Help: "Average survey satisfaction at the last statistics snapshot",
		}),
	}
}

func (m *Metrics) record(stats Statistics) {
	if m == nil {
		return
	}
	for status, n := range stats.EngagementBreakdown {
		m.Citizens.WithLabelValues(status.String()).Set(float64(n))
	}
	m.AverageSatisfaction.Set(stats.AverageSatisfaction)
}

// Service loads a snapshot and calculates the report.
type Service struct {
	store   Store
	engine  *Engine
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("citizen store is required")
	}
	s := &Service{store: store, engine: NewEngine()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Snapshot calculates statistics over every stored citizen.
func (s *Service) Snapshot(ctx context.Context) (Statistics, error) {
	citizens, err := s.store.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load statistics snapshot",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return Statistics{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load citizens")
	}
	stats := s.engine.Calculate(citizens)
	s.metrics.record(stats)
	return stats, nil
}
