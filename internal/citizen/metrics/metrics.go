package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for citizen engagement.
type Metrics struct {
	Registrations prometheus.Counter

	// Outreach attempts by outcome: "sent", "failed"
	Outreach *prometheus.CounterVec

	// First link clicks by device class
	Clicks *prometheus.CounterVec

	// Survey responses by satisfaction score
	SurveyResponses *prometheus.CounterVec

	// Status events by result: "applied", "stale", "unmatched"
	StatusUpdates *prometheus.CounterVec
}

// New creates a Metrics instance registered on the default registry.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "outreach_citizen_registrations_total",
			Help: "Citizens registered through intake",
		}),
		Outreach: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_citizen_outreach_total",
			Help: "Outreach attempts by outcome",
		}, []string{"outcome"}),
		Clicks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_citizen_link_clicks_total",
			Help: "First survey link clicks by device class",
		}, []string{"device"}),
		SurveyResponses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_citizen_survey_responses_total",
			Help: "Survey responses by satisfaction score",
		}, []string{"satisfaction"}),
		StatusUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_citizen_status_updates_total",
			Help: "Delivery status events by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncrementRegistration() {
	if m != nil {
		m.Registrations.Inc()
	}
}

func (m *Metrics) IncrementOutreach(outcome string) {
	if m != nil {
		m.Outreach.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementClick(deviceClass string) {
	if m != nil {
		m.Clicks.WithLabelValues(deviceClass).Inc()
	}
}

func (m *Metrics) IncrementSurveyResponse(satisfaction int) {
	if m != nil {
		m.SurveyResponses.WithLabelValues(strconv.Itoa(satisfaction)).Inc()
	}
}

func (m *Metrics) IncrementStatusUpdate(result string) {
	if m != nil {
		m.StatusUpdates.WithLabelValues(result).Inc()
	}
}
