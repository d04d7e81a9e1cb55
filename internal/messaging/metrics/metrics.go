package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the messaging module.
type Metrics struct {
	// Outbound sends by provider, mode and outcome
	Sends *prometheus.CounterVec

	// Provider call latency
	SendLatency *prometheus.HistogramVec

	// Webhook deliveries by outcome
	Webhooks *prometheus.CounterVec

	// Normalized status events by provider and status
	StatusEvents *prometheus.CounterVec
}

// New creates a Metrics instance registered on the default registry.
func New() *Metrics {
	return &Metrics{
		Sends: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_messaging_sends_total",
			Help: "Outbound messages by provider, mode and outcome",
		}, []string{"provider", "mode", "outcome"}), // outcome: "sent", "no_channel", or an error category

		SendLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outreach_messaging_send_duration_seconds",
			Help:    "Duration of outbound provider calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),

		Webhooks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_messaging_webhooks_total",
			Help: "Inbound status callbacks by outcome",
		}, []string{"outcome"}), // outcome: "accepted", "unauthorized", "malformed"

		StatusEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "outreach_messaging_status_events_total",
			Help: "Normalized delivery status events by provider and status",
		}, []string{"provider", "status"}),
	}
}

func (m *Metrics) IncrementSend(provider, mode, outcome string) {
	if m != nil {
		m.Sends.WithLabelValues(provider, mode, outcome).Inc()
	}
}

func (m *Metrics) ObserveSendLatency(provider string, d time.Duration) {
	if m != nil {
		m.SendLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementWebhook(outcome string) {
	if m != nil {
		m.Webhooks.WithLabelValues(outcome).Inc()
	}
}

// IncrementStatusEvent buckets unknown statuses under "other" to bound cardinality.
func (m *Metrics) IncrementStatusEvent(provider, status string, known bool) {
	if m == nil {
		return
	}
	if !known {
		status = "other"
	}
	m.StatusEvents.WithLabelValues(provider, status).Inc()
}
