package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for ledger operations.
type Metrics struct {
	CredentialsMinted   prometheus.Counter
	CredentialsVerified prometheus.Counter
	Endorsements        prometheus.Counter
	StakedTotal         prometheus.Counter
	RejectedOperations  *prometheus.CounterVec
	OperationLatency    *prometheus.HistogramVec
	EndpointLatency     *prometheus.HistogramVec
	EventPublishErrors  *prometheus.CounterVec
}

// New registers ledger metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers ledger metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CredentialsMinted: factory.NewCounter(prometheus.CounterOpts{
			Name: "skillchain_credentials_minted_total",
			Help: "Total number of credentials minted",
		}),
		CredentialsVerified: factory.NewCounter(prometheus.CounterOpts{
			Name: "skillchain_credentials_verified_total",
			Help: "Total number of successful verify calls, including repeats",
		}),
		Endorsements: factory.NewCounter(prometheus.CounterOpts{
			Name: "skillchain_endorsements_total",
			Help: "Total number of endorsements recorded",
		}),
		StakedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "skillchain_staked_total",
			Help: "Sum of all stakes reserved by endorsements",
		}),
		RejectedOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "skillchain_rejected_operations_total",
			Help: "Operations that failed, labeled by operation and error code",
		}, []string{"operation", "code"}),
		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillchain_operation_latency_seconds",
			Help:    "Latency of ledger operations in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillchain_endpoint_latency_seconds",
			Help:    "Latency of HTTP endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		EventPublishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "skillchain_event_publish_errors_total",
			Help: "Events that could not be handed to the event sink, labeled by type",
		}, []string{"type"}),
	}
}

func (m *Metrics) IncrementMinted() {
	m.CredentialsMinted.Inc()
}

func (m *Metrics) IncrementVerified() {
	m.CredentialsVerified.Inc()
}

// IncrementEndorsed records one endorsement and its stake.
func (m *Metrics) IncrementEndorsed(stake uint64) {
	m.Endorsements.Inc()
	m.StakedTotal.Add(float64(stake))
}

func (m *Metrics) IncrementRejected(operation, code string) {
	m.RejectedOperations.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) ObserveOperationLatency(operation string, durationSeconds float64) {
	m.OperationLatency.WithLabelValues(operation).Observe(durationSeconds)
}

// ObserveEndpointLatency records the latency for a given endpoint
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

func (m *Metrics) IncrementPublishErrors(eventType string) {
	m.EventPublishErrors.WithLabelValues(eventType).Inc()
}
