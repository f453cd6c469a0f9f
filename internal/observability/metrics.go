package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	latencySeconds        *prometheus.HistogramVec
	errorsTotal           *prometheus.CounterVec
	statusChangesTotal    *prometheus.CounterVec
	consensusGateOutcomes *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the evaluation API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketplace_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		statusChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_status_changes_total",
			Help: "Lifecycle transitions applied, by subject and target status.",
		}, []string{"subject", "status"})

		consensusGateOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_consensus_gate_total",
			Help: "Outcomes of consensus phase advance attempts.",
		}, []string{"outcome"})

		prometheus.MustRegister(requestsTotal, latencySeconds, errorsTotal,
			statusChangesTotal, consensusGateOutcomes)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// StatusChanges exposes the lifecycle transition counter.
func StatusChanges() *prometheus.CounterVec {
	RegisterMetrics()
	return statusChangesTotal
}

// ConsensusGate exposes the counter for consensus advance outcomes.
func ConsensusGate() *prometheus.CounterVec {
	RegisterMetrics()
	return consensusGateOutcomes
}
