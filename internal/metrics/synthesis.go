package metrics

import "github.com/prometheus/client_golang/prometheus"

// Answer synthesis Prometheus metrics.
var (
	SynthesisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reposcout",
			Name:      "synthesis_requests_total",
			Help:      "Total number of answer synthesis requests",
		},
		[]string{"provider", "model", "status"},
	)

	SynthesisRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reposcout",
			Name:      "synthesis_request_duration_seconds",
			Help:      "Answer synthesis request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"provider", "model"},
	)

	SynthesisTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reposcout",
			Name:      "synthesis_tokens_total",
			Help:      "Total synthesis tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)
)

var synthMetricsRegistered bool

// RegisterSynthesisMetrics registers Prometheus synthesis metrics. Must be called once from main.
func RegisterSynthesisMetrics() {
	if synthMetricsRegistered {
		return
	}
	prometheus.MustRegister(SynthesisRequestsTotal)
	prometheus.MustRegister(SynthesisRequestDuration)
	prometheus.MustRegister(SynthesisTokensTotal)
	synthMetricsRegistered = true
}
