package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query pipeline Prometheus metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reposcout",
			Name:      "queries_total",
			Help:      "Total number of queries by outcome",
		},
		[]string{"status"}, // "ok" / "degraded" / "invalid" / "error"
	)

	QueryStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reposcout",
			Name:      "query_stage_duration_seconds",
			Help:      "Duration of each query pipeline stage in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage"},
	)

	IndexLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reposcout",
			Name:      "index_loads_total",
			Help:      "Index artifact loads from backing storage by result",
		},
		[]string{"result"}, // "ok" / "error"
	)

	IndexVectors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "reposcout",
			Name:      "index_vectors",
			Help:      "Number of vectors in the loaded index",
		},
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers Prometheus query pipeline metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryStageDuration)
	prometheus.MustRegister(IndexLoadsTotal)
	prometheus.MustRegister(IndexVectors)
	queryMetricsRegistered = true
}
