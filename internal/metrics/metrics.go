// Package metrics exposes Prometheus collectors for predictions
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "foldpredict"

// Prediction outcomes
const (
	OutcomeSuccess    = "success"
	OutcomeInvalid    = "invalid"
	OutcomeUpstream   = "upstream_error"
	OutcomeProcessing = "processing_error"
	OutcomeStorage    = "storage_error"
)

var (
	predictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total prediction requests by outcome",
		},
		[]string{"outcome"},
	)

	foldingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "folding",
			Name:      "request_duration_seconds",
			Help:      "Duration of calls to the folding service",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"status"},
	)

	predictedResidues = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "predicted_residues",
			Help:      "Length of successfully predicted sequences",
			Buckets:   prometheus.LinearBuckets(100, 100, 10),
		},
	)

	purgedPredictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purged_predictions_total",
			Help:      "Predictions removed by retention cleanup",
		},
	)
)

func RecordPrediction(outcome string) {
	predictionsTotal.WithLabelValues(outcome).Inc()
}

func RecordFolding(elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	foldingDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

func RecordResidues(n int) {
	predictedResidues.Observe(float64(n))
}

func RecordPurged(n int) {
	purgedPredictions.Add(float64(n))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
