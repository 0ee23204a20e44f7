// Package metrics exposes Prometheus counters for upload runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "beaconcheck"

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Upload runs by final status.",
	}, []string{"status"})
	rowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rows_verified_total",
		Help:      "Verified CSV rows by outcome.",
	}, []string{"status"})
	capturedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captured_responses_total",
		Help:      "Matching network responses captured during page visits.",
	})
	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "actions_total",
		Help:      "Row actions by outcome (performed, skipped, failed).",
	}, []string{"outcome"})
	visitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "visit_duration_seconds",
		Help:      "Wall time of one page visit including the capture window.",
		Buckets:   []float64{1, 2, 5, 10, 15, 20, 30, 60},
	})
)

func RecordRun(status string) {
	runsTotal.WithLabelValues(status).Inc()
}

func RecordRows(passed, failed int) {
	if passed > 0 {
		rowsTotal.WithLabelValues("pass").Add(float64(passed))
	}
	if failed > 0 {
		rowsTotal.WithLabelValues("fail").Add(float64(failed))
	}
}

func RecordCaptured(n int) {
	if n > 0 {
		capturedTotal.Add(float64(n))
	}
}

func RecordAction(outcome string) {
	actionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveVisit(seconds float64) {
	visitSeconds.Observe(seconds)
}
