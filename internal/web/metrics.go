package web

import (
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fileproof_validations_started_total",
		Help: "Validation runs started, by file kind.",
	}, []string{"kind"})

	validationsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fileproof_validations_completed_total",
		Help: "Validation runs finished, by outcome.",
	}, []string{"outcome"})

	rowsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fileproof_rows_processed_total",
		Help: "Total rows examined across finished runs.",
	})
)

// recordStarted counts a new run under its file kind.
func recordStarted(fileName string) {
	kind := "delimited"
	if strings.EqualFold(filepath.Ext(fileName), ".json") {
		kind = "json"
	}
	validationsStarted.WithLabelValues(kind).Inc()
}

// recordCompleted counts a finished run and its processed rows.
func recordCompleted(outcome string, rows int) {
	validationsCompleted.WithLabelValues(outcome).Inc()
	rowsProcessed.Add(float64(rows))
}

// outcomeFor names the terminal state of a run for the completion counter.
func outcomeFor(cancelled, passed bool) string {
	switch {
	case cancelled:
		return "cancelled"
	case passed:
		return "passed"
	default:
		return "failed"
	}
}
