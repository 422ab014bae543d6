// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"college/internal/apperr"
)

var (
	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "college",
		Subsystem: "attendance",
		Name:      "reconciliations_total",
		Help:      "Attendance submissions by outcome.",
	}, []string{"outcome"})

	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "college",
		Subsystem: "attendance",
		Name:      "sessions_opened_total",
		Help:      "Class meetings counted towards total_classes.",
	})

	AbsenceChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "college",
		Subsystem: "attendance",
		Name:      "absence_changes_total",
		Help:      "Absence rows inserted or deleted during reconciliation.",
	}, []string{"op"})

	TimetableCreations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "college",
		Subsystem: "timetable",
		Name:      "creations_total",
		Help:      "Timetable entry creation attempts by outcome.",
	}, []string{"outcome"})

	SummaryCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "college",
		Subsystem: "attendance",
		Name:      "summary_cache_total",
		Help:      "Attendance summary cache lookups by result.",
	}, []string{"result"})
)

// Outcome labels err with its client-facing code, or "ok".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return apperr.Code(err)
}
