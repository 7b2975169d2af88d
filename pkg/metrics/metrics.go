// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// CapturesTotal counts captures by outcome: extracted, fallback, malformed, failed
	CapturesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifeos_captures_total",
			Help: "Total number of captures processed, by outcome",
		},
		[]string{"outcome"},
	)

	// EditsTotal counts conversational edits by outcome
	EditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifeos_edits_total",
			Help: "Total number of conversational edits, by outcome",
		},
		[]string{"outcome"},
	)

	// ExtractionDuration observes extraction calls by kind (capture, edit)
	ExtractionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lifeos_extraction_duration_seconds",
			Help:    "Latency of AI extraction calls",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 250ms to 32s
		},
		[]string{"kind"},
	)

	// StoreErrorsTotal counts repository failures by typed reason
	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifeos_store_errors_total",
			Help: "Total number of item store failures, by reason",
		},
		[]string{"reason"},
	)

	// DigestsTotal counts digests by kind (morning, night) and outcome
	DigestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lifeos_digests_total",
			Help: "Total number of digests built and delivered",
		},
		[]string{"kind", "outcome"},
	)

	RemindersSentTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lifeos_reminders_sent_total",
			Help: "Total number of push reminders sent",
		},
	)

	SSEClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lifeos_sse_clients",
			Help: "Connected change-stream clients",
		},
	)
)

func init() {
	prometheus.MustRegister(
		CapturesTotal,
		EditsTotal,
		ExtractionDuration,
		StoreErrorsTotal,
		DigestsTotal,
		RemindersSentTotal,
		SSEClients,
	)
}
