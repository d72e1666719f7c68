// Package metrics provides Prometheus metrics for the events service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesProcessed tracks queue messages processed by terminal outcome
	// (created, updated, skipped, dropped, failed).
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "events",
			Subsystem: "ingest",
			Name:      "messages_processed_total",
			Help:      "Total number of queue messages processed by outcome",
		},
		[]string{"outcome", "source_id"},
	)

	// MessageProcessingDuration tracks end-to-end message processing time.
	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "events",
			Subsystem: "ingest",
			Name:      "message_duration_seconds",
			Help:      "Duration of queue message processing in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// IndexSubmissions tracks derived-document submissions to the search
	// index by outcome (indexed, rejected, error).
	IndexSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "events",
			Subsystem: "index",
			Name:      "submissions_total",
			Help:      "Total number of search index submissions by outcome",
		},
		[]string{"outcome"},
	)

	// PublicationYearCacheHits tracks publication-year lookups served from
	// the cache versus the database.
	PublicationYearCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "events",
			Subsystem: "doi",
			Name:      "publication_year_lookups_total",
			Help:      "Total number of publication year lookups by result source",
		},
		[]string{"source"},
	)
)
