package rest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hlr",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hlr",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"method", "path"},
	)

	lookupsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hlr",
			Subsystem: "lookup",
			Name:      "submitted_total",
			Help:      "Async lookup batches submitted, by immediate outcome",
		},
		[]string{"provider", "outcome"}, // done | pending
	)

	numbersFromCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hlr",
			Subsystem: "lookup",
			Name:      "numbers_from_cache_total",
			Help:      "Numbers served from the result cache without provider contact",
		},
		[]string{"provider"},
	)

	numbersRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hlr",
			Subsystem: "lookup",
			Name:      "numbers_rejected_total",
			Help:      "Numbers rejected locally or by the provider",
		},
		[]string{"provider"},
	)

	syncLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hlr",
			Subsystem: "lookup",
			Name:      "sync_total",
			Help:      "Synchronous single-number lookups, by result source",
		},
		[]string{"provider", "source"}, // cache | provider
	)

	webhookBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hlr",
			Subsystem: "callback",
			Name:      "batches_total",
			Help:      "Inbound webhook result batches processed",
		},
		[]string{"provider", "status"}, // accepted | rejected
	)
)
