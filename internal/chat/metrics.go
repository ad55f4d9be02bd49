package chat

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "labops"

var (
	messagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Message send outcomes by phase",
		},
		[]string{"phase"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "resolver_cache_lookups_total",
			Help:      "Resolver cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "api_request_duration_seconds",
			Help:      "Chat API request duration",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)
)

func recordMessagePhase(phase string) {
	messagesTotal.WithLabelValues(phase).Inc()
}

func recordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(kind, result).Inc()
}

func recordAPIRequest(method string, duration time.Duration) {
	apiRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}
