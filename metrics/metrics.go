// Package metrics provides optional Prometheus instrumentation for a
// Stream. esdb is an embedded library with no server of its own, so a
// Collector is opt-in instrumentation a host service can register; a Stream
// opened without one (the default) performs no metrics work at all.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the counters and histogram a Stream reports to when one is
// supplied via esdb.WithMetrics. Each metric is created with promauto, but
// against a caller-supplied registerer rather than the global default so that
// embedding esdb in a process never silently mutates that process's default
// registry.
type Collector struct {
	EventsAppended prometheus.Counter
	AppendErrors   prometheus.Counter
	CommitLatency  prometheus.Histogram
}

// NewCollector builds a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		EventsAppended: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "esdb",
			Name:      "events_appended_total",
			Help:      "Total number of events successfully committed to the stream.",
		}),
		AppendErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "esdb",
			Name:      "append_errors_total",
			Help:      "Total number of Append calls that returned an error.",
		}),
		CommitLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "esdb",
			Name:      "commit_latency_seconds",
			Help:      "Latency of the atomic batch commit underlying Append.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
