package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the engine's Prometheus collectors. Each engine registers its
// own set so tests and tools can use private registries.
type Metrics struct {
	Commands       *prometheus.CounterVec
	EventsAppended prometheus.Counter
	Replayed       *prometheus.CounterVec
	Transfers      *prometheus.CounterVec
	Duration       *prometheus.HistogramVec
}

// NewMetrics creates and registers the engine collectors on reg. A nil reg
// creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ghostledger",
			Subsystem: "engine",
			Name:      "commands_total",
			Help:      "Commands executed by name and outcome.",
		}, []string{"command", "outcome"}),
		EventsAppended: f.NewCounter(prometheus.CounterOpts{
			Namespace: "ghostledger",
			Subsystem: "engine",
			Name:      "events_appended_total",
			Help:      "Ledger events appended to the log.",
		}),
		Replayed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ghostledger",
			Subsystem: "engine",
			Name:      "idempotent_replays_total",
			Help:      "Responses served from the idempotency cache.",
		}, []string{"command"}),
		Transfers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ghostledger",
			Subsystem: "transfer",
			Name:      "settled_total",
			Help:      "Transfers settled through the provider by outcome.",
		}, []string{"outcome"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ghostledger",
			Subsystem: "engine",
			Name:      "command_duration_seconds",
			Help:      "Time to load, decide, validate and append a command.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"command"}),
	}
}
