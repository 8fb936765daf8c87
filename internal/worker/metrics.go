package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the consumer pipeline counters.
type Metrics struct {
	EntriesRead         prometheus.Counter
	EntriesSettled      prometheus.Counter
	EntriesAcked        prometheus.Counter
	EntriesFailed       prometheus.Counter
	EntriesSkipped      prometheus.Counter
	BootstrapRecoveries prometheus.Counter
	BootstrapFailures   prometheus.Counter
	ReadErrors          prometheus.Counter
}

// NewMetrics registers the consumer counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EntriesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_consumer_entries_read_total",
			Help: "Stream entries delivered to this consumer.",
		}),
		EntriesSettled: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_consumer_entries_settled_total",
			Help: "Entries whose settlement operation succeeded.",
		}),
		EntriesAcked: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_consumer_entries_acked_total",
			Help: "Entries acknowledged to the consumer group.",
		}),
		EntriesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_consumer_entries_failed_total",
			Help: "Entries left unacknowledged for redelivery.",
		}),
		EntriesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_consumer_entries_skipped_total",
			Help: "Entries acknowledged without processing (unknown type, empty payload).",
		}),
		BootstrapRecoveries: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_consumer_group_bootstraps_total",
			Help: "Successful consumer-group bootstrap recoveries.",
		}),
		BootstrapFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_consumer_group_bootstrap_failures_total",
			Help: "Failed consumer-group bootstrap attempts.",
		}),
		ReadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "settlement_consumer_read_errors_total",
			Help: "Stream read errors other than a missing group.",
		}),
	}
}
