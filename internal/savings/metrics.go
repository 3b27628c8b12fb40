package savings

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors of the allocation engine. They
// are registered together with the HTTP metrics by the router.
var Metrics = []prometheus.Collector{
	allocationRuns,
	allocationsCreated,
	allocationsSkipped,
}

var allocationRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "allocation_runs_total",
		Help: "How many income allocation runs finished, partitioned by outcome.",
	},
	[]string{"outcome"},
)

var allocationsCreated = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "allocations_created_total",
		Help: "How many allocations were appended to the ledger.",
	},
)

var allocationsSkipped = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "allocations_skipped_total",
		Help: "How many plan and income pairs failed to be allocated.",
	},
)
