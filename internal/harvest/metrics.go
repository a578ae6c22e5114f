package harvest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// totalRequests tracks the number of search requests dispatched.
	totalRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_requests_total",
		Help: "The total number of search API requests sent.",
	})
	// totalRequestErrors tracks requests that resulted in an error,
	// including attempts that were later retried successfully.
	totalRequestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_request_errors_total",
		Help: "The total number of failed search API requests.",
	})
	// totalRetries tracks retry attempts after a failed page fetch.
	totalRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_retries_total",
		Help: "The total number of page fetch retries.",
	})
	// recordsOffered counts every record handed to the accumulator.
	recordsOffered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_records_offered_total",
		Help: "The total number of records offered to the deduplicator.",
	})
	// recordsDuplicate counts offers rejected as already-seen.
	recordsDuplicate = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harvester_records_duplicate_total",
		Help: "The total number of records discarded as duplicates.",
	})
	// partitionsByStatus counts terminal partition outcomes.
	partitionsByStatus = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_partitions_total",
		Help: "The total number of partitions finished, by terminal status.",
	}, []string{"status"})
)
