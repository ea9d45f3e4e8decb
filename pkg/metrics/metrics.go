// Package metrics provides Prometheus metrics for the menu service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolutionsTotal counts menu graph resolutions by operation
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "squidly",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Total number of menu graph resolutions by operation",
		},
		[]string{"operation"},
	)

	// DanglingReferencesTotal counts references skipped because their target no longer exists
	DanglingReferencesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "squidly",
			Subsystem: "resolver",
			Name:      "dangling_references_total",
			Help:      "Total number of references skipped because the target record is gone",
		},
		[]string{"record_type"},
	)

	// DeletionsTotal counts delete attempts by record type and outcome
	DeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "squidly",
			Subsystem: "guard",
			Name:      "deletions_total",
			Help:      "Total number of delete attempts by record type and outcome",
		},
		[]string{"record_type", "outcome"},
	)

	// CascadeItems tracks how many items one AddProduct call touched
	CascadeItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "squidly",
			Subsystem: "branch",
			Name:      "cascade_items",
			Help:      "Number of products and ingredients touched by one cascading add",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	// StoreOperationDuration tracks entity store latency
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "squidly",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Duration of entity store operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	// EventsPublishedTotal counts menu events by type and status
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "squidly",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of menu events published by type and status",
		},
		[]string{"event_type", "status"},
	)
)

const (
	OutcomeDeleted  = "deleted"
	OutcomeBlocked  = "blocked"
	OutcomeNotFound = "not_found"
)

// RecordResolution records one resolver call
func RecordResolution(operation string) {
	ResolutionsTotal.WithLabelValues(operation).Inc()
}

// RecordDanglingReference records one skipped reference
func RecordDanglingReference(recordType string) {
	DanglingReferencesTotal.WithLabelValues(recordType).Inc()
}

// RecordDeletion records the outcome of a delete
func RecordDeletion(recordType, outcome string) {
	DeletionsTotal.WithLabelValues(recordType, outcome).Inc()
}

// RecordCascade records the size of one cascading add
func RecordCascade(items int) {
	CascadeItems.Observe(float64(items))
}

// ObserveStoreOperation records the duration of a store call started at start
func ObserveStoreOperation(operation string, start time.Time) {
	StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordEvent records a publish attempt
func RecordEvent(eventType string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}
