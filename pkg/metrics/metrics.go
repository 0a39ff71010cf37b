// Package metrics provides Prometheus metrics for the traffic manager.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotsComputedTotal tracks snapshot computations by outcome
	SnapshotsComputedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "traffic_manager",
			Subsystem: "capacity",
			Name:      "snapshots_computed_total",
			Help:      "Total number of capacity snapshot computations by status",
		},
		[]string{"status"},
	)

	// FleetReportDuration tracks how long a whole-fleet report takes
	FleetReportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "traffic_manager",
			Subsystem: "capacity",
			Name:      "fleet_report_duration_seconds",
			Help:      "Duration of fleet capacity reports in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	// OverallocatedMembers is the number of overallocated team members seen by the latest fleet report
	OverallocatedMembers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "traffic_manager",
			Subsystem: "capacity",
			Name:      "overallocated_members",
			Help:      "Number of overallocated team members in the latest fleet report",
		},
	)

	// ConflictsDetectedTotal tracks detected conflicts by type and severity
	ConflictsDetectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "traffic_manager",
			Subsystem: "capacity",
			Name:      "conflicts_detected_total",
			Help:      "Total number of capacity conflicts detected",
		},
		[]string{"type", "severity"},
	)

	// ExtractionsTotal tracks transcript extractions by outcome
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "traffic_manager",
			Subsystem: "extraction",
			Name:      "requests_total",
			Help:      "Total number of transcript extractions by status",
		},
		[]string{"status"},
	)

	// ExtractionDuration tracks language model call latency
	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "traffic_manager",
			Subsystem: "extraction",
			Name:      "duration_seconds",
			Help:      "Duration of transcript extraction calls in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		},
	)

	// HTTPRequestDuration tracks API latency by route and status code
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "traffic_manager",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// EventsPublishedTotal tracks outbound events by topic and outcome
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "traffic_manager",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of events published by topic and status",
		},
		[]string{"topic", "status"},
	)
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RecordSnapshot increments the snapshot counter for the outcome of err.
func RecordSnapshot(err error) {
	SnapshotsComputedTotal.WithLabelValues(status(err)).Inc()
}

func RecordExtraction(err error) {
	ExtractionsTotal.WithLabelValues(status(err)).Inc()
}

func RecordEvent(topic string, err error) {
	EventsPublishedTotal.WithLabelValues(topic, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// ObserveRequest records one served request. route is the echo route pattern, not the raw path.
func ObserveRequest(method, route string, status int, seconds float64) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
