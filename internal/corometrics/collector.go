// ============================================================================
// gocoro Metrics - Prometheus Scheduler Observability
// ============================================================================
//
// Package: internal/corometrics
// File: collector.go
// Purpose: Collect and expose runtime metrics for gocoro's executors
//
// Metric Categories:
//
//   1. Task Counters - Cumulative, monotonically increasing:
//      - gocoro_tasks_scheduled_total: Total tasks admitted to an executor
//      - gocoro_tasks_completed_total: Total tasks that finished with a value
//      - gocoro_tasks_failed_total: Total tasks that finished with an error
//      - gocoro_tasks_cancelled_total: Total tasks forced to completion by stop
//
//   2. Performance Metrics (Histogram) - Distribution stats:
//      - gocoro_task_latency_seconds: Wall-clock time from schedule to finish
//        * Buckets: Prometheus defaults, tuned for sub-second scheduling work
//
//   3. Status Metrics (Gauge) - Instantaneous values:
//      - gocoro_ready_queue_depth: Current ready-queue length for an executor
//      - gocoro_external_parked: Current count of externally parked tasks
//
// Prometheus Query Examples:
//
//   # Tasks completed per second
//   rate(gocoro_tasks_completed_total[1m])
//
//   # 95th percentile task latency
//   histogram_quantile(0.95, gocoro_task_latency_seconds_bucket)
//
//   # Cancellation rate
//   rate(gocoro_tasks_cancelled_total[5m]) / rate(gocoro_tasks_scheduled_total[5m])
//
// HTTP Endpoint:
//   Exposed via /metrics, scraped by Prometheus. Default port: 9090.
//
// ============================================================================

package corometrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects Prometheus metrics for one or more gocoro executors.
type Collector struct {
	tasksScheduled prometheus.Counter
	tasksCompleted prometheus.Counter
	tasksFailed    prometheus.Counter
	tasksCancelled prometheus.Counter

	taskLatency prometheus.Histogram

	readyQueueDepth prometheus.Gauge
	externalParked  prometheus.Gauge
}

// NewCollector builds a Collector and registers its metrics against the
// default Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{
		tasksScheduled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gocoro_tasks_scheduled_total",
			Help: "Total number of tasks admitted to an executor",
		}),
		tasksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gocoro_tasks_completed_total",
			Help: "Total number of tasks that finished with a value",
		}),
		tasksFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gocoro_tasks_failed_total",
			Help: "Total number of tasks that finished with an error",
		}),
		tasksCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gocoro_tasks_cancelled_total",
			Help: "Total number of tasks forced to completion by a stop request",
		}),
		taskLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gocoro_task_latency_seconds",
			Help:    "Wall-clock time from a task's first schedule to its completion",
			Buckets: prometheus.DefBuckets,
		}),
		readyQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gocoro_ready_queue_depth",
			Help: "Current length of an executor's ready queue",
		}),
		externalParked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gocoro_external_parked",
			Help: "Current count of tasks parked outside the ready queue",
		}),
	}

	prometheus.MustRegister(
		c.tasksScheduled,
		c.tasksCompleted,
		c.tasksFailed,
		c.tasksCancelled,
		c.taskLatency,
		c.readyQueueDepth,
		c.externalParked,
	)

	return c
}

// RecordScheduled records a task being admitted to an executor.
func (c *Collector) RecordScheduled() {
	c.tasksScheduled.Inc()
}

// RecordCompleted records a task finishing successfully, with its total
// scheduled-to-finished latency in seconds.
func (c *Collector) RecordCompleted(latencySeconds float64) {
	c.tasksCompleted.Inc()
	c.taskLatency.Observe(latencySeconds)
}

// RecordFailed records a task finishing with an error.
func (c *Collector) RecordFailed(latencySeconds float64) {
	c.tasksFailed.Inc()
	c.taskLatency.Observe(latencySeconds)
}

// RecordCancelled records a task forced to completion by stopIfNecessary.
func (c *Collector) RecordCancelled(latencySeconds float64) {
	c.tasksCancelled.Inc()
	c.taskLatency.Observe(latencySeconds)
}

// SetQueueDepth updates the ready-queue-depth gauge for an executor.
func (c *Collector) SetQueueDepth(n int) {
	c.readyQueueDepth.Set(float64(n))
}

// SetExternalParked updates the externally-parked-count gauge for an
// executor.
func (c *Collector) SetExternalParked(n int) {
	c.externalParked.Set(float64(n))
}

// StartServer starts a Prometheus metrics HTTP server on port, serving
// /metrics until the process exits or the listener errors.
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
