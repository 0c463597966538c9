package corometrics

import (
	"time"

	"github.com/ChuLiYu/gocoro"
)

// Sink adapts a Collector to gocoro.MetricsSink, so it can be attached
// directly to a ThreadedSerialExecutor or CooperativeSerialExecutor via
// WithThreadedMetricsSink / WithMetricsSink.
type Sink struct {
	c *Collector
}

// NewSink wraps c as a gocoro.MetricsSink.
func NewSink(c *Collector) Sink { return Sink{c: c} }

// TaskScheduled implements gocoro.MetricsSink.
func (s Sink) TaskScheduled() { s.c.RecordScheduled() }

// TaskFinished implements gocoro.MetricsSink.
func (s Sink) TaskFinished(latency time.Duration, outcome gocoro.Outcome) {
	seconds := latency.Seconds()
	switch outcome {
	case gocoro.OutcomeError:
		s.c.RecordFailed(seconds)
	case gocoro.OutcomeCancelled:
		s.c.RecordCancelled(seconds)
	default:
		s.c.RecordCompleted(seconds)
	}
}

// QueueDepth implements gocoro.MetricsSink.
func (s Sink) QueueDepth(n int) { s.c.SetQueueDepth(n) }

// ExternalParked implements gocoro.MetricsSink.
func (s Sink) ExternalParked(n int) { s.c.SetExternalParked(n) }
