package gocoro

import "time"

// Outcome classifies how a task finished, for a MetricsSink's benefit.
type Outcome int

const (
	OutcomeValue Outcome = iota
	OutcomeError
	OutcomeCancelled
)

// MetricsSink lets a caller observe scheduler activity -- tasks admitted,
// tasks finished and how, queue depth -- without the core scheduling code
// depending on any particular metrics backend. internal/corometrics.Sink
// implements this against Prometheus by wrapping a corometrics.Collector;
// tests and other hosts are free to
// supply their own.
type MetricsSink interface {
	TaskScheduled()
	TaskFinished(latency time.Duration, outcome Outcome)
	QueueDepth(n int)
	ExternalParked(n int)
}

// noopSink is installed by default so executors never need a nil check.
type noopSink struct{}

func (noopSink) TaskScheduled()                            {}
func (noopSink) TaskFinished(time.Duration, Outcome)       {}
func (noopSink) QueueDepth(int)                            {}
func (noopSink) ExternalParked(int)                        {}

var defaultSink MetricsSink = noopSink{}
