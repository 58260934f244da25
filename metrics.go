package bond

import "time"

// Stage names the step of Source processing that failed.
type Stage string

const (
	StageDecode   Stage = "decode"
	StageValidate Stage = "validate"
	StagePipeline Stage = "pipeline"
)

// MetricsProvider receives Source events for export to a metrics system.
// Calls happen on the goroutine processing the payload and must not block.
type MetricsProvider interface {
	OnStateChange(from, to State)
	// OnProcessSuccess reports a payload that reached the target Dynamic,
	// timed from decode through the pipeline.
	OnProcessSuccess(elapsed time.Duration)
	OnProcessFailure(stage Stage, elapsed time.Duration)
	OnChangeReceived()
}

// NoOpMetricsProvider ignores every event. Embed it to implement only the
// callbacks you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(State, State) {}

func (NoOpMetricsProvider) OnProcessSuccess(time.Duration) {}

func (NoOpMetricsProvider) OnProcessFailure(Stage, time.Duration) {}

func (NoOpMetricsProvider) OnChangeReceived() {}

var _ MetricsProvider = NoOpMetricsProvider{}
