package bond

import "github.com/zoobzio/capitan"

// Dynamic lifecycle signals.
var (
	// DynamicDisposed is emitted when a Dynamic is torn down.
	DynamicDisposed = capitan.NewSignal(
		"bond.dynamic.disposed",
		"Dynamic disposed and subscriptions released",
	)

	// NotificationSuppressed is emitted when a collaborator delivers a change
	// after its Dynamic or observation was torn down.
	NotificationSuppressed = capitan.NewSignal(
		"bond.notification.suppressed",
		"Notification arrived after teardown",
	)

	// ConversionFailed is emitted when an observed value cannot be converted
	// to the Dynamic's element type after construction.
	ConversionFailed = capitan.NewSignal(
		"bond.conversion.failed",
		"Observed value could not be converted",
	)
)

// Bond signals.
var (
	// BondBound is emitted when a Bond subscribes to a Dynamic.
	BondBound = capitan.NewSignal(
		"bond.bond.bound",
		"Bond bound to a Dynamic",
	)

	// BondUnbound is emitted when a Bond detaches from its Dynamic.
	BondUnbound = capitan.NewSignal(
		"bond.bond.unbound",
		"Bond unbound from its Dynamic",
	)

	// BondApplyFailed is emitted when a Bond's middleware pipeline fails.
	BondApplyFailed = capitan.NewSignal(
		"bond.bond.apply.failed",
		"Bond pipeline failed",
	)

	// SinkEvicted is emitted when a registry drops the sinks of a control.
	SinkEvicted = capitan.NewSignal(
		"bond.sink.evicted",
		"Control sinks evicted from registry",
	)
)

// Observation signals.
var (
	// ObservationStarted is emitted when a key path observation registers.
	ObservationStarted = capitan.NewSignal(
		"bond.observation.started",
		"Key path observation registered",
	)

	// ObservationStopped is emitted when a key path observation deregisters.
	ObservationStopped = capitan.NewSignal(
		"bond.observation.stopped",
		"Key path observation deregistered",
	)
)

// Source signals.
var (
	// SourceStarted is emitted when a Source begins watching.
	SourceStarted = capitan.NewSignal(
		"bond.source.started",
		"Source watching started",
	)

	// SourceStopped is emitted when a Source stops watching.
	SourceStopped = capitan.NewSignal(
		"bond.source.stopped",
		"Source watching stopped",
	)

	// SourceStateChanged is emitted when a Source transitions between states.
	SourceStateChanged = capitan.NewSignal(
		"bond.source.state.changed",
		"Source state transition",
	)

	// SourceChangeReceived is emitted when raw data arrives from the watcher.
	SourceChangeReceived = capitan.NewSignal(
		"bond.source.change.received",
		"Raw change received from watcher",
	)

	// SourceDecodeFailed is emitted when raw data cannot be decoded.
	SourceDecodeFailed = capitan.NewSignal(
		"bond.source.decode.failed",
		"Decoding failed",
	)

	// SourceValidationFailed is emitted when a decoded value fails validation.
	SourceValidationFailed = capitan.NewSignal(
		"bond.source.validation.failed",
		"Validation failed",
	)

	// SourcePipelineFailed is emitted when the processing pipeline fails.
	SourcePipelineFailed = capitan.NewSignal(
		"bond.source.pipeline.failed",
		"Pipeline failed",
	)

	// SourceApplied is emitted when a value reaches the target Dynamic.
	SourceApplied = capitan.NewSignal(
		"bond.source.applied",
		"Value applied to Dynamic",
	)
)
