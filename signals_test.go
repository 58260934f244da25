package bond

import (
	"testing"

	"github.com/zoobzio/capitan"
)

func TestSignalNames(t *testing.T) {
	tests := []struct {
		signal capitan.Signal
		name   string
	}{
		{DynamicDisposed, "bond.dynamic.disposed"},
		{NotificationSuppressed, "bond.notification.suppressed"},
		{ConversionFailed, "bond.conversion.failed"},
		{BondBound, "bond.bond.bound"},
		{BondUnbound, "bond.bond.unbound"},
		{BondApplyFailed, "bond.bond.apply.failed"},
		{SinkEvicted, "bond.sink.evicted"},
		{ObservationStarted, "bond.observation.started"},
		{ObservationStopped, "bond.observation.stopped"},
		{SourceStarted, "bond.source.started"},
		{SourceStopped, "bond.source.stopped"},
		{SourceStateChanged, "bond.source.state.changed"},
		{SourceChangeReceived, "bond.source.change.received"},
		{SourceDecodeFailed, "bond.source.decode.failed"},
		{SourceValidationFailed, "bond.source.validation.failed"},
		{SourcePipelineFailed, "bond.source.pipeline.failed"},
		{SourceApplied, "bond.source.applied"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.signal.Name() != tt.name {
				t.Errorf("expected name %q, got %q", tt.name, tt.signal.Name())
			}
		})
	}
}
