package consul

import (
	"testing"
	"time"

	"github.com/hashicorp/consul/api"
	"github.com/zoobzio/clockz"
)

func TestNew(t *testing.T) {
	client, err := api.NewClient(api.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	w := New(client, "config/app")
	if w.key != "config/app" {
		t.Errorf("expected key config/app, got %q", w.key)
	}
	if w.retry != DefaultRetryInterval || w.wait != 0 {
		t.Errorf("unexpected defaults: retry=%v wait=%v", w.retry, w.wait)
	}

	clock := clockz.NewFakeClock()
	w = New(client, "config/app",
		WithWaitTime(time.Minute),
		WithRetryInterval(5*time.Second),
		WithClock(clock),
	)
	if w.wait != time.Minute || w.retry != 5*time.Second || w.clock != clock {
		t.Error("expected options applied")
	}
}

func TestNextIndex(t *testing.T) {
	tests := []struct {
		prev, last, want uint64
	}{
		{prev: 0, last: 10, want: 10},
		{prev: 10, last: 10, want: 10},
		{prev: 10, last: 12, want: 12},
		{prev: 10, last: 3, want: 0},
	}
	for _, tt := range tests {
		if got := nextIndex(tt.prev, tt.last); got != tt.want {
			t.Errorf("nextIndex(%d, %d) = %d, want %d", tt.prev, tt.last, got, tt.want)
		}
	}
}
