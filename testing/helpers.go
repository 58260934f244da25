// Package testing provides test utilities and helpers for code built on bond.
package testing

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/bond"
)

// TestConfig is a standard configuration type for testing Sources.
// It implements bond.Validator.
type TestConfig struct {
	Port    int    `yaml:"port" json:"port"`
	Host    string `yaml:"host" json:"host"`
	Timeout int    `yaml:"timeout" json:"timeout"`
}

// Validate implements bond.Validator.
func (c TestConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if c.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForState waits until the Source reaches the expected state or timeout occurs.
func WaitForState[T any](t *testing.T, s *bond.Source[T], expected bond.State, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return s.State() == expected
	})
}

// RequireState fails the test immediately if the Source is not in the expected state.
func RequireState[T any](t *testing.T, s *bond.Source[T], expected bond.State) {
	t.Helper()
	if got := s.State(); got != expected {
		t.Fatalf("expected state %s, got %s", expected, got)
	}
}

// RequireValue fails the test if the Dynamic's value does not pass check.
func RequireValue[T any](t *testing.T, d *bond.Dynamic[T], check func(T) bool) {
	t.Helper()
	if v := d.Value(); !check(v) {
		t.Fatalf("value check failed: %+v", v)
	}
}

// NewTestSource creates a sync-mode Source over a TestConfig Dynamic.
// Returns the Source, its target, and a channel for sending test data.
func NewTestSource(t *testing.T, opts ...bond.Option[TestConfig]) (*bond.Source[TestConfig], *bond.Dynamic[TestConfig], chan<- []byte) {
	t.Helper()
	ch := make(chan []byte, 10)
	target := bond.NewDynamic(TestConfig{})
	t.Cleanup(target.Dispose)
	s := bond.NewSource(bond.Chan(ch), target, opts...).SyncMode()
	return s, target, ch
}

// Recorder collects every value delivered by a Dynamic. It is safe to read
// from a different goroutine than the one writing the Dynamic.
type Recorder[T any] struct {
	mu     sync.Mutex
	values []T
	source *bond.Dynamic[T]
	token  bond.Token
}

// Record subscribes a new Recorder to d. The subscription ends with the test.
func Record[T any](t *testing.T, d *bond.Dynamic[T]) *Recorder[T] {
	t.Helper()
	r := &Recorder[T]{source: d}
	r.token = d.Subscribe(r.add)
	t.Cleanup(r.Stop)
	return r
}

func (r *Recorder[T]) add(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

// Values returns a copy of everything recorded so far.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

// Len returns the number of recorded values.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// Last returns the most recent value, if any.
func (r *Recorder[T]) Last() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.values) == 0 {
		var zero T
		return zero, false
	}
	return r.values[len(r.values)-1], true
}

// Stop ends the subscription. Safe to call more than once.
func (r *Recorder[T]) Stop() {
	r.source.Unsubscribe(r.token)
}
