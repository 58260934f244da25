package bond

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// DefaultDebounce is the default debounce duration for change processing.
const DefaultDebounce = 100 * time.Millisecond

// validate is the shared validator instance.
var validate = validator.New()

// Validator may be implemented by values fed through a Source for checks
// that struct tags cannot express.
type Validator interface {
	Validate() error
}

// Dispatcher runs fn on the host event loop. Collaborators that produce
// values on background goroutines hand them to a Dispatcher so Dynamics are
// only ever written from one place.
type Dispatcher func(fn func())

// Inline runs fn immediately on the calling goroutine.
func Inline(fn func()) { fn() }

// Source feeds a Dynamic from a Watcher. Each raw payload is decoded,
// validated and passed through the pipeline before it is written to the
// Dynamic. A failing payload never reaches the Dynamic: the previous value
// stays in place and the Source reports itself degraded.
type Source[T any] struct {
	target         *Dynamic[T]
	watcher        Watcher
	pipeline       pipz.Chainable[T]
	debounce       time.Duration
	startupTimeout time.Duration
	syncMode       bool
	clock          clockz.Clock
	codec          Codec
	metrics        MetricsProvider
	dispatch       Dispatcher
	onStop         func(State)

	state        atomic.Int32
	applied      atomic.Bool
	lastError    atomic.Pointer[error]
	errorHistory *history[error]

	mu      sync.Mutex
	started bool

	// For sync mode: channel to receive changes
	changes <-chan []byte
}

// NewSource creates a Source that writes decoded values from watcher into
// target.
//
// Example:
//
//	port := bond.NewDynamic(Config{})
//	src := bond.NewSource(file.New("/etc/app/config.yaml"), port).
//	    Codec(bond.YAMLCodec{}).
//	    Dispatch(loop.Post)
//
//	if err := src.Start(ctx); err != nil {
//	    log.Printf("initial config failed: %v", err)
//	}
func NewSource[T any](watcher Watcher, target *Dynamic[T], opts ...Option[T]) *Source[T] {
	s := &Source[T]{
		target:       target,
		watcher:      watcher,
		debounce:     DefaultDebounce,
		clock:        clockz.RealClock,
		codec:        JSONCodec{},
		dispatch:     Inline,
		errorHistory: newHistory[error](0),
	}
	terminal := pipz.Transform(storeID, func(_ context.Context, v T) T {
		return v
	})
	s.pipeline = buildPipeline(terminal, opts)
	s.state.Store(int32(StateLoading))
	return s
}

// Debounce sets the debounce duration for change processing.
// Changes arriving within this duration are coalesced into a single update.
// Default: 100ms. Must be called before Start().
func (s *Source[T]) Debounce(d time.Duration) *Source[T] {
	s.debounce = d
	return s
}

// SyncMode processes changes only through Process, without debouncing or
// goroutines. Must be called before Start().
func (s *Source[T]) SyncMode() *Source[T] {
	s.syncMode = true
	return s
}

// Clock sets the clock used for debouncing and timeouts.
// Must be called before Start().
func (s *Source[T]) Clock(clock clockz.Clock) *Source[T] {
	s.clock = clock
	return s
}

// Codec sets the codec for decoding payloads. Default: JSONCodec.
// Must be called before Start().
func (s *Source[T]) Codec(codec Codec) *Source[T] {
	s.codec = codec
	return s
}

// StartupTimeout bounds how long Start waits for the first payload.
// Default: no timeout. Must be called before Start().
func (s *Source[T]) StartupTimeout(d time.Duration) *Source[T] {
	s.startupTimeout = d
	return s
}

// Metrics sets a metrics provider. Must be called before Start().
func (s *Source[T]) Metrics(provider MetricsProvider) *Source[T] {
	s.metrics = provider
	return s
}

// Dispatch sets the Dispatcher used to write the target Dynamic.
// Default: Inline. Must be called before Start().
func (s *Source[T]) Dispatch(d Dispatcher) *Source[T] {
	s.dispatch = d
	return s
}

// OnStop sets a callback invoked with the final state when watching ends.
// Must be called before Start().
func (s *Source[T]) OnStop(fn func(State)) *Source[T] {
	s.onStop = fn
	return s
}

// ErrorHistorySize sets how many recent errors ErrorHistory retains.
// Must be called before Start().
func (s *Source[T]) ErrorHistorySize(n int) *Source[T] {
	s.errorHistory = newHistory[error](n)
	return s
}

// State returns the current state of the Source.
func (s *Source[T]) State() State {
	return State(s.state.Load())
}

// Target returns the Dynamic the Source writes to.
func (s *Source[T]) Target() *Dynamic[T] {
	return s.target
}

// LastError returns the last error encountered, or nil.
func (s *Source[T]) LastError() error {
	ptr := s.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns recent errors, oldest first.
func (s *Source[T]) ErrorHistory() []error {
	return s.errorHistory.snapshot()
}

// Start begins watching. It blocks until the first payload is processed,
// then keeps watching in the background (or, in sync mode, waits for
// Process calls). A failing first payload is returned, but watching
// continues. Start can only be called once.
func (s *Source[T]) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("source already started")
	}
	s.started = true
	s.mu.Unlock()

	capitan.Emit(ctx, SourceStarted,
		KeyType.Field(typeName[T]()),
		KeyDebounce.Field(s.debounce),
	)

	changes, err := s.watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	startupCtx := ctx
	if s.startupTimeout > 0 {
		var cancel context.CancelFunc
		startupCtx, cancel = s.clock.WithTimeout(ctx, s.startupTimeout)
		defer cancel()
	}

	var initialErr error
	select {
	case <-startupCtx.Done():
		if s.startupTimeout > 0 && startupCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("startup timeout: watcher did not emit initial value within %v", s.startupTimeout)
		}
		return startupCtx.Err()
	case raw, ok := <-changes:
		if !ok {
			return fmt.Errorf("watcher closed before emitting initial value")
		}
		s.received(ctx)
		initialErr = s.process(ctx, raw)
	}

	if s.syncMode {
		s.changes = changes
		return initialErr
	}

	go s.watch(ctx, changes)
	return initialErr
}

// Process handles the next pending payload in sync mode. It returns false
// when nothing is pending, the channel is closed, or sync mode is off.
func (s *Source[T]) Process(ctx context.Context) bool {
	if !s.syncMode {
		return false
	}

	select {
	case raw, ok := <-s.changes:
		if !ok {
			return false
		}
		s.received(ctx)
		_ = s.process(ctx, raw) //nolint:errcheck // Errors stored via setError
		return true
	default:
		return false
	}
}

func (s *Source[T]) received(ctx context.Context) {
	capitan.Emit(ctx, SourceChangeReceived)
	if s.metrics != nil {
		s.metrics.OnChangeReceived()
	}
}

// process decodes, validates and applies a single payload.
func (s *Source[T]) process(ctx context.Context, raw []byte) error {
	start := s.clock.Now()
	oldState := s.State()

	var result T
	if err := s.codec.Unmarshal(raw, &result); err != nil {
		s.fail(ctx, oldState, SourceDecodeFailed, StageDecode, start, err)
		return fmt.Errorf("decode failed: %w", err)
	}

	if err := check(result); err != nil {
		s.fail(ctx, oldState, SourceValidationFailed, StageValidate, start, err)
		return fmt.Errorf("validation failed: %w", err)
	}

	processed, err := s.pipeline.Process(ctx, result)
	if err != nil {
		s.fail(ctx, oldState, SourcePipelineFailed, StagePipeline, start, err)
		return fmt.Errorf("pipeline failed: %w", err)
	}

	s.dispatch(func() { s.target.Set(processed) })
	s.applied.Store(true)
	s.lastError.Store(nil)
	s.errorHistory.reset()
	s.transitionState(ctx, oldState, StateHealthy)
	capitan.Emit(ctx, SourceApplied)
	if s.metrics != nil {
		s.metrics.OnProcessSuccess(s.clock.Since(start))
	}
	return nil
}

// check runs struct-tag validation for struct values and the Validator
// interface when implemented.
func check(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Struct {
		if err := validate.Struct(rv.Interface()); err != nil {
			return err
		}
	}
	if val, ok := v.(Validator); ok {
		return val.Validate()
	}
	return nil
}

func (s *Source[T]) fail(ctx context.Context, oldState State, signal capitan.Signal, stage Stage, start time.Time, err error) {
	s.setError(err)
	s.transitionState(ctx, oldState, s.failureState())
	capitan.Emit(ctx, signal, KeyError.Field(err.Error()))
	if s.metrics != nil {
		s.metrics.OnProcessFailure(stage, s.clock.Since(start))
	}
}

// failureState returns Degraded when a value was applied before, Empty
// otherwise.
func (s *Source[T]) failureState() State {
	if s.applied.Load() {
		return StateDegraded
	}
	return StateEmpty
}

func (s *Source[T]) transitionState(ctx context.Context, oldState, newState State) {
	if oldState == newState {
		return
	}
	s.state.Store(int32(newState))
	capitan.Emit(ctx, SourceStateChanged,
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
	if s.metrics != nil {
		s.metrics.OnStateChange(oldState, newState)
	}
}

func (s *Source[T]) setError(err error) {
	e := err
	s.lastError.Store(&e)
	s.errorHistory.push(err)
}

// watch processes changes from the watcher channel with debouncing.
func (s *Source[T]) watch(ctx context.Context, changes <-chan []byte) {
	defer func() {
		finalState := s.State()
		capitan.Emit(ctx, SourceStopped,
			KeyState.Field(finalState.String()),
		)
		if s.onStop != nil {
			s.onStop(finalState)
		}
	}()

	var (
		timer      clockz.Timer
		pending    []byte
		hasPending bool
	)

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case raw, ok := <-changes:
			if !ok {
				if hasPending {
					_ = s.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				}
				return
			}

			s.received(ctx)
			pending = raw
			hasPending = true

			if timer == nil {
				timer = s.clock.NewTimer(s.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(s.debounce)
			}

		case <-timerC:
			if hasPending {
				_ = s.process(ctx, pending) //nolint:errcheck // Errors stored via setError
				hasPending = false
			}
		}
	}
}
