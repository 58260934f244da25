package kubernetes

import (
	"context"
	"time"

	"github.com/zoobzio/bond"
	"github.com/zoobzio/clockz"
	"k8s.io/client-go/kubernetes"
)

// Watcher emits one data key of a ConfigMap or Secret for a bond.Source.
type Watcher struct {
	client kubernetes.Interface
	ref    Ref
	key    string
	clock  clockz.Clock
	retry  time.Duration
}

// Option configures a Watcher or a Center.
type Option func(*settings)

type settings struct {
	resourceType ResourceType
	clock        clockz.Clock
	retry        time.Duration
	dispatch     bond.Dispatcher
	readTimeout  time.Duration
}

func newSettings(opts []Option) settings {
	s := settings{
		resourceType: ConfigMap,
		clock:        clockz.RealClock,
		retry:        DefaultRetryInterval,
		dispatch:     bond.Inline,
		readTimeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithResourceType selects ConfigMap or Secret for a Watcher.
// Default: ConfigMap.
func WithResourceType(rt ResourceType) Option {
	return func(s *settings) { s.resourceType = rt }
}

// WithClock sets the clock used for retry pauses and read timeouts.
func WithClock(clock clockz.Clock) Option {
	return func(s *settings) { s.clock = clock }
}

// WithRetryInterval sets the pause before re-establishing a broken watch.
func WithRetryInterval(d time.Duration) Option {
	return func(s *settings) { s.retry = d }
}

// WithDispatcher sets how a Center hands changes to observers.
// Default: bond.Inline on the watch goroutine.
func WithDispatcher(d bond.Dispatcher) Option {
	return func(s *settings) { s.dispatch = d }
}

// WithReadTimeout bounds synchronous reads made by a Center.
func WithReadTimeout(d time.Duration) Option {
	return func(s *settings) { s.readTimeout = d }
}

// New creates a Watcher for key in the named resource.
func New(client kubernetes.Interface, namespace, name, key string, opts ...Option) *Watcher {
	s := newSettings(opts)
	return &Watcher{
		client: client,
		ref:    Ref{Type: s.resourceType, Namespace: namespace, Name: name},
		key:    key,
		clock:  s.clock,
		retry:  s.retry,
	}
}

var _ bond.Watcher = (*Watcher)(nil)

// Watch emits the key's current value, then every new value. Broken watches
// are re-established until ctx is done, which closes the channel. Deletions
// and missing keys emit nothing.
func (w *Watcher) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)

	go func() {
		defer close(out)

		em := bond.NewEmitter(out)
		follow(ctx, w.client, w.ref, w.clock, w.retry, func(s snapshot) {
			if v, ok := s.value(w.key); ok {
				em.Emit(ctx, v)
			}
		})
	}()

	return out, nil
}
