package bond

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Processor identities.
var (
	applyID      = pipz.NewIdentity("bond:apply", "Applies a value to the sink target")
	storeID      = pipz.NewIdentity("bond:store", "Stores a value into the target Dynamic")
	filterID     = pipz.NewIdentity("bond:filter", "Skips values failing a predicate")
	middlewareID = pipz.NewIdentity("bond:middleware", "Middleware sequence")
	retryID      = pipz.NewIdentity("bond:retry", "Immediate retry")
	backoffID    = pipz.NewIdentity("bond:backoff", "Exponential backoff retry")
	timeoutID    = pipz.NewIdentity("bond:timeout", "Processing deadline")
	fallbackID   = pipz.NewIdentity("bond:fallback", "Fallback processors")
)

// Option wraps the processing pipeline that sits in front of a Bond's apply
// function or a Source's target Dynamic.
type Option[T any] func(pipz.Chainable[T]) pipz.Chainable[T]

func buildPipeline[T any](terminal pipz.Chainable[T], opts []Option[T]) pipz.Chainable[T] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// WithFilter skips values for which pred returns false. Skipped values never
// reach the terminal stage.
func WithFilter[T any](pred func(T) bool) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		return pipz.NewFilter(filterID, func(_ context.Context, v T) bool {
			return pred(v)
		}, p)
	}
}

// WithMiddleware runs processors in order before the wrapped pipeline.
//
// Example:
//
//	b := bond.NewBond(label.SetText,
//	    bond.WithMiddleware(
//	        bond.UseTransform[string](trimID, strings.TrimSpace),
//	    ),
//	)
func WithMiddleware[T any](processors ...pipz.Chainable[T]) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		all := make([]pipz.Chainable[T], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence(middlewareID, all...)
	}
}

// WithRetry retries the pipeline immediately up to maxAttempts times.
func WithRetry[T any](maxAttempts int) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		return pipz.NewRetry(retryID, p, maxAttempts)
	}
}

// WithBackoff retries the pipeline with exponentially growing delays.
func WithBackoff[T any](maxAttempts int, baseDelay time.Duration) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		return pipz.NewBackoff(backoffID, p, maxAttempts, baseDelay)
	}
}

// WithTimeout fails the pipeline if it runs longer than d.
func WithTimeout[T any](d time.Duration) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		return pipz.NewTimeout(timeoutID, p, d)
	}
}

// WithFallback tries each fallback in order when the pipeline fails.
func WithFallback[T any](fallbacks ...pipz.Chainable[T]) Option[T] {
	return func(p pipz.Chainable[T]) pipz.Chainable[T] {
		all := append([]pipz.Chainable[T]{p}, fallbacks...)
		return pipz.NewFallback(fallbackID, all...)
	}
}

// UseTransform creates a processor that maps a value and cannot fail.
func UseTransform[T any](id pipz.Identity, fn func(T) T) pipz.Chainable[T] {
	return pipz.Transform(id, func(_ context.Context, v T) T {
		return fn(v)
	})
}

// UseApply creates a processor that maps a value and may fail.
func UseApply[T any](id pipz.Identity, fn func(context.Context, T) (T, error)) pipz.Chainable[T] {
	return pipz.Apply(id, fn)
}

// UseEffect creates a processor that observes a value without changing it.
func UseEffect[T any](id pipz.Identity, fn func(context.Context, T) error) pipz.Chainable[T] {
	return pipz.Effect(id, fn)
}
