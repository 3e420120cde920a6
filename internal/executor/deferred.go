package executor

import (
	"context"
	"sync"
)

// Deferred is a handle to a result that is not yet available. It resolves
// exactly once, either with a value or an error, and supports chained
// continuations without blocking the caller.
type Deferred[T any] struct {
	mu       sync.Mutex
	done     chan struct{}
	resolved bool
	value    T
	err      error
	onValue  []func(T)
	onError  []func(error)
}

// NewDeferred creates an unresolved Deferred.
func NewDeferred[T any]() *Deferred[T] {
	return &Deferred[T]{done: make(chan struct{})}
}

// Resolved returns a Deferred already resolved with value. Useful for fast
// paths that never leave the calling goroutine.
func Resolved[T any](value T) *Deferred[T] {
	d := NewDeferred[T]()
	d.Resolve(value)
	return d
}

// Failed returns a Deferred already rejected with err.
func Failed[T any](err error) *Deferred[T] {
	d := NewDeferred[T]()
	d.Reject(err)
	return d
}

// Resolve completes the Deferred with a value. Subsequent Resolve/Reject calls
// are no-ops.
func (d *Deferred[T]) Resolve(value T) {
	d.mu.Lock()
	if d.resolved {
		d.mu.Unlock()
		return
	}
	d.resolved = true
	d.value = value
	callbacks := d.onValue
	d.onValue, d.onError = nil, nil
	close(d.done)
	d.mu.Unlock()

	for _, cb := range callbacks {
		cb(value)
	}
}

// Reject completes the Deferred with an error.
func (d *Deferred[T]) Reject(err error) {
	d.mu.Lock()
	if d.resolved {
		d.mu.Unlock()
		return
	}
	d.resolved = true
	d.err = err
	callbacks := d.onError
	d.onValue, d.onError = nil, nil
	close(d.done)
	d.mu.Unlock()

	for _, cb := range callbacks {
		cb(err)
	}
}

// AndThen registers a continuation invoked with the value on successful
// resolution. If the Deferred is already resolved the continuation runs
// immediately on the calling goroutine; otherwise it runs on the goroutine
// that resolves the Deferred.
func (d *Deferred[T]) AndThen(fn func(T)) *Deferred[T] {
	d.mu.Lock()
	if !d.resolved {
		d.onValue = append(d.onValue, fn)
		d.mu.Unlock()
		return d
	}
	value, err := d.value, d.err
	d.mu.Unlock()

	if err == nil {
		fn(value)
	}
	return d
}

// OnFailure registers a continuation invoked with the error on rejection.
func (d *Deferred[T]) OnFailure(fn func(error)) *Deferred[T] {
	d.mu.Lock()
	if !d.resolved {
		d.onError = append(d.onError, fn)
		d.mu.Unlock()
		return d
	}
	err := d.err
	d.mu.Unlock()

	if err != nil {
		fn(err)
	}
	return d
}

// Await blocks the calling goroutine until the Deferred resolves or ctx is
// done, propagating the underlying failure. It exists for startup-time code
// paths; steady-state code should chain continuations instead to avoid
// stalling the primary context.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
