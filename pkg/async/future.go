// Package async provides a single-resolution future used to deliver
// completion items that are produced off the caller's goroutine.
package async

import (
	"context"
	"errors"
	"sync"
)

// ErrNilFailure is recorded when Fail is called with a nil error.
var ErrNilFailure = errors.New("async: failed with nil error")

// Future is resolved or failed at most once. Handlers registered before
// resolution run on the resolving goroutine; handlers registered after
// resolution run immediately on the registering goroutine.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	value     T
	err       error
	onSuccess []func(T)
	onFailure []func(error)
}

// NewFuture returns an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already resolved with v.
func Resolved[T any](v T) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(v)
	return f
}

// Failed returns a future already failed with err.
func Failed[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Fail(err)
	return f
}

// Resolve settles the future with v. It reports false if the future was
// already settled, in which case v is dropped.
func (f *Future[T]) Resolve(v T) bool {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.value = v
	handlers := f.onSuccess
	f.onSuccess, f.onFailure = nil, nil
	close(f.done)
	f.mu.Unlock()

	for _, h := range handlers {
		h(v)
	}
	return true
}

// Fail settles the future with err. It reports false if the future was
// already settled.
func (f *Future[T]) Fail(err error) bool {
	if err == nil {
		err = ErrNilFailure
	}
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.err = err
	handlers := f.onFailure
	f.onSuccess, f.onFailure = nil, nil
	close(f.done)
	f.mu.Unlock()

	for _, h := range handlers {
		h(err)
	}
	return true
}

// OnSuccess registers fn to receive the resolved value.
func (f *Future[T]) OnSuccess(fn func(T)) {
	f.mu.Lock()
	if !f.settled {
		f.onSuccess = append(f.onSuccess, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	if err == nil {
		fn(v)
	}
}

// OnFailure registers fn to receive the failure.
func (f *Future[T]) OnFailure(fn func(error)) {
	f.mu.Lock()
	if !f.settled {
		f.onFailure = append(f.onFailure, fn)
		f.mu.Unlock()
		return
	}
	err := f.err
	f.mu.Unlock()
	if err != nil {
		fn(err)
	}
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the future settles or ctx is done.
func (f *Future[T]) Result(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Settled reports whether Resolve or Fail has been called.
func (f *Future[T]) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Map returns a future resolved with fn applied to the value of src. A
// failure of src is passed through unchanged.
func Map[T, U any](src *Future[T], fn func(T) U) *Future[U] {
	out := NewFuture[U]()
	src.OnSuccess(func(v T) { out.Resolve(fn(v)) })
	src.OnFailure(func(err error) { out.Fail(err) })
	return out
}

// Go runs fn on a new goroutine and settles the returned future with its
// result. Cancelling ctx does not stop fn; fn is expected to observe ctx.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := NewFuture[T]()
	go func() {
		v, err := fn(ctx)
		if err != nil {
			f.Fail(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}
