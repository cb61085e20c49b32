package loader

import (
	"context"
	"sync"
)

// Future is the pending result of an asynchronous asset load.
// It completes exactly once; callbacks registered with OnComplete run once, either on the completing
// goroutine or immediately when the future is already complete.
type Future[T any] struct {
	mu        *sync.Mutex
	done      chan struct{}
	completed bool
	value     T
	err       error
	callbacks []func(T, error)
}

// NewFuture creates a pending future and the function that completes it.
// Calls to complete after the first are ignored.
//
// Returns:
//   - *Future[T]: the pending future
//   - func(T, error): the completion function
func NewFuture[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{
		mu:   &sync.Mutex{},
		done: make(chan struct{}),
	}
	return f, f.complete
}

// Resolved returns an already completed future.
func Resolved[T any](value T, err error) *Future[T] {
	f, complete := NewFuture[T]()
	complete(value, err)
	return f
}

func (f *Future[T]) complete(value T, err error) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	f.value, f.err = value, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(value, err)
	}
}

// Done returns a channel closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Result returns the outcome without blocking.
//
// Returns:
//   - T: the value, zero while pending or on failure
//   - error: the load error, nil while pending
//   - bool: true once the future has completed
func (f *Future[T]) Result() (T, error, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err, f.completed
}

// Await blocks until the future completes or the context ends.
//
// Parameters:
//   - ctx: bounds the wait
//
// Returns:
//   - T: the value
//   - error: the load error, or the context error when the wait was abandoned
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		value, err, _ := f.Result()
		return value, err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete registers fn to run once with the outcome.
//
// Parameters:
//   - fn: receives the value and the load error
func (f *Future[T]) OnComplete(fn func(T, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	value, err := f.value, f.err
	f.mu.Unlock()
	fn(value, err)
}

// Then maps a successful result into a new future. Errors pass through unchanged.
//
// Parameters:
//   - f: the source future
//   - fn: converts the value, may fail
//
// Returns:
//   - *Future[U]: completes when f completes
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	next, complete := NewFuture[U]()
	f.OnComplete(func(value T, err error) {
		if err != nil {
			var zero U
			complete(zero, err)
			return
		}
		complete(fn(value))
	})
	return next
}
