package future

import (
	"context"
	"errors"
	"sync"
)

// ErrNotDone is returned by Result when the future has not completed yet.
var ErrNotDone = errors.New("future: not completed")

// Future is a write-once container for the outcome of an asynchronous operation.
//
// A Future completes exactly once, with either a value or an error. Listeners
// added before or after completion run exactly once each, on the executor
// they were registered with.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	value     T
	err       error
	completed bool
	listeners []listener
}

type listener struct {
	task func()
	exec Executor
}

// New creates a pending future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed creates a future that is already completed with the given outcome.
func Completed[T any](value T, err error) *Future[T] {
	f := New[T]()
	f.Complete(value, err)

	return f
}

// Go runs fn on a new goroutine and returns a future completed with its result.
//
// A panic inside fn completes the future with an error instead of crashing
// the process.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := New[T]()
	go func() {
		var (
			value T
			err   error
		)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				f.Complete(zero, &PanicError{Value: r})
				return
			}
			f.Complete(value, err)
		}()
		value, err = fn()
	}()

	return f
}

// Complete sets the outcome. Only the first call has any effect.
//
// Returns:
//   - bool: true if this call completed the future
func (f *Future[T]) Complete(value T, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.value = value
	f.err = err
	f.completed = true
	pending := f.listeners
	f.listeners = nil
	close(f.done)
	f.mu.Unlock()

	for _, l := range pending {
		l.exec.Execute(l.task)
	}

	return true
}

// Done returns a channel that is closed once the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future has completed.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the outcome without blocking.
//
// Returns:
//   - T: The value, or the zero value on failure
//   - error: The failure, or ErrNotDone if the future is still pending
func (f *Future[T]) Result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.completed {
		var zero T
		return zero, ErrNotDone
	}

	return f.value, f.err
}

// Get blocks until the future completes or ctx is done.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AddListener schedules task to run on exec once the future completes.
//
// If the future is already complete the task is handed to exec immediately.
// A nil exec runs the task on the completing goroutine.
func (f *Future[T]) AddListener(task func(), exec Executor) {
	if exec == nil {
		exec = Inline
	}

	f.mu.Lock()
	if !f.completed {
		f.listeners = append(f.listeners, listener{task: task, exec: exec})
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()

	exec.Execute(task)
}

// PanicError reports a panic recovered while producing a future's value.
type PanicError struct {
	Value any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "future: panic in producer"
}
