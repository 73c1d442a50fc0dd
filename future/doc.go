// Package future provides a minimal listenable future and the executors that
// run its listeners.
//
// The driver adapter completes a Future from its own goroutines; consumers
// attach listeners with AddListener and choose where they run by passing an
// Executor. Pool is the small dedicated executor used for completion work
// that must not run on an event loop.
package future
