package loop

import "context"

// Executor is an execution context handle: something that can run a task on
// a specific logical thread of control.
type Executor interface {
	// RunOnContext schedules task to run on the execution context.
	RunOnContext(task func()) error
}

type executorKey struct{}

// WithExecutor returns a copy of parent carrying exec as the current
// execution context.
func WithExecutor(parent context.Context, exec Executor) context.Context {
	return context.WithValue(parent, executorKey{}, exec)
}

// FromContext returns the execution context carried by ctx, or nil when the
// caller is not running on one.
func FromContext(ctx context.Context) Executor {
	if ctx == nil {
		return nil
	}
	exec, _ := ctx.Value(executorKey{}).(Executor)

	return exec
}
