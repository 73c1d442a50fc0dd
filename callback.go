package tether

// Callback receives the outcome of an asynchronous operation.
//
// Exactly one of OnSuccess or OnFailure is called, once, on the execution
// context that issued the operation.
//
// OnFailure receives the driver error wrapped in a *types.OperationError
// naming the operation and statement. Use errors.Is or errors.As to match
// the driver error itself.
type Callback[T any] interface {
	OnSuccess(result T)
	OnFailure(err error)
}

// CallbackFuncs adapts a pair of functions to Callback. Nil functions are skipped.
type CallbackFuncs[T any] struct {
	Success func(result T)
	Failure func(err error)
}

// OnSuccess implements Callback.
func (c CallbackFuncs[T]) OnSuccess(result T) {
	if c.Success != nil {
		c.Success(result)
	}
}

// OnFailure implements Callback.
func (c CallbackFuncs[T]) OnFailure(err error) {
	if c.Failure != nil {
		c.Failure(err)
	}
}

// OnResult builds a Callback from two functions.
//
// Example:
//
//	err := session.ExecuteQueryAsync(ctx, "SELECT * FROM users", tether.OnResult(
//	    func(rs *types.ResultSet) { render(rs.Rows) },
//	    func(err error) { log.Printf("query failed: %v", err) },
//	))
func OnResult[T any](success func(T), failure func(error)) Callback[T] {
	return CallbackFuncs[T]{Success: success, Failure: failure}
}
