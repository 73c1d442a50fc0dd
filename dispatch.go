package tether

import (
	"context"
	"sync/atomic"

	"github.com/arloliu/tether/adapter/cql"
	"github.com/arloliu/tether/future"
	"github.com/arloliu/tether/loop"
	"github.com/arloliu/tether/types"
)

// ExecuteAsync executes stmt without blocking and delivers the outcome to cb.
//
// If ctx carries an execution context (loop.FromContext), cb runs there;
// otherwise it runs on the session's completion executor. Exactly one of
// cb.OnSuccess or cb.OnFailure is called. Driver failures are wrapped in
// *types.OperationError.
//
// Parameters:
//   - ctx: Carries the execution context and bounds the request
//   - stmt: Statement to execute
//   - cb: Receives the result
//
// Returns:
//   - error: types.ErrNotReady, types.ErrNilCallback or types.ErrNilStatement;
//     cb is not called in that case
func (s *Session) ExecuteAsync(ctx context.Context, stmt types.Statement, cb Callback[*types.ResultSet]) error {
	return dispatch(s, ctx, "execute", stmt, cb, func(sess cql.Session) *future.Future[*types.ResultSet] {
		return sess.ExecuteAsync(ctx, stmt)
	})
}

// ExecuteQueryAsync is ExecuteAsync for a query string without values.
func (s *Session) ExecuteQueryAsync(ctx context.Context, query string, cb Callback[*types.ResultSet]) error {
	return s.ExecuteAsync(ctx, types.NewStatement(query), cb)
}

// PrepareAsync prepares stmt without blocking and delivers the prepared
// statement to cb, with the same delivery rules as ExecuteAsync.
//
// The gocql adapters prepare lazily: the statement is only sent to the
// server on its first execution, so a malformed query reaches OnSuccess
// here and fails later as an execute error.
func (s *Session) PrepareAsync(ctx context.Context, stmt types.Statement, cb Callback[*types.PreparedStatement]) error {
	return dispatch(s, ctx, "prepare", stmt, cb, func(sess cql.Session) *future.Future[*types.PreparedStatement] {
		return sess.PrepareAsync(ctx, stmt)
	})
}

// PrepareQueryAsync is PrepareAsync for a query string.
func (s *Session) PrepareQueryAsync(ctx context.Context, query string, cb Callback[*types.PreparedStatement]) error {
	return s.PrepareAsync(ctx, types.NewStatement(query), cb)
}

// Execute runs stmt and blocks until it completes. Do not call it from an event loop.
//
// Returns:
//   - *types.ResultSet: The result
//   - error: types.ErrNotReady, types.ErrNilStatement or a *types.OperationError
func (s *Session) Execute(ctx context.Context, stmt types.Statement) (*types.ResultSet, error) {
	if stmt == nil {
		return nil, types.ErrNilStatement
	}

	sess, err := s.activeSession()
	if err != nil {
		return nil, err
	}

	rs, err := sess.Execute(ctx, stmt)
	if err != nil {
		return nil, &types.OperationError{Operation: "execute", Statement: stmt.CQL(), Cause: err}
	}

	return rs, nil
}

// ExecuteQuery is Execute for a query string with positional values.
func (s *Session) ExecuteQuery(ctx context.Context, query string, values ...any) (*types.ResultSet, error) {
	return s.Execute(ctx, types.NewStatement(query, values...))
}

// Prepare prepares stmt and blocks until it completes. Do not call it from an event loop.
func (s *Session) Prepare(ctx context.Context, stmt types.Statement) (*types.PreparedStatement, error) {
	if stmt == nil {
		return nil, types.ErrNilStatement
	}

	sess, err := s.activeSession()
	if err != nil {
		return nil, err
	}

	ps, err := sess.Prepare(ctx, stmt)
	if err != nil {
		return nil, &types.OperationError{Operation: "prepare", Statement: stmt.CQL(), Cause: err}
	}

	return ps, nil
}

// PrepareQuery is Prepare for a query string.
func (s *Session) PrepareQuery(ctx context.Context, query string) (*types.PreparedStatement, error) {
	return s.Prepare(ctx, types.NewStatement(query))
}

// Metadata returns schema metadata for keyspace from the current session.
func (s *Session) Metadata(keyspace string) (*types.KeyspaceMetadata, error) {
	sess, err := s.activeSession()
	if err != nil {
		return nil, err
	}

	return sess.KeyspaceMetadata(keyspace)
}

func dispatch[T any](
	s *Session,
	ctx context.Context,
	op string,
	stmt types.Statement,
	cb Callback[T],
	issue func(cql.Session) *future.Future[T],
) error {
	if cb == nil {
		return types.ErrNilCallback
	}
	if stmt == nil {
		return types.ErrNilStatement
	}

	exec := loop.FromContext(ctx)

	sess, err := s.activeSession()
	if err != nil {
		return err
	}

	p := &pending[T]{
		op:     op,
		stmt:   stmt.CQL(),
		cb:     cb,
		exec:   exec,
		logger: s.logger,
	}
	p.future = issue(sess)
	p.future.AddListener(p.complete, s.completion)

	return nil
}

// pending is one in-flight asynchronous operation.
type pending[T any] struct {
	op     string
	stmt   string
	future *future.Future[T]
	cb     Callback[T]
	exec   loop.Executor
	logger types.Logger
	fired  atomic.Bool
}

// complete runs on the completion executor once the driver future is done.
func (p *pending[T]) complete() {
	if p.exec == nil {
		p.deliver()
		return
	}

	if err := p.exec.RunOnContext(p.deliver); err != nil {
		p.logger.Warn("execution context rejected callback, delivering on completion executor",
			"operation", p.op, "error", err)
		p.deliver()
	}
}

// deliver reads the completed future and invokes the callback once.
func (p *pending[T]) deliver() {
	if !p.fired.CompareAndSwap(false, true) {
		return
	}

	result, err := p.future.Result()
	if err != nil {
		p.cb.OnFailure(&types.OperationError{Operation: p.op, Statement: p.stmt, Cause: err})
		return
	}
	p.cb.OnSuccess(result)
}
