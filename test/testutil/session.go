package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/arloliu/tether/adapter/cql"
	"github.com/arloliu/tether/future"
	"github.com/arloliu/tether/types"
)

// ErrUnknownKeyspace is returned by FakeSession.KeyspaceMetadata for keyspaces
// not registered with SetKeyspace.
var ErrUnknownKeyspace = errors.New("testutil: unknown keyspace")

// ExecuteFunc produces the result of one execution.
type ExecuteFunc func(ctx context.Context, stmt types.Statement) (*types.ResultSet, error)

// PrepareFunc produces the result of one prepare.
type PrepareFunc func(ctx context.Context, stmt types.Statement) (*types.PreparedStatement, error)

// FakeSession is an in-memory cql.Session.
//
// By default executions return an empty result set and prepares echo the
// statement. With Hold, async futures stay pending until Release.
type FakeSession struct {
	cluster *FakeCluster

	mu         sync.Mutex
	closed     bool
	executeFn  ExecuteFunc
	prepareFn  PrepareFunc
	metadata   map[string]*types.KeyspaceMetadata
	statements []string

	hold bool
	held []func()
}

// NewFakeSession creates an open session not attached to a cluster.
func NewFakeSession() *FakeSession {
	return &FakeSession{metadata: make(map[string]*types.KeyspaceMetadata)}
}

// OnExecute sets the function producing execution results.
func (s *FakeSession) OnExecute(fn ExecuteFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executeFn = fn
}

// OnPrepare sets the function producing prepare results.
func (s *FakeSession) OnPrepare(fn PrepareFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prepareFn = fn
}

// SetKeyspace registers metadata returned by KeyspaceMetadata.
func (s *FakeSession) SetKeyspace(md *types.KeyspaceMetadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata[md.Name] = md
}

// Hold keeps subsequent async futures pending until Release.
func (s *FakeSession) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hold = true
}

// Release completes every held future and stops holding.
//
// Returns:
//   - int: Number of futures completed
func (s *FakeSession) Release() int {
	s.mu.Lock()
	held := s.held
	s.held = nil
	s.hold = false
	s.mu.Unlock()

	for _, complete := range held {
		complete()
	}

	return len(held)
}

// Statements returns the CQL of every statement issued, in order.
func (s *FakeSession) Statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.statements)
}

func (s *FakeSession) record(stmt types.Statement) (ExecuteFunc, PrepareFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements = append(s.statements, stmt.CQL())

	return s.executeFn, s.prepareFn
}

// park queues complete when holding and reports whether it did.
func (s *FakeSession) park(complete func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hold {
		return false
	}
	s.held = append(s.held, complete)

	return true
}

// ExecuteAsync implements cql.Session.
func (s *FakeSession) ExecuteAsync(ctx context.Context, stmt types.Statement) *future.Future[*types.ResultSet] {
	f := future.New[*types.ResultSet]()
	complete := func() { f.Complete(s.runExecute(ctx, stmt)) }
	if !s.park(complete) {
		go complete()
	}

	return f
}

// PrepareAsync implements cql.Session.
func (s *FakeSession) PrepareAsync(ctx context.Context, stmt types.Statement) *future.Future[*types.PreparedStatement] {
	f := future.New[*types.PreparedStatement]()
	complete := func() { f.Complete(s.runPrepare(ctx, stmt)) }
	if !s.park(complete) {
		go complete()
	}

	return f
}

// Execute implements cql.Session.
func (s *FakeSession) Execute(ctx context.Context, stmt types.Statement) (*types.ResultSet, error) {
	return s.runExecute(ctx, stmt)
}

// Prepare implements cql.Session.
func (s *FakeSession) Prepare(ctx context.Context, stmt types.Statement) (*types.PreparedStatement, error) {
	return s.runPrepare(ctx, stmt)
}

func (s *FakeSession) runExecute(ctx context.Context, stmt types.Statement) (*types.ResultSet, error) {
	fn, _ := s.record(stmt)
	if fn != nil {
		return fn(ctx, stmt)
	}

	return &types.ResultSet{}, nil
}

func (s *FakeSession) runPrepare(ctx context.Context, stmt types.Statement) (*types.PreparedStatement, error) {
	_, fn := s.record(stmt)
	if fn != nil {
		return fn(ctx, stmt)
	}

	return &types.PreparedStatement{Query: stmt.CQL()}, nil
}

// KeyspaceMetadata implements cql.Session.
func (s *FakeSession) KeyspaceMetadata(keyspace string) (*types.KeyspaceMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	md, ok := s.metadata[keyspace]
	if !ok {
		return nil, ErrUnknownKeyspace
	}

	return md, nil
}

// Cluster implements cql.Session.
func (s *FakeSession) Cluster() cql.Cluster {
	if s.cluster == nil {
		return nil
	}

	return s.cluster
}

// IsClosed implements cql.Session.
func (s *FakeSession) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Close implements cql.Session.
func (s *FakeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
