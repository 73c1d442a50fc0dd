package tether

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/arloliu/tether/adapter/cql"
	"github.com/arloliu/tether/future"
	"github.com/arloliu/tether/types"
)

// Session bridges event-loop code and an asynchronous Cassandra driver.
//
// A Session starts unconnected. The first connection is made when the
// configurator signals readiness; Initialize may be called again at any time
// to replace the cluster handle. Asynchronous operations deliver their
// callbacks on the execution context carried by the caller's ctx
// (see package loop).
type Session struct {
	id           uuid.UUID
	driver       cql.Driver
	configurator Configurator
	config       *SessionConfig
	logger       types.Logger

	completion future.Executor
	ownedPool  *future.Pool

	// initMu serializes initializations; stateMu guards the state swap
	// against a concurrent Close.
	initMu  sync.Mutex
	stateMu sync.Mutex
	state   atomic.Pointer[sessionState]
	ready   atomic.Bool
	closed  atomic.Bool

	readyOnce sync.Once
	readyCh   chan struct{}
	readyErr  error

	metrics *sessionMetrics
}

// sessionState is the cluster and session produced by one initialization.
type sessionState struct {
	cluster      cql.Cluster
	session      cql.Session
	configurator Configurator
}

// NewSession creates a session and schedules its first initialization on
// the configurator's ready signal.
//
// Parameters:
//   - driver: The Cassandra driver (e.g., adapter/cql/v1.NewDriver())
//   - configurator: Source of cluster settings
//   - opts: Optional configuration
//
// Returns:
//   - *Session: A session that becomes ready once initialization succeeds
//   - error: ErrNilDriver or ErrNilConfigurator
func NewSession(driver cql.Driver, configurator Configurator, opts ...Option) (*Session, error) {
	if driver == nil {
		return nil, types.ErrNilDriver
	}
	if configurator == nil {
		return nil, types.ErrNilConfigurator
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	s := &Session{
		id:           uuid.New(),
		driver:       driver,
		configurator: configurator,
		config:       config,
		logger:       config.Logger,
		completion:   config.CompletionExecutor,
		readyCh:      make(chan struct{}),
	}
	if s.completion == nil {
		s.ownedPool = future.NewPool(config.CompletionWorkers, DefaultCompletionQueue,
			future.WithPoolLogger(config.Logger))
		s.completion = s.ownedPool
	}
	s.metrics = newSessionMetrics(s, config.Gauges, config.Reporter, config.Logger)

	configurator.OnReady(s.onConfiguratorReady)

	return s, nil
}

func (s *Session) onConfiguratorReady(err error) {
	if err != nil {
		s.logger.Error("configurator failed, session not initialized", "session", s.id, "error", err)
		s.signalReady(err)
		return
	}

	// only the first initialization comes from the ready signal
	if s.state.Load() != nil {
		s.logger.Debug("session already initialized, ignoring ready signal", "session", s.id)
		s.signalReady(nil)
		return
	}

	ctx := context.Background()
	if s.config.InitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.InitTimeout)
		defer cancel()
	}

	err = s.Initialize(ctx, s.configurator)
	s.signalReady(err)
}

func (s *Session) signalReady(err error) {
	s.readyOnce.Do(func() {
		s.readyErr = err
		close(s.readyCh)
	})
}

// Ready returns a channel closed once the initialization triggered by the
// configurator's ready signal has finished, successfully or not.
func (s *Session) Ready() <-chan struct{} {
	return s.readyCh
}

// WaitReady blocks until the configurator-triggered initialization finishes.
//
// Returns:
//   - error: The initialization error, or ctx.Err() if ctx ends first
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-s.readyCh:
		return s.readyErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Initialize builds and connects a new cluster handle from configurator and
// installs it as the active one.
//
// Initialize blocks for the duration of the connect and must not be called
// from an event loop. Concurrent calls are serialized; the last one to
// finish wins. On success any previous cluster handle is closed gracefully,
// so operations already in flight on it complete normally.
//
// A failed call leaves the session exactly as it was: a session that was
// ready stays ready on its previous cluster handle.
//
// Parameters:
//   - ctx: Bounds the connect
//   - configurator: Source of cluster settings
//
// Returns:
//   - error: types.ErrNoSeeds, *types.ConnectionError, types.ErrSessionClosed, or nil
func (s *Session) Initialize(ctx context.Context, configurator Configurator) error {
	if configurator == nil {
		return types.ErrNilConfigurator
	}
	if s.closed.Load() {
		return types.ErrSessionClosed
	}

	seeds := configurator.Seeds()
	if len(seeds) == 0 {
		s.logger.Error("cannot initialize session without seeds", "session", s.id)
		return types.ErrNoSeeds
	}

	s.initMu.Lock()
	defer s.initMu.Unlock()

	builder := s.driver.NewBuilder()
	for _, seed := range seeds {
		builder.AddContactPoint(seed)
	}
	if lb := configurator.LoadBalancingPolicy(); lb != nil {
		builder.WithLoadBalancingPolicy(lb)
	}
	if pooling := configurator.PoolingOptions(); pooling != nil {
		builder.WithPoolingOptions(*pooling)
	}
	if socket := configurator.SocketOptions(); socket != nil {
		builder.WithSocketOptions(*socket)
	}
	if query := configurator.QueryOptions(); query != nil {
		builder.WithQueryOptions(*query)
	}
	if m := configurator.MetricsOptions(); m != nil {
		builder.WithMetricsOptions(*m)
	}
	if creds := configurator.AuthProvider(); creds.Complete() {
		builder.WithCredentials(creds.Username, creds.Password)
	}

	cluster, err := builder.Build()
	if err != nil {
		s.logger.Error("failed to build cluster", "session", s.id, "seeds", seeds, "error", err)
		return &types.ConnectionError{Stage: "build", Seeds: seeds, Cause: err}
	}

	sess, err := cluster.Connect(ctx)
	if err != nil {
		cluster.CloseAsync().Force()
		s.logger.Error("failed to connect cluster", "session", s.id, "seeds", seeds, "error", err)
		return &types.ConnectionError{Stage: "connect", Seeds: seeds, Cause: err}
	}

	next := &sessionState{cluster: cluster, session: sess, configurator: configurator}

	s.stateMu.Lock()
	if s.closed.Load() {
		s.stateMu.Unlock()
		cluster.CloseAsync().Force()
		return types.ErrSessionClosed
	}
	prev := s.state.Swap(next)
	s.ready.Store(true)
	s.metrics.afterReconnect(cluster)
	s.stateMu.Unlock()

	if prev != nil {
		prev.cluster.CloseAsync()
		s.logger.Info("session re-initialized", "session", s.id, "cluster", cluster.Name(), "seeds", seeds)
	} else {
		s.logger.Info("session initialized", "session", s.id, "cluster", cluster.Name(), "seeds", seeds)
	}

	return nil
}

// Close forcibly closes the session without waiting for in-flight requests.
//
// Close does not block; use CloseAsync to observe completion.
//
// Returns:
//   - error: types.ErrNotInitialized or types.ErrSessionClosed
func (s *Session) Close() error {
	_, err := s.CloseAsync(true)
	return err
}

// CloseAsync closes the session. Metrics listeners and the reporter are
// detached first, then the cluster handle is asked to close.
//
// Parameters:
//   - force: Close connections immediately instead of draining in-flight requests
//
// Returns:
//   - cql.CloseFuture: Tracks the cluster shutdown
//   - error: types.ErrNotInitialized if the session never connected,
//     types.ErrSessionClosed if it was already closed
func (s *Session) CloseAsync(force bool) (cql.CloseFuture, error) {
	s.stateMu.Lock()
	st := s.state.Load()
	if st == nil {
		s.stateMu.Unlock()
		return nil, types.ErrNotInitialized
	}
	if !s.closed.CompareAndSwap(false, true) {
		s.stateMu.Unlock()
		return nil, types.ErrSessionClosed
	}
	s.metrics.close()
	s.stateMu.Unlock()

	f := st.cluster.CloseAsync()
	if force {
		f = f.Force()
	}

	if s.ownedPool != nil {
		go func() {
			<-f.Done()
			s.ownedPool.Close()
		}()
	}

	s.logger.Info("session closing", "session", s.id, "force", force)

	return f, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// IsReady reports whether the session has connected at least once and is
// not closed.
func (s *Session) IsReady() bool {
	return s.ready.Load() && !s.IsClosed()
}

// IsClosed reports whether the session, or its current driver session, is closed.
func (s *Session) IsClosed() bool {
	if s.closed.Load() {
		return true
	}
	st := s.state.Load()

	return st != nil && st.session.IsClosed()
}

// Cluster returns the current cluster handle, or nil before initialization.
func (s *Session) Cluster() cql.Cluster {
	if st := s.state.Load(); st != nil {
		return st.cluster
	}

	return nil
}

// CQLSession returns the current driver session, or nil before initialization.
func (s *Session) CQLSession() cql.Session {
	if st := s.state.Load(); st != nil {
		return st.session
	}

	return nil
}

// Configurator returns the configurator used by the latest successful
// initialization, or the one the session was created with.
func (s *Session) Configurator() Configurator {
	if st := s.state.Load(); st != nil {
		return st.configurator
	}

	return s.configurator
}

// activeSession returns the current driver session or types.ErrNotReady.
func (s *Session) activeSession() (cql.Session, error) {
	if s.closed.Load() {
		return nil, types.ErrNotReady
	}
	st := s.state.Load()
	if st == nil || st.session.IsClosed() {
		return nil, types.ErrNotReady
	}

	return st.session, nil
}
