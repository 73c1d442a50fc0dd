// Package v1 provides an adapter for gocql v1 (github.com/gocql/gocql).
package v1

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/arloliu/tether/adapter/cql"
	"github.com/arloliu/tether/future"
	"github.com/arloliu/tether/internal/logging"
	"github.com/arloliu/tether/types"
	"github.com/gocql/gocql"
)

// ErrClusterClosed is returned by Connect after CloseAsync was called.
var ErrClusterClosed = errors.New("tether/v1: cluster is closed")

// Driver creates gocql-backed cluster builders.
type Driver struct {
	keyspace string
	logger   types.Logger
	hooks    []func(*gocql.ClusterConfig)
}

// Compile-time assertions.
var (
	_ cql.Driver      = (*Driver)(nil)
	_ cql.Builder     = (*Builder)(nil)
	_ cql.Cluster     = (*Cluster)(nil)
	_ cql.Session     = (*Session)(nil)
	_ cql.CloseFuture = (*closeFuture)(nil)
)

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithKeyspace sets the keyspace every session is opened in.
func WithKeyspace(keyspace string) DriverOption {
	return func(d *Driver) {
		d.keyspace = keyspace
	}
}

// WithLogger routes gocql's internal log output to logger.
func WithLogger(logger types.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = logging.OrNop(logger)
	}
}

// WithConfigHook registers fn to adjust the gocql.ClusterConfig after the
// builder settings are applied. Use it for settings the builder does not expose.
func WithConfigHook(fn func(*gocql.ClusterConfig)) DriverOption {
	return func(d *Driver) {
		d.hooks = append(d.hooks, fn)
	}
}

// NewDriver creates a gocql v1 driver.
//
// Parameters:
//   - opts: Optional configuration
//
// Returns:
//   - *Driver: A driver implementing cql.Driver
func NewDriver(opts ...DriverOption) *Driver {
	d := &Driver{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// NewBuilder implements cql.Driver.
func (d *Driver) NewBuilder() cql.Builder {
	return &Builder{driver: d}
}

// Builder collects settings for a gocql cluster.
type Builder struct {
	driver      *Driver
	hosts       []string
	policy      *Policy
	pooling     *types.PoolingOptions
	socket      *types.SocketOptions
	query       *types.QueryOptions
	metrics     types.MetricsOptions
	credentials *types.Credentials
	err         error
}

// AddContactPoint implements cql.Builder.
func (b *Builder) AddContactPoint(address string) cql.Builder {
	b.hosts = append(b.hosts, address)
	return b
}

// WithLoadBalancingPolicy implements cql.Builder.
//
// Only policies created by this package are accepted; anything else makes
// Build fail with types.ErrInvalidConfig.
func (b *Builder) WithLoadBalancingPolicy(policy types.LoadBalancingPolicy) cql.Builder {
	p, ok := policy.(*Policy)
	if !ok {
		b.err = fmt.Errorf("%w: unsupported load balancing policy %T", types.ErrInvalidConfig, policy)
		return b
	}
	b.policy = p

	return b
}

// WithPoolingOptions implements cql.Builder.
func (b *Builder) WithPoolingOptions(opts types.PoolingOptions) cql.Builder {
	b.pooling = &opts
	return b
}

// WithSocketOptions implements cql.Builder.
func (b *Builder) WithSocketOptions(opts types.SocketOptions) cql.Builder {
	b.socket = &opts
	return b
}

// WithQueryOptions implements cql.Builder.
func (b *Builder) WithQueryOptions(opts types.QueryOptions) cql.Builder {
	b.query = &opts
	return b
}

// WithMetricsOptions implements cql.Builder.
func (b *Builder) WithMetricsOptions(opts types.MetricsOptions) cql.Builder {
	b.metrics = opts
	return b
}

// WithCredentials implements cql.Builder.
func (b *Builder) WithCredentials(username, password string) cql.Builder {
	b.credentials = &types.Credentials{Username: username, Password: password}
	return b
}

// Build implements cql.Builder.
func (b *Builder) Build() (cql.Cluster, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.hosts) == 0 {
		return nil, types.ErrNoSeeds
	}

	policy := b.policy
	if policy == nil {
		policy = RoundRobin()
	}

	cfg := b.clusterConfig()

	c := &Cluster{
		config: cfg,
		policy: policy,
		logger: b.driver.logger,
		snapshot: cql.Configuration{
			ContactPoints:       append([]string(nil), b.hosts...),
			LoadBalancingPolicy: policy.PolicyName(),
			ReconnectionPolicy:  describePolicy(cfg.ReconnectionPolicy),
			RetryPolicy:         describePolicy(cfg.RetryPolicy),
			Pooling: types.PoolingOptions{
				NumConns:          cfg.NumConns,
				MaxPreparedStmts:  cfg.MaxPreparedStmts,
				MaxRoutingKeyInfo: cfg.MaxRoutingKeyInfo,
			},
			Socket: types.SocketOptions{
				Port:           cfg.Port,
				ConnectTimeout: cfg.ConnectTimeout,
				ReadTimeout:    cfg.Timeout,
				KeepAlive:      cfg.SocketKeepalive,
			},
			Query: types.QueryOptions{
				Consistency:        FromGocqlConsistency(cfg.Consistency).Ptr(),
				SerialConsistency:  FromGocqlSerialConsistency(cfg.SerialConsistency).Ptr(),
				PageSize:           cfg.PageSize,
				DefaultIdempotence: cfg.DefaultIdempotence,
				DefaultTimestamp:   cfg.DefaultTimestamp,
			},
			Metrics:       b.metrics,
			Authenticated: b.credentials.Complete(),
		},
	}
	c.listeners.Store(&[]cql.HostStateListener{})

	return c, nil
}

// clusterConfig translates the collected settings. Unset options keep the
// gocql defaults.
func (b *Builder) clusterConfig() *gocql.ClusterConfig {
	cfg := gocql.NewCluster(b.hosts...)
	cfg.Keyspace = b.driver.keyspace
	cfg.Logger = stdLogger{logger: b.driver.logger}

	if p := b.pooling; p != nil {
		if p.NumConns > 0 {
			cfg.NumConns = p.NumConns
		}
		if p.MaxPreparedStmts > 0 {
			cfg.MaxPreparedStmts = p.MaxPreparedStmts
		}
		if p.MaxRoutingKeyInfo > 0 {
			cfg.MaxRoutingKeyInfo = p.MaxRoutingKeyInfo
		}
	}

	if s := b.socket; s != nil {
		if s.Port > 0 {
			cfg.Port = s.Port
		}
		if s.ConnectTimeout > 0 {
			cfg.ConnectTimeout = s.ConnectTimeout
		}
		if s.ReadTimeout > 0 {
			cfg.Timeout = s.ReadTimeout
		}
		cfg.SocketKeepalive = s.KeepAlive
	}

	if q := b.query; q != nil {
		if q.Consistency != nil {
			cfg.Consistency = ToGocqlConsistency(*q.Consistency)
		}
		if q.SerialConsistency != nil {
			cfg.SerialConsistency = ToGocqlSerialConsistency(*q.SerialConsistency)
		}
		if q.PageSize > 0 {
			cfg.PageSize = q.PageSize
		}
		cfg.DefaultIdempotence = q.DefaultIdempotence
		cfg.DefaultTimestamp = q.DefaultTimestamp
	}

	if b.credentials.Complete() {
		cfg.Authenticator = gocql.PasswordAuthenticator{
			Username: b.credentials.Username,
			Password: b.credentials.Password,
		}
	}

	for _, hook := range b.driver.hooks {
		hook(cfg)
	}

	return cfg
}

// Cluster is a gocql cluster configuration plus the sessions opened from it.
type Cluster struct {
	config   *gocql.ClusterConfig
	policy   *Policy
	snapshot cql.Configuration
	logger   types.Logger

	// listenersMu orders registration against event delivery and guards known
	listenersMu sync.Mutex
	listeners   atomic.Pointer[[]cql.HostStateListener]
	known       cql.KnownHosts

	name atomic.Pointer[string]

	mu       sync.Mutex
	sessions []*Session
	closing  *closeFuture
}

// Name implements cql.Cluster.
func (c *Cluster) Name() string {
	if name := c.name.Load(); name != nil {
		return *name
	}

	return "unknown"
}

// Configuration implements cql.Cluster.
func (c *Cluster) Configuration() cql.Configuration {
	return c.snapshot
}

// Connect implements cql.Cluster.
//
// Each session gets its own policy instance because gocql host selection
// policies cannot be shared between sessions.
func (c *Cluster) Connect(ctx context.Context) (cql.Session, error) {
	if c.IsClosed() {
		return nil, ErrClusterClosed
	}

	cfg := *c.config
	cfg.PoolConfig.HostSelectionPolicy = &notifyingPolicy{
		HostSelectionPolicy: c.policy.newPolicy(),
		cluster:             c,
	}

	type result struct {
		session *gocql.Session
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := cfg.CreateSession()
		ch <- result{session: s, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}

		return c.track(r.session)
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.session != nil {
				r.session.Close()
			}
		}()

		return nil, ctx.Err()
	}
}

func (c *Cluster) track(gs *gocql.Session) (cql.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closing != nil {
		gs.Close()
		return nil, ErrClusterClosed
	}

	s := &Session{session: gs, cluster: c}
	c.sessions = append(c.sessions, s)

	return s, nil
}

// Register implements cql.Cluster.
//
// Hosts the driver discovered before l was registered, typically while
// connecting, are replayed to l before Register returns.
func (c *Cluster) Register(l cql.HostStateListener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	old := *c.listeners.Load()
	next := make([]cql.HostStateListener, len(old)+1)
	copy(next, old)
	next[len(old)] = l
	c.listeners.Store(&next)

	c.known.Replay(l)
}

// Unregister implements cql.Cluster.
func (c *Cluster) Unregister(l cql.HostStateListener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	old := *c.listeners.Load()
	next := make([]cql.HostStateListener, 0, len(old))
	for _, existing := range old {
		if existing != l {
			next = append(next, existing)
		}
	}
	c.listeners.Store(&next)
}

// CloseAsync implements cql.Cluster.
//
// Sessions stop accepting new requests immediately. Connections are closed
// once in-flight requests finish, or right away after Force.
func (c *Cluster) CloseAsync() cql.CloseFuture {
	c.mu.Lock()
	if c.closing != nil {
		f := c.closing
		c.mu.Unlock()
		return f
	}
	f := newCloseFuture()
	c.closing = f
	sessions := c.sessions
	c.sessions = nil
	c.mu.Unlock()

	go func() {
		var wg sync.WaitGroup
		for _, s := range sessions {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.shutdown(f.force)
			}()
		}
		wg.Wait()
		close(f.done)
	}()

	return f
}

// IsClosed implements cql.Cluster.
func (c *Cluster) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closing != nil
}

func (c *Cluster) notify(event hostEvent, h cql.Host) {
	if info, ok := h.(*host); ok && c.name.Load() == nil {
		if name := info.info.ClusterName(); name != "" {
			c.name.CompareAndSwap(nil, &name)
		}
	}

	c.logger.Debug("host state changed", "host", h.String(), "event", event.String(), "dc", h.DataCenter())

	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	switch event {
	case hostAdded:
		c.known.Added(h)
	case hostUp:
		c.known.Up(h)
	case hostDown:
		c.known.Down(h)
	case hostRemoved:
		c.known.Removed(h)
	}

	for _, l := range *c.listeners.Load() {
		switch event {
		case hostAdded:
			l.OnAdd(h)
		case hostUp:
			l.OnUp(h)
		case hostDown:
			l.OnDown(h)
		case hostRemoved:
			l.OnRemove(h)
		}
	}
}

type closeFuture struct {
	force     chan struct{}
	forceOnce sync.Once
	done      chan struct{}
}

func newCloseFuture() *closeFuture {
	return &closeFuture{
		force: make(chan struct{}),
		done:  make(chan struct{}),
	}
}

func (f *closeFuture) Force() cql.CloseFuture {
	f.forceOnce.Do(func() { close(f.force) })
	return f
}

func (f *closeFuture) Done() <-chan struct{} { return f.done }

// Err always returns nil: gocql reports no error from Close.
func (f *closeFuture) Err() error { return nil }

// Session wraps a gocql v1 session.
type Session struct {
	session *gocql.Session
	cluster *Cluster

	mu       sync.Mutex
	closing  bool
	inflight sync.WaitGroup
	closed   atomic.Bool
}

// ExecuteAsync implements cql.Session.
func (s *Session) ExecuteAsync(ctx context.Context, stmt types.Statement) *future.Future[*types.ResultSet] {
	if !s.begin() {
		return future.Completed[*types.ResultSet](nil, gocql.ErrSessionClosed)
	}

	return future.Go(func() (*types.ResultSet, error) {
		defer s.inflight.Done()
		return s.execute(ctx, stmt)
	})
}

// PrepareAsync implements cql.Session.
func (s *Session) PrepareAsync(ctx context.Context, stmt types.Statement) *future.Future[*types.PreparedStatement] {
	if !s.begin() {
		return future.Completed[*types.PreparedStatement](nil, gocql.ErrSessionClosed)
	}

	return future.Go(func() (*types.PreparedStatement, error) {
		defer s.inflight.Done()
		return s.prepare(ctx, stmt)
	})
}

// Execute implements cql.Session.
func (s *Session) Execute(ctx context.Context, stmt types.Statement) (*types.ResultSet, error) {
	if !s.begin() {
		return nil, gocql.ErrSessionClosed
	}
	defer s.inflight.Done()

	return s.execute(ctx, stmt)
}

// Prepare implements cql.Session.
//
// gocql prepares statements lazily on first execution and caches them per
// connection, so this only validates the session and returns a handle.
func (s *Session) Prepare(ctx context.Context, stmt types.Statement) (*types.PreparedStatement, error) {
	if !s.begin() {
		return nil, gocql.ErrSessionClosed
	}
	defer s.inflight.Done()

	return s.prepare(ctx, stmt)
}

// KeyspaceMetadata implements cql.Session.
func (s *Session) KeyspaceMetadata(keyspace string) (*types.KeyspaceMetadata, error) {
	md, err := s.session.KeyspaceMetadata(keyspace)
	if err != nil {
		return nil, err
	}

	tables := make([]string, 0, len(md.Tables))
	for name := range md.Tables {
		tables = append(tables, name)
	}

	return &types.KeyspaceMetadata{
		Name:            md.Name,
		DurableWrites:   md.DurableWrites,
		StrategyClass:   md.StrategyClass,
		StrategyOptions: md.StrategyOptions,
		Tables:          tables,
	}, nil
}

// Cluster implements cql.Session.
func (s *Session) Cluster() cql.Cluster {
	return s.cluster
}

// IsClosed implements cql.Session.
func (s *Session) IsClosed() bool {
	return s.closed.Load() || s.session.Closed()
}

// Close implements cql.Session. It does not wait for in-flight requests.
func (s *Session) Close() {
	force := make(chan struct{})
	close(force)
	s.shutdown(force)
}

func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return false
	}
	s.inflight.Add(1)

	return true
}

func (s *Session) shutdown(force <-chan struct{}) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.closing = true
	s.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-force:
	}

	s.session.Close()
	s.closed.Store(true)
}

func (s *Session) execute(ctx context.Context, stmt types.Statement) (*types.ResultSet, error) {
	iter := s.session.Query(stmt.CQL(), stmt.Args()...).WithContext(ctx).Iter()

	rows, err := iter.SliceMap()
	rs := &types.ResultSet{
		Columns:  convertColumns(iter.Columns()),
		Rows:     rows,
		Warnings: iter.Warnings(),
	}
	if closeErr := iter.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}

	return rs, nil
}

func (s *Session) prepare(ctx context.Context, stmt types.Statement) (*types.PreparedStatement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &types.PreparedStatement{
		Query:    stmt.CQL(),
		Keyspace: s.cluster.config.Keyspace,
	}, nil
}

func convertColumns(cols []gocql.ColumnInfo) []types.ColumnInfo {
	out := make([]types.ColumnInfo, len(cols))
	for i, c := range cols {
		out[i] = types.ColumnInfo{
			Keyspace: c.Keyspace,
			Table:    c.Table,
			Name:     c.Name,
		}
		if c.TypeInfo != nil {
			out[i].Type = c.TypeInfo.Type().String()
		}
	}

	return out
}
