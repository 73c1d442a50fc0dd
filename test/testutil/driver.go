package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/arloliu/tether/adapter/cql"
	"github.com/arloliu/tether/types"
)

// FakeDriver is an in-memory cql.Driver that records every builder, cluster
// and session it creates.
type FakeDriver struct {
	mu       sync.Mutex
	builders []*FakeBuilder
	clusters []*FakeCluster

	buildErr   error
	connectErr error
	name       string
	discovered []types.Host
}

// Compile-time assertions for the fake driver types.
var (
	_ cql.Driver      = (*FakeDriver)(nil)
	_ cql.Builder     = (*FakeBuilder)(nil)
	_ cql.Cluster     = (*FakeCluster)(nil)
	_ cql.Session     = (*FakeSession)(nil)
	_ cql.CloseFuture = (*FakeCloseFuture)(nil)
)

// NewFakeDriver creates a driver whose clusters connect successfully.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{name: "fake-cluster"}
}

// SetBuildError makes subsequent Build calls fail with err. Nil restores success.
func (d *FakeDriver) SetBuildError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buildErr = err
}

// SetConnectError makes subsequent Connect calls fail with err. Nil restores success.
func (d *FakeDriver) SetConnectError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connectErr = err
}

// SetClusterName sets the name reported by clusters built afterwards.
func (d *FakeDriver) SetClusterName(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.name = name
}

// SetDiscoveredHosts sets the hosts that clusters built afterwards report as
// added and up while connecting, before any listener is registered.
func (d *FakeDriver) SetDiscoveredHosts(hosts ...types.Host) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.discovered = slices.Clone(hosts)
}

// NewBuilder implements cql.Driver.
func (d *FakeDriver) NewBuilder() cql.Builder {
	b := &FakeBuilder{driver: d}

	d.mu.Lock()
	d.builders = append(d.builders, b)
	d.mu.Unlock()

	return b
}

// Builders returns every builder handed out so far.
func (d *FakeDriver) Builders() []*FakeBuilder {
	d.mu.Lock()
	defer d.mu.Unlock()

	return slices.Clone(d.builders)
}

// Clusters returns every cluster built so far, oldest first.
func (d *FakeDriver) Clusters() []*FakeCluster {
	d.mu.Lock()
	defer d.mu.Unlock()

	return slices.Clone(d.clusters)
}

// LastCluster returns the most recently built cluster, or nil.
func (d *FakeDriver) LastCluster() *FakeCluster {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.clusters) == 0 {
		return nil
	}

	return d.clusters[len(d.clusters)-1]
}

// FakeBuilder records the settings applied to it.
type FakeBuilder struct {
	driver *FakeDriver

	mu            sync.Mutex
	contactPoints []string
	policy        types.LoadBalancingPolicy
	cfg           cql.Configuration
	username      string
	password      string
}

// AddContactPoint implements cql.Builder.
func (b *FakeBuilder) AddContactPoint(address string) cql.Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contactPoints = append(b.contactPoints, address)

	return b
}

// WithLoadBalancingPolicy implements cql.Builder.
func (b *FakeBuilder) WithLoadBalancingPolicy(policy types.LoadBalancingPolicy) cql.Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.policy = policy

	return b
}

// WithPoolingOptions implements cql.Builder.
func (b *FakeBuilder) WithPoolingOptions(opts types.PoolingOptions) cql.Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.Pooling = opts

	return b
}

// WithSocketOptions implements cql.Builder.
func (b *FakeBuilder) WithSocketOptions(opts types.SocketOptions) cql.Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.Socket = opts

	return b
}

// WithQueryOptions implements cql.Builder.
func (b *FakeBuilder) WithQueryOptions(opts types.QueryOptions) cql.Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.Query = opts

	return b
}

// WithMetricsOptions implements cql.Builder.
func (b *FakeBuilder) WithMetricsOptions(opts types.MetricsOptions) cql.Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.Metrics = opts

	return b
}

// WithCredentials implements cql.Builder.
func (b *FakeBuilder) WithCredentials(username, password string) cql.Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.username, b.password = username, password
	b.cfg.Authenticated = true

	return b
}

// ContactPoints returns the addresses added, in call order.
func (b *FakeBuilder) ContactPoints() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return slices.Clone(b.contactPoints)
}

// Policy returns the policy set with WithLoadBalancingPolicy.
func (b *FakeBuilder) Policy() types.LoadBalancingPolicy {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.policy
}

// Credentials returns the username and password set with WithCredentials.
func (b *FakeBuilder) Credentials() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.username, b.password
}

// Build implements cql.Builder.
func (b *FakeBuilder) Build() (cql.Cluster, error) {
	b.driver.mu.Lock()
	defer b.driver.mu.Unlock()

	if b.driver.buildErr != nil {
		return nil, b.driver.buildErr
	}

	b.mu.Lock()
	cfg := b.cfg
	cfg.ContactPoints = slices.Clone(b.contactPoints)
	cfg.LoadBalancingPolicy = "none"
	if b.policy != nil {
		cfg.LoadBalancingPolicy = b.policy.PolicyName()
	}
	b.mu.Unlock()

	c := &FakeCluster{
		name:       b.driver.name,
		cfg:        cfg,
		connectErr: b.driver.connectErr,
		discovered: slices.Clone(b.driver.discovered),
	}
	b.driver.clusters = append(b.driver.clusters, c)

	return c, nil
}

// FakeCluster records connects, listener registration and shutdown.
type FakeCluster struct {
	name       string
	cfg        cql.Configuration
	connectErr error
	discovered []types.Host

	mu          sync.Mutex
	known       cql.KnownHosts
	sessions    []*FakeSession
	listeners   []cql.HostStateListener
	registers   int
	unregisters int
	closeFuture *FakeCloseFuture
}

// Name implements cql.Cluster.
func (c *FakeCluster) Name() string { return c.name }

// Configuration implements cql.Cluster.
func (c *FakeCluster) Configuration() cql.Configuration { return c.cfg }

// Connect implements cql.Cluster.
func (c *FakeCluster) Connect(ctx context.Context) (cql.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.connectErr != nil {
		return nil, c.connectErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeFuture != nil {
		return nil, fmt.Errorf("cluster %s is closed", c.name)
	}

	for _, h := range c.discovered {
		c.known.Added(h)
		c.known.Up(h)
	}

	s := NewFakeSession()
	s.cluster = c
	c.sessions = append(c.sessions, s)

	return s, nil
}

// Sessions returns the sessions opened from this cluster.
func (c *FakeCluster) Sessions() []*FakeSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.sessions)
}

// Session returns the first session opened from this cluster, or nil.
func (c *FakeCluster) Session() *FakeSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.sessions) == 0 {
		return nil
	}

	return c.sessions[0]
}

// Register implements cql.Cluster. Known hosts are replayed to l.
func (c *FakeCluster) Register(l cql.HostStateListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registers++
	c.listeners = append(c.listeners, l)
	c.known.Replay(l)
}

// Unregister implements cql.Cluster.
func (c *FakeCluster) Unregister(l cql.HostStateListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unregisters++
	c.listeners = slices.DeleteFunc(c.listeners, func(x cql.HostStateListener) bool { return x == l })
}

// Listeners returns the currently registered listeners.
func (c *FakeCluster) Listeners() []cql.HostStateListener {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.listeners)
}

// RegisterCalls returns the number of Register and Unregister calls.
func (c *FakeCluster) RegisterCalls() (registers, unregisters int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.registers, c.unregisters
}

// AddHost notifies listeners that host joined.
func (c *FakeCluster) AddHost(host types.Host) {
	for _, l := range c.track(host, c.known.Added) {
		l.OnAdd(host)
	}
}

// HostUp notifies listeners that host came up.
func (c *FakeCluster) HostUp(host types.Host) {
	for _, l := range c.track(host, c.known.Up) {
		l.OnUp(host)
	}
}

// HostDown notifies listeners that host went down.
func (c *FakeCluster) HostDown(host types.Host) {
	for _, l := range c.track(host, c.known.Down) {
		l.OnDown(host)
	}
}

// RemoveHost notifies listeners that host left.
func (c *FakeCluster) RemoveHost(host types.Host) {
	for _, l := range c.track(host, c.known.Removed) {
		l.OnRemove(host)
	}
}

// track records the host event and returns the listeners to notify.
func (c *FakeCluster) track(host types.Host, record func(cql.Host)) []cql.HostStateListener {
	c.mu.Lock()
	defer c.mu.Unlock()
	record(host)

	return slices.Clone(c.listeners)
}

// SuspectHost notifies listeners that host is suspected.
func (c *FakeCluster) SuspectHost(host types.Host) {
	for _, l := range c.Listeners() {
		l.OnSuspected(host)
	}
}

// CloseAsync implements cql.Cluster. Sessions are closed immediately.
func (c *FakeCluster) CloseAsync() cql.CloseFuture {
	c.mu.Lock()
	if c.closeFuture == nil {
		c.closeFuture = newFakeCloseFuture()
	}
	f := c.closeFuture
	sessions := slices.Clone(c.sessions)
	c.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	f.finish()

	return f
}

// IsClosed implements cql.Cluster.
func (c *FakeCluster) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeFuture != nil
}

// CloseCalls reports whether CloseAsync and Force were called.
func (c *FakeCluster) CloseCalls() (closed, forced bool) {
	c.mu.Lock()
	f := c.closeFuture
	c.mu.Unlock()

	if f == nil {
		return false, false
	}

	return true, f.Forced()
}

// FakeCloseFuture is an already-finished close.
type FakeCloseFuture struct {
	mu     sync.Mutex
	forced bool
	once   sync.Once
	done   chan struct{}
}

func newFakeCloseFuture() *FakeCloseFuture {
	return &FakeCloseFuture{done: make(chan struct{})}
}

func (f *FakeCloseFuture) finish() {
	f.once.Do(func() { close(f.done) })
}

// Force implements cql.CloseFuture.
func (f *FakeCloseFuture) Force() cql.CloseFuture {
	f.mu.Lock()
	f.forced = true
	f.mu.Unlock()
	f.finish()

	return f
}

// Forced reports whether Force was called.
func (f *FakeCloseFuture) Forced() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.forced
}

// Done implements cql.CloseFuture.
func (f *FakeCloseFuture) Done() <-chan struct{} { return f.done }

// Err implements cql.CloseFuture.
func (f *FakeCloseFuture) Err() error { return nil }
