package testutil

import (
	"slices"
	"sync"

	"github.com/arloliu/tether/types"
)

// FakeConfigurator is a mutable configurator whose ready signal is fired
// by the test with TriggerReady.
type FakeConfigurator struct {
	mu       sync.Mutex
	seeds    []string
	policy   types.LoadBalancingPolicy
	pooling  *types.PoolingOptions
	socket   *types.SocketOptions
	query    *types.QueryOptions
	metrics  *types.MetricsOptions
	creds    *types.Credentials
	onReady  []func(error)
	triggers int
}

// NewFakeConfigurator creates a configurator with the given seeds.
func NewFakeConfigurator(seeds ...string) *FakeConfigurator {
	return &FakeConfigurator{seeds: seeds}
}

// SetSeeds replaces the seed list.
func (c *FakeConfigurator) SetSeeds(seeds ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seeds = seeds
}

// SetPolicy sets the load balancing policy.
func (c *FakeConfigurator) SetPolicy(p types.LoadBalancingPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = p
}

// SetPooling sets the pooling options.
func (c *FakeConfigurator) SetPooling(o *types.PoolingOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pooling = o
}

// SetSocket sets the socket options.
func (c *FakeConfigurator) SetSocket(o *types.SocketOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.socket = o
}

// SetQuery sets the query options.
func (c *FakeConfigurator) SetQuery(o *types.QueryOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = o
}

// SetMetrics sets the metrics options.
func (c *FakeConfigurator) SetMetrics(o *types.MetricsOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = o
}

// SetCredentials sets the credentials.
func (c *FakeConfigurator) SetCredentials(creds *types.Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
}

// TriggerReady calls every registered ready callback with err, synchronously.
func (c *FakeConfigurator) TriggerReady(err error) {
	c.mu.Lock()
	fns := slices.Clone(c.onReady)
	c.triggers++
	c.mu.Unlock()

	for _, fn := range fns {
		fn(err)
	}
}

// ReadyCallbacks returns the number of registered ready callbacks.
func (c *FakeConfigurator) ReadyCallbacks() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.onReady)
}

// Seeds returns a copy of the seed list.
func (c *FakeConfigurator) Seeds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.seeds)
}

// LoadBalancingPolicy returns the configured policy.
func (c *FakeConfigurator) LoadBalancingPolicy() types.LoadBalancingPolicy {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.policy
}

// PoolingOptions returns the configured pooling options.
func (c *FakeConfigurator) PoolingOptions() *types.PoolingOptions {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.pooling
}

// SocketOptions returns the configured socket options.
func (c *FakeConfigurator) SocketOptions() *types.SocketOptions {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.socket
}

// QueryOptions returns the configured query options.
func (c *FakeConfigurator) QueryOptions() *types.QueryOptions {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.query
}

// MetricsOptions returns the configured metrics options.
func (c *FakeConfigurator) MetricsOptions() *types.MetricsOptions {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.metrics
}

// AuthProvider returns the configured credentials.
func (c *FakeConfigurator) AuthProvider() *types.Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.creds
}

// OnReady records fn; it runs on TriggerReady.
func (c *FakeConfigurator) OnReady(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReady = append(c.onReady, fn)
}

// FakePolicy is a named load balancing policy.
type FakePolicy string

// PolicyName returns the policy name.
func (p FakePolicy) PolicyName() string { return string(p) }
