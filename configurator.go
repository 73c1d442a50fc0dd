package tether

import "github.com/arloliu/tether/types"

// Configurator supplies cluster settings to a Session.
//
// Every option accessor may return nil, meaning "keep the driver default".
// The session reads the configurator on each Initialize, so a configurator
// may return different values over time.
//
// Implementations are provided by the configurator package.
type Configurator interface {
	// Seeds returns the contact points. An empty list is a configuration error.
	Seeds() []string

	// LoadBalancingPolicy returns the host selection policy, or nil.
	LoadBalancingPolicy() types.LoadBalancingPolicy

	// PoolingOptions returns per-host pooling, or nil.
	PoolingOptions() *types.PoolingOptions

	// SocketOptions returns connection timeouts, or nil.
	SocketOptions() *types.SocketOptions

	// QueryOptions returns statement defaults, or nil.
	QueryOptions() *types.QueryOptions

	// MetricsOptions returns metrics settings, or nil.
	MetricsOptions() *types.MetricsOptions

	// AuthProvider returns credentials, or nil. Credentials are applied only
	// when both username and password are non-empty.
	AuthProvider() *types.Credentials

	// OnReady registers fn to be called exactly once when the configurator
	// has finished its own setup, with nil on success or the setup error.
	OnReady(fn func(error))
}
