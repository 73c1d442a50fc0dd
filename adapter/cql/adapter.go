// Package cql provides the driver boundary the tether session is written against.
package cql

import (
	"context"

	"github.com/arloliu/tether/future"
	"github.com/arloliu/tether/types"
)

// Type aliases for convenience - re-export from types package.
type (
	Consistency = types.Consistency
	Host        = types.Host
)

// Re-export consistency level constants for convenience.
const (
	Any         = types.Any
	One         = types.One
	Two         = types.Two
	Three       = types.Three
	Quorum      = types.Quorum
	All         = types.All
	LocalQuorum = types.LocalQuorum
	EachQuorum  = types.EachQuorum
	Serial      = types.Serial
	LocalSerial = types.LocalSerial
	LocalOne    = types.LocalOne
)

// Driver creates cluster builders. One builder is used per initialization.
type Driver interface {
	// NewBuilder returns a fresh, unconfigured builder.
	NewBuilder() Builder
}

// Builder accumulates cluster settings before Build.
//
// Builder methods return the receiver so calls can be chained. A builder is
// used by a single goroutine and discarded after Build.
type Builder interface {
	// AddContactPoint adds one seed address. Called once per seed.
	AddContactPoint(address string) Builder

	// WithLoadBalancingPolicy sets the host selection policy.
	WithLoadBalancingPolicy(policy types.LoadBalancingPolicy) Builder

	// WithPoolingOptions sets per-host pooling.
	WithPoolingOptions(opts types.PoolingOptions) Builder

	// WithSocketOptions sets connection timeouts.
	WithSocketOptions(opts types.SocketOptions) Builder

	// WithQueryOptions sets statement defaults.
	WithQueryOptions(opts types.QueryOptions) Builder

	// WithMetricsOptions sets driver metrics options.
	WithMetricsOptions(opts types.MetricsOptions) Builder

	// WithCredentials enables plain-text authentication.
	WithCredentials(username, password string) Builder

	// Build validates the settings and returns an unconnected cluster handle.
	//
	// Returns:
	//   - Cluster: The cluster handle
	//   - error: Error if the settings are rejected by the driver
	Build() (Cluster, error)
}

// Cluster is a configured, possibly connected, cluster handle.
type Cluster interface {
	// Name returns the cluster name reported by the nodes, or a placeholder
	// until the first node has been seen.
	Name() string

	// Configuration returns the settings the cluster was built with.
	Configuration() Configuration

	// Connect opens a session. It blocks until the session is usable or fails.
	//
	// Parameters:
	//   - ctx: Bounds the wait; cancellation abandons the attempt
	//
	// Returns:
	//   - Session: A connected session
	//   - error: Error if no node could be reached
	Connect(ctx context.Context) (Session, error)

	// Register subscribes l to host state changes. Hosts already known to
	// the cluster are reported to l before Register returns.
	Register(l HostStateListener)

	// Unregister removes a listener added with Register.
	Unregister(l HostStateListener)

	// CloseAsync starts closing the cluster and every session it opened.
	CloseAsync() CloseFuture

	// IsClosed reports whether CloseAsync has been called.
	IsClosed() bool
}

// CloseFuture tracks an asynchronous cluster shutdown.
type CloseFuture interface {
	// Force stops waiting for in-flight requests and closes connections now.
	Force() CloseFuture

	// Done returns a channel closed once the shutdown finished.
	Done() <-chan struct{}

	// Err returns the shutdown error once Done is closed.
	Err() error
}

// Session executes statements against a connected cluster.
//
// Async methods never block the caller; their futures are completed from
// driver-owned goroutines.
type Session interface {
	// ExecuteAsync starts executing stmt.
	ExecuteAsync(ctx context.Context, stmt types.Statement) *future.Future[*types.ResultSet]

	// PrepareAsync starts preparing stmt.
	PrepareAsync(ctx context.Context, stmt types.Statement) *future.Future[*types.PreparedStatement]

	// Execute runs stmt and waits for the result.
	Execute(ctx context.Context, stmt types.Statement) (*types.ResultSet, error)

	// Prepare prepares stmt and waits for the result.
	Prepare(ctx context.Context, stmt types.Statement) (*types.PreparedStatement, error)

	// KeyspaceMetadata returns schema metadata for keyspace.
	KeyspaceMetadata(keyspace string) (*types.KeyspaceMetadata, error)

	// Cluster returns the cluster this session was opened from.
	Cluster() Cluster

	// IsClosed reports whether the session was closed.
	IsClosed() bool

	// Close closes the session.
	Close()
}

// HostStateListener receives host state transitions from a cluster.
//
// Callbacks run on driver goroutines and may be concurrent with each other.
type HostStateListener interface {
	OnAdd(host Host)
	OnUp(host Host)
	OnDown(host Host)
	OnRemove(host Host)
	OnSuspected(host Host)
}

// Configuration is a read-only snapshot of cluster settings.
type Configuration struct {
	ContactPoints       []string             `json:"contactPoints"`
	LoadBalancingPolicy string               `json:"loadBalancingPolicy"`
	ReconnectionPolicy  string               `json:"reconnectionPolicy"`
	RetryPolicy         string               `json:"retryPolicy"`
	Pooling             types.PoolingOptions `json:"pooling"`
	Socket              types.SocketOptions  `json:"socket"`
	Query               types.QueryOptions   `json:"query"`
	Metrics             types.MetricsOptions `json:"metrics"`
	Authenticated       bool                 `json:"authenticated"`
}
