// Package v1 provides a gocql v1.x driver for the tether session.
//
// The adapter translates builder settings into a gocql.ClusterConfig, runs
// asynchronous requests on their own goroutines, and reports host state
// changes by wrapping the configured host selection policy.
//
// # Usage
//
//	driver := v1.NewDriver(v1.WithKeyspace("app"))
//	session, err := tether.NewSession(driver, configurator)
//
// # Load balancing
//
// Policies are created with RoundRobin, DCAwareRoundRobin, TokenAware or
// CustomPolicy. Any other types.LoadBalancingPolicy is rejected at Build.
//
// # Prepared statements
//
// gocql prepares statements transparently on first execution, so Prepare
// and PrepareAsync return a handle without a server round-trip.
//
// # Thread Safety
//
// All adapter types are safe for concurrent use, matching gocql's thread safety guarantees.
package v1
