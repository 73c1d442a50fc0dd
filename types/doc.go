// Package types provides shared types and error definitions for the tether library.
//
// This is a leaf package with zero tether imports to prevent import cycles.
// All packages in tether can safely import this package.
//
// # Statements and results
//
// Statement is the unit the session executes. SimpleStatement wraps a query
// string, PreparedStatement and BoundStatement cover the prepare/bind cycle,
// and ResultSet carries the fetched rows:
//
//	stmt := types.NewStatement("SELECT * FROM users WHERE id = ?", id)
//
// # Options
//
// PoolingOptions, SocketOptions, QueryOptions, MetricsOptions and Credentials
// are the driver settings a configurator may supply. A nil value always means
// "keep the driver default".
//
// # Errors
//
// Sentinel errors are provided for common failure scenarios:
//
//   - ErrInvalidConfig / ErrNoSeeds: the configurator supplied unusable settings
//   - ErrNotReady: an operation was issued before initialization or after close
//   - ErrNotInitialized: Close was called on a never-initialized session
//   - ErrSessionClosed: Close was called twice
//
// ConnectionError and OperationError wrap driver failures and support
// errors.Is / errors.As through Unwrap.
package types
