// Package tether provides an event-loop-affine session for Cassandra.
//
// Code running on a single-goroutine event loop (package loop) issues
// database operations through a Session and receives results back on the
// same loop, without blocking it. The Session owns the cluster connection
// lifecycle and publishes live topology and configuration state as gauges.
//
// # Key Features
//
//   - Context-affine callbacks: results are delivered on the issuing loop
//   - Re-initialization: swap the cluster handle at runtime without dropping in-flight work
//   - Topology gauges: added/up/down/removed host renderings per cluster handle
//   - Pluggable configuration: static, YAML file, environment overlay, hot reload
//
// # Basic Usage
//
//	cfg, _ := configurator.FromEnv(configurator.Config{})
//	session, err := tether.NewSession(v1.NewDriver(), cfg,
//	    tether.WithLogger(zaplog.New(logger)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	if err := session.WaitReady(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	l := loop.New()
//	l.Start(ctx)
//	_ = l.Submit(ctx, func(ctx context.Context) {
//	    _ = session.ExecuteQueryAsync(ctx, "SELECT release_version FROM system.local",
//	        tether.OnResult(
//	            func(rs *types.ResultSet) { /* runs on l */ },
//	            func(err error) { /* runs on l */ },
//	        ))
//	})
//
// # Error Handling
//
// Configuration and readiness errors are returned synchronously:
//
//   - types.ErrNoSeeds (wraps types.ErrInvalidConfig): Initialize without seeds
//   - types.ErrNotReady: operation before initialization or after close
//   - types.ErrNotInitialized: Close on a never-initialized session
//   - types.ErrSessionClosed: second Close
//
// Connection failures surface from Initialize as *types.ConnectionError.
// Operation failures reach the callback's OnFailure (or the synchronous
// return) as *types.OperationError wrapping the driver error:
//
//	func(err error) {
//	    var opErr *types.OperationError
//	    if errors.As(err, &opErr) {
//	        log.Printf("%s failed: %v", opErr.Operation, opErr.Cause)
//	    }
//	}
//
// # Synchronous Variants
//
// Execute, ExecuteQuery, Prepare and PrepareQuery block the caller. They
// exist for setup code and tools and must not be used on an event loop.
package tether
