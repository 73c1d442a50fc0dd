// Package loop provides single-goroutine execution contexts.
//
// A Loop owns one goroutine and runs queued tasks on it serially. Code that
// runs on a loop carries the loop in its context.Context (see WithExecutor
// and FromContext); the session uses that handle to deliver asynchronous
// results back onto the issuing loop.
//
// # Usage
//
//	l := loop.New(loop.WithName("api"))
//	l.Start(ctx)
//	defer l.Stop()
//
//	_ = l.Submit(ctx, func(ctx context.Context) {
//	    // ctx is bound to l; callbacks for operations issued with it run on l.
//	    _ = session.ExecuteQueryAsync(ctx, "SELECT now() FROM system.local", cb)
//	})
package loop
