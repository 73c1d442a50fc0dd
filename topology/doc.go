// Package topology tracks cluster host state for observability.
//
// An Observer subscribes to a cluster handle as a cql.HostStateListener and
// keeps four host sets: added, up, down and removed. The session exposes
// their renderings as gauges and replaces the observer whenever it
// reconnects, so an observer only ever reflects a single cluster handle.
//
// # Usage
//
//	obs := topology.NewObserver()
//	cluster.Register(obs)
//	defer cluster.Unregister(obs)
//
//	fmt.Println(obs.Render(topology.Up))
//	// 10.0.0.1:9042 (dc=dc1 up=true)
//	// 10.0.0.2:9042 (dc=dc1 up=true)
package topology
