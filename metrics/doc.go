// Package metrics provides the in-memory gauge registry used by tether
// sessions and the exporters built on top of it.
//
// The session publishes polled gauges (configuration snapshot, closed flag,
// host renderings) through types.GaugeRegistry. Registry stores them and
// Snapshot polls them on demand:
//
//	registry := metrics.NewRegistry()
//	session, _ := tether.NewSession(driver, configurator,
//	    tether.WithGaugeRegistry(registry),
//	)
//
//	for _, s := range registry.Snapshot() {
//	    fmt.Println(s.Name, s.Value)
//	}
package metrics
