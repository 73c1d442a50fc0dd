// Package prom exports tether session gauges through the Prometheus client library.
//
// The collector reads a shared metrics.Registry at scrape time:
//
//	registry := metrics.NewRegistry()
//	prometheus.MustRegister(prom.New(registry, prom.WithNamespace("app")))
//
//	session, _ := tether.NewSession(driver, conf,
//	    tether.WithGaugeRegistry(registry),
//	)
//
// Use it alongside contrib/metrics/vm by passing vm.WithRegistry(registry).
package prom
