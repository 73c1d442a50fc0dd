// Package vm provides a VictoriaMetrics-based implementation of the
// GaugeRegistry interface.
//
// This package uses github.com/VictoriaMetrics/metrics for lightweight,
// Prometheus-compatible exposition of session gauges.
//
// # Basic Usage
//
// Create a collector with default prefix "tether":
//
//	collector := vm.New()
//	session, _ := tether.NewSession(driver, conf,
//	    tether.WithGaugeRegistry(collector),
//	)
//
// # Exposing Metrics
//
// Use the Handler method to expose metrics via HTTP:
//
//	http.HandleFunc("/metrics", collector.Handler)
//	http.ListenAndServe(":8080", nil)
//
// # Metrics Provided
//
//   - {prefix}_session_gauge{name="closed"} - 1 once the session is closed
//   - {prefix}_session_gauge{name="up-hosts"} - Number of hosts up
//   - {prefix}_session_gauge{name="down-hosts"} - Number of hosts down
//   - {prefix}_session_gauge{name="added-hosts"} - Number of hosts added
//   - {prefix}_session_gauge{name="removed-hosts"} - Number of hosts removed
//   - {prefix}_gauge_registrations_total - Counter of gauge registrations
//   - {prefix}_gauge_removals_total - Counter of gauge removals
//
// The "config" gauge is kept in Registry() but not exported, since its
// value is a JSON document rather than a number.
package vm
