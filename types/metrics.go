package types

// Gauge is a polled metric. It is called on every read by the registry's
// consumer and must be safe for concurrent use.
//
// Values are expected to be one of: string, bool, an integer type, or float64.
type Gauge func() any

// GaugeRegistry is the metrics collaborator the session publishes to.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	import vmmetrics "github.com/arloliu/tether/contrib/metrics/vm"
//
//	registry := vmmetrics.New(vmmetrics.WithPrefix("myapp"))
//	session, _ := tether.NewSession(driver, configurator,
//	    tether.WithGaugeRegistry(registry),
//	)
//
//	// Expose metrics via HTTP
//	http.HandleFunc("/metrics", registry.Handler)
type GaugeRegistry interface {
	// Register adds a gauge under name, replacing any gauge already registered
	// under the same name.
	Register(name string, gauge Gauge)

	// Remove drops the gauge registered under name. Unknown names are ignored.
	Remove(name string)
}

// Reporter periodically ships metrics to an external sink.
//
// The session starts a reporter after every successful connect when
// MetricsOptions.ReportingEnabled is set, and stops it before reconnecting
// and on close.
type Reporter interface {
	// Start begins reporting for the named cluster. Calling Start on a running
	// reporter restarts it.
	Start(cluster string) error

	// Stop halts reporting. It is safe to call on a stopped reporter.
	Stop()
}
