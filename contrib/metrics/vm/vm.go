package vm

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/VictoriaMetrics/metrics"

	"github.com/arloliu/tether"
	tmetrics "github.com/arloliu/tether/metrics"
	"github.com/arloliu/tether/types"
)

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "tether"
//
// Parameters:
//   - prefix: The prefix to use for all metric names
//
// Returns:
//   - Option: A configuration option
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithMetricsSet sets the metrics set to use.
//
// If provided, the collector will register metrics with this set instead of
// creating a new one. The caller is responsible for exposing this set
// (e.g., via metrics.WritePrometheus or a custom handler).
//
// Parameters:
//   - set: The metrics set to use
//
// Returns:
//   - Option: A configuration option
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *Collector) {
		c.set = set
	}
}

// WithRegistry sets the registry that keeps the raw gauge values.
//
// Share it with other exporters (contrib/metrics/prom, report) so every
// exporter sees the same gauges.
func WithRegistry(registry *tmetrics.Registry) Option {
	return func(c *Collector) {
		if registry != nil {
			c.registry = registry
		}
	}
}

// WithExcluded lists gauge names kept out of the VictoriaMetrics set.
//
// Default: the "config" gauge, whose value is a JSON document.
func WithExcluded(names ...string) Option {
	return func(c *Collector) {
		c.excluded = make(map[string]struct{}, len(names))
		for _, name := range names {
			c.excluded[name] = struct{}{}
		}
	}
}

// Collector implements types.GaugeRegistry on top of VictoriaMetrics.
//
// Every gauge is stored in a tether metrics.Registry and, unless excluded,
// exposed as {prefix}_session_gauge{name="..."} with its numeric value
// (see metrics.Numeric). Host set renderings therefore export the host count.
//
// Thread-safe for concurrent use.
type Collector struct {
	set      *metrics.Set
	prefix   string
	registry *tmetrics.Registry
	excluded map[string]struct{}

	mu            sync.Mutex
	exported      map[string]string
	registrations *metrics.Counter
	removals      *metrics.Counter
}

// Compile-time assertion that Collector implements types.GaugeRegistry.
var _ types.GaugeRegistry = (*Collector)(nil)

// New creates a new VictoriaMetrics-based gauge registry.
//
// The collector creates its own metrics.Set and registers it globally
// unless WithMetricsSet is given.
//
// Parameters:
//   - opts: Configuration options (e.g., WithPrefix)
//
// Returns:
//   - *Collector: A new collector ready for use
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	session, _ := tether.NewSession(driver, conf,
//	    tether.WithGaugeRegistry(collector),
//	)
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix:   "tether",
		registry: tmetrics.NewRegistry(),
		excluded: map[string]struct{}{tether.GaugeConfig: {}},
		exported: make(map[string]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.set == nil {
		c.set = metrics.NewSet()
		metrics.RegisterSet(c.set)
	}

	c.registrations = c.set.NewCounter(fmt.Sprintf(`%s_gauge_registrations_total`, c.prefix))
	c.removals = c.set.NewCounter(fmt.Sprintf(`%s_gauge_removals_total`, c.prefix))

	return c
}

// Register implements types.GaugeRegistry. Registering an existing name
// replaces the gauge.
func (c *Collector) Register(name string, gauge types.Gauge) {
	c.registry.Register(name, gauge)
	c.registrations.Inc()

	if _, skip := c.excluded[name]; skip {
		return
	}

	metricName := c.metricName(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.set.UnregisterMetric(metricName)
	c.set.NewGauge(metricName, func() float64 {
		v, ok := c.registry.Value(name)
		if !ok {
			return 0
		}
		f, _ := tmetrics.Numeric(v)

		return f
	})
	c.exported[name] = metricName
}

// Remove implements types.GaugeRegistry.
func (c *Collector) Remove(name string) {
	c.registry.Remove(name)
	c.removals.Inc()

	c.mu.Lock()
	defer c.mu.Unlock()

	if metricName, ok := c.exported[name]; ok {
		c.set.UnregisterMetric(metricName)
		delete(c.exported, name)
	}
}

// Registry returns the underlying gauge registry.
func (c *Collector) Registry() *tmetrics.Registry {
	return c.registry
}

// Set returns the underlying VictoriaMetrics set.
func (c *Collector) Set() *metrics.Set {
	return c.set
}

// Handler serves the collector's metrics in Prometheus text format.
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.WritePrometheus(w)
}

// WritePrometheus writes the collector's metrics in Prometheus text format.
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

func (c *Collector) metricName(gauge string) string {
	return fmt.Sprintf(`%s_session_gauge{name=%q}`, c.prefix, gauge)
}
