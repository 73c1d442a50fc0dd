package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/tether"
	tmetrics "github.com/arloliu/tether/metrics"
)

// Option configures a Collector.
type Option func(*Collector)

// WithNamespace sets the metric namespace.
//
// Default: "tether"
func WithNamespace(namespace string) Option {
	return func(c *Collector) {
		c.namespace = namespace
	}
}

// WithConstLabels attaches fixed labels, such as an application name, to every metric.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Collector) {
		c.constLabels = labels
	}
}

// Collector exposes the gauges of a tether metrics.Registry to Prometheus.
//
// Gauges are polled on every scrape. Values without a numeric form
// (see metrics.Numeric) and the "config" gauge are skipped; the config
// snapshot is exported as the info metric {namespace}_session_config_info
// with the JSON document in the "config" label.
type Collector struct {
	registry    *tmetrics.Registry
	namespace   string
	constLabels prometheus.Labels

	gaugeDesc  *prometheus.Desc
	configDesc *prometheus.Desc
}

// Compile-time assertion that Collector implements prometheus.Collector.
var _ prometheus.Collector = (*Collector)(nil)

// New creates a collector reading from registry.
//
// Parameters:
//   - registry: The registry the session publishes to
//   - opts: Configuration options
//
// Returns:
//   - *Collector: A collector to register with a prometheus.Registerer
//
// Example:
//
//	registry := metrics.NewRegistry()
//	prometheus.MustRegister(prom.New(registry))
//	session, _ := tether.NewSession(driver, conf, tether.WithGaugeRegistry(registry))
func New(registry *tmetrics.Registry, opts ...Option) *Collector {
	c := &Collector{
		registry:  registry,
		namespace: "tether",
	}
	for _, opt := range opts {
		opt(c)
	}

	c.gaugeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(c.namespace, "session", "gauge"),
		"Session gauge value; host set gauges report the number of hosts.",
		[]string{"name"}, c.constLabels,
	)
	c.configDesc = prometheus.NewDesc(
		prometheus.BuildFQName(c.namespace, "session", "config_info"),
		"Cluster configuration snapshot of the current session.",
		[]string{"config"}, c.constLabels,
	)

	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.gaugeDesc
	ch <- c.configDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, sample := range c.registry.Snapshot() {
		if sample.Name == tether.GaugeConfig {
			if cfg, ok := sample.Value.(string); ok {
				ch <- prometheus.MustNewConstMetric(c.configDesc, prometheus.GaugeValue, 1, cfg)
			}
			continue
		}

		v, ok := tmetrics.Numeric(sample.Value)
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.gaugeDesc, prometheus.GaugeValue, v, sample.Name)
	}
}
