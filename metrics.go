package tether

import (
	"encoding/json"
	"sync"

	"github.com/arloliu/tether/adapter/cql"
	"github.com/arloliu/tether/topology"
	"github.com/arloliu/tether/types"
)

// Gauge names published by a Session.
const (
	GaugeConfig = "config"
	GaugeClosed = "closed"
)

// sessionMetrics keeps the session's gauges, topology observer and reporter
// attached to the current cluster handle.
type sessionMetrics struct {
	session  *Session
	gauges   types.GaugeRegistry
	reporter types.Reporter
	logger   types.Logger

	mu        sync.Mutex
	cluster   cql.Cluster
	observer  *topology.Observer
	reporting bool
}

func newSessionMetrics(s *Session, gauges types.GaugeRegistry, reporter types.Reporter, logger types.Logger) *sessionMetrics {
	return &sessionMetrics{
		session:  s,
		gauges:   gauges,
		reporter: reporter,
		logger:   logger,
	}
}

// afterReconnect detaches from the previous cluster handle, then registers
// gauges and a fresh observer against cluster and starts the reporter when
// reporting is enabled.
func (m *sessionMetrics) afterReconnect(cluster cql.Cluster) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.detachLocked()

	cfg := cluster.Configuration()
	snapshot := renderConfig(cfg)
	m.gauges.Register(GaugeConfig, func() any { return snapshot })
	m.gauges.Register(GaugeClosed, func() any { return m.session.IsClosed() })

	observer := topology.NewObserver()
	for name, gauge := range observer.Gauges() {
		m.gauges.Register(name, gauge)
	}
	cluster.Register(observer)
	m.cluster = cluster
	m.observer = observer

	if cfg.Metrics.ReportingEnabled && m.reporter != nil {
		if err := m.reporter.Start(cluster.Name()); err != nil {
			m.logger.Warn("failed to start metrics reporter", "cluster", cluster.Name(), "error", err)
			return
		}
		m.reporting = true
	}
}

// close detaches the observer and stops the reporter. Gauges stay
// registered so the closed flag remains observable.
func (m *sessionMetrics) close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.detachLocked()
}

func (m *sessionMetrics) detachLocked() {
	if m.observer != nil {
		m.cluster.Unregister(m.observer)
		m.observer = nil
		m.cluster = nil
	}
	if m.reporting {
		m.reporter.Stop()
		m.reporting = false
	}
}

// renderConfig renders the configuration snapshot as indented JSON.
func renderConfig(cfg cql.Configuration) string {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "{}"
	}

	return string(data)
}
