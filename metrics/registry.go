package metrics

import (
	"sort"
	"strings"
	"sync"

	"github.com/arloliu/tether/types"
)

// Sample is one gauge reading.
type Sample struct {
	Name  string
	Value any
}

// Registry is an in-memory gauge registry.
//
// It is the reference types.GaugeRegistry: exporters (VictoriaMetrics,
// Prometheus, the NATS reporter) read from it via Snapshot.
type Registry struct {
	mu     sync.RWMutex
	gauges map[string]types.Gauge
}

// Compile-time assertion that Registry implements types.GaugeRegistry.
var _ types.GaugeRegistry = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{gauges: make(map[string]types.Gauge)}
}

// Register implements types.GaugeRegistry.
func (r *Registry) Register(name string, gauge types.Gauge) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gauges[name] = gauge
}

// Remove implements types.GaugeRegistry.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.gauges, name)
}

// Value polls the gauge registered under name.
func (r *Registry) Value(name string) (any, bool) {
	r.mu.RLock()
	g, ok := r.gauges[name]
	r.mu.RUnlock()

	if !ok {
		return nil, false
	}

	return g(), true
}

// Names returns the registered gauge names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.gauges))
	for name := range r.gauges {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)

	return names
}

// Snapshot polls every gauge and returns the readings sorted by name.
//
// Gauges are polled outside the registry lock, so a gauge may register or
// remove other gauges without deadlocking.
func (r *Registry) Snapshot() []Sample {
	r.mu.RLock()
	samples := make([]Sample, 0, len(r.gauges))
	polls := make([]types.Gauge, 0, len(r.gauges))
	for name, g := range r.gauges {
		samples = append(samples, Sample{Name: name})
		polls = append(polls, g)
	}
	r.mu.RUnlock()

	for i, g := range polls {
		samples[i].Value = g()
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Name < samples[j].Name })

	return samples
}

// Numeric converts a gauge value to a float for numeric exporters.
//
// Booleans map to 0/1 and strings map to their number of non-empty lines,
// which for host renderings is the host count.
//
// Returns:
//   - float64: The numeric value
//   - bool: false if the value has no numeric form
func Numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		if n == "" {
			return 0, true
		}
		return float64(strings.Count(strings.TrimRight(n, "\n"), "\n") + 1), true
	default:
		return 0, false
	}
}
