// Package metrics provides internal metrics utilities for tether.
package metrics

import "github.com/arloliu/tether/types"

// NopRegistry is a gauge registry that discards all registrations.
//
// This is used as the default registry when none is configured,
// avoiding nil checks throughout the codebase.
type NopRegistry struct{}

// Compile-time assertion that NopRegistry implements types.GaugeRegistry.
var _ types.GaugeRegistry = (*NopRegistry)(nil)

// NewNopRegistry creates a new no-op gauge registry.
//
// Returns:
//   - *NopRegistry: A registry that discards all gauges
func NewNopRegistry() *NopRegistry {
	return &NopRegistry{}
}

// Register discards the gauge.
func (r *NopRegistry) Register(_ string, _ types.Gauge) {}

// Remove does nothing.
func (r *NopRegistry) Remove(_ string) {}
