package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	closed := false
	r.Register("closed", func() any { return closed })
	r.Register("config", func() any { return "{}" })

	v, ok := r.Value("closed")
	require.True(t, ok)
	assert.Equal(t, false, v)

	closed = true
	v, _ = r.Value("closed")
	assert.Equal(t, true, v)

	assert.Equal(t, []string{"closed", "config"}, r.Names())

	r.Register("config", func() any { return "replaced" })
	v, _ = r.Value("config")
	assert.Equal(t, "replaced", v)

	r.Remove("config")
	r.Remove("missing")
	_, ok = r.Value("config")
	assert.False(t, ok)
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Register("b", func() any { return 2 })
	r.Register("a", func() any {
		// Gauges may touch the registry while being polled.
		r.Register("c", func() any { return 3 })
		return 1
	})

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, Sample{Name: "a", Value: 1}, snap[0])
	assert.Equal(t, Sample{Name: "b", Value: 2}, snap[1])
	assert.Len(t, r.Names(), 3)
}

func TestNumeric(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{true, 1, true},
		{false, 0, true},
		{7, 7, true},
		{int64(9), 9, true},
		{2.5, 2.5, true},
		{"", 0, true},
		{"10.0.0.1:9042 (dc=dc1 up=true)", 1, true},
		{"a\nb\nc\n", 3, true},
		{struct{}{}, 0, false},
	}

	for _, tt := range tests {
		got, ok := Numeric(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
