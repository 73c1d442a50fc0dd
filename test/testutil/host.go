package testutil

import (
	"sync/atomic"

	"github.com/arloliu/tether/types"
)

// FakeHost is a types.Host with settable liveness.
type FakeHost struct {
	addr string
	dc   string
	up   atomic.Bool
}

// Compile-time assertion that FakeHost implements types.Host.
var _ types.Host = (*FakeHost)(nil)

// NewFakeHost creates a host that starts down.
func NewFakeHost(addr, dc string) *FakeHost {
	return &FakeHost{addr: addr, dc: dc}
}

// SetUp sets the liveness reported by IsUp.
func (h *FakeHost) SetUp(up bool) {
	h.up.Store(up)
}

// Key returns the host address.
func (h *FakeHost) Key() string { return h.addr }

// DataCenter returns the host datacenter.
func (h *FakeHost) DataCenter() string { return h.dc }

// IsUp reports the liveness set with SetUp.
func (h *FakeHost) IsUp() bool { return h.up.Load() }

// String returns the host address.
func (h *FakeHost) String() string { return h.addr }
