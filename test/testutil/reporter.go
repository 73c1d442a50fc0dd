package testutil

import (
	"slices"
	"sync"

	"github.com/arloliu/tether/types"
)

// FakeReporter records Start and Stop calls.
type FakeReporter struct {
	mu       sync.Mutex
	started  []string
	stops    int
	running  bool
	startErr error
}

// Compile-time assertion that FakeReporter implements types.Reporter.
var _ types.Reporter = (*FakeReporter)(nil)

// NewFakeReporter creates a reporter that starts successfully.
func NewFakeReporter() *FakeReporter {
	return &FakeReporter{}
}

// SetStartError makes subsequent Start calls fail with err.
func (r *FakeReporter) SetStartError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startErr = err
}

// Start records cluster.
func (r *FakeReporter) Start(cluster string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.startErr != nil {
		return r.startErr
	}
	r.started = append(r.started, cluster)
	r.running = true

	return nil
}

// Stop records the call.
func (r *FakeReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	r.running = false
}

// Starts returns the cluster names passed to successful Start calls.
func (r *FakeReporter) Starts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.started)
}

// Stops returns the number of Stop calls.
func (r *FakeReporter) Stops() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stops
}

// Running reports whether the last Start was not followed by Stop.
func (r *FakeReporter) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.running
}
