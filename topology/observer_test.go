package topology

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/tether/test/testutil"
)

func TestObserverAddThenRemove(t *testing.T) {
	o := NewObserver()
	h := testutil.NewFakeHost("10.0.0.1:9042", "dc1")

	o.OnAdd(h)
	require.Equal(t, 1, o.Count(Added))

	o.OnRemove(h)
	assert.Equal(t, 0, o.Count(Added))
	assert.Equal(t, 1, o.Count(Removed))

	// Re-adding moves it back.
	o.OnAdd(h)
	assert.Equal(t, 1, o.Count(Added))
	assert.Equal(t, 0, o.Count(Removed))
}

func TestObserverUpThenDown(t *testing.T) {
	o := NewObserver()
	h := testutil.NewFakeHost("10.0.0.1:9042", "dc1")

	o.OnUp(h)
	o.OnDown(h)

	assert.Equal(t, 0, o.Count(Up))
	assert.Equal(t, 1, o.Count(Down))
	assert.Empty(t, o.Render(Up))
}

func TestObserverSuspectedIsIgnored(t *testing.T) {
	o := NewObserver()
	h := testutil.NewFakeHost("10.0.0.1:9042", "dc1")

	o.OnSuspected(h)

	for _, s := range States {
		assert.Equal(t, 0, o.Count(s), s.String())
	}
}

func TestObserverRender(t *testing.T) {
	o := NewObserver()
	a := testutil.NewFakeHost("10.0.0.2:9042", "dc2")
	b := testutil.NewFakeHost("10.0.0.1:9042", "dc1")
	b.SetUp(true)

	o.OnAdd(a)
	o.OnAdd(b)

	assert.Equal(t,
		"10.0.0.1:9042 (dc=dc1 up=true)\n10.0.0.2:9042 (dc=dc2 up=false)",
		o.Render(Added),
	)

	// Liveness is read at render time.
	a.SetUp(true)
	assert.Contains(t, o.Render(Added), "10.0.0.2:9042 (dc=dc2 up=true)")

	hosts := o.Hosts(Added)
	require.Len(t, hosts, 2)
	assert.Equal(t, "10.0.0.1:9042", hosts[0].Key())
}

func TestObserverGauges(t *testing.T) {
	o := NewObserver()
	o.OnUp(testutil.NewFakeHost("10.0.0.1:9042", "dc1"))

	gauges := o.Gauges()
	require.Len(t, gauges, 4)
	for _, name := range []string{"added-hosts", "up-hosts", "down-hosts", "removed-hosts"} {
		require.Contains(t, gauges, name)
	}

	assert.Equal(t, "10.0.0.1:9042 (dc=dc1 up=false)", gauges["up-hosts"]())
	assert.Equal(t, "", gauges["down-hosts"]())
}

func TestObserverConcurrentEvents(t *testing.T) {
	o := NewObserver()
	hosts := make([]*testutil.FakeHost, 8)
	for i := range hosts {
		hosts[i] = testutil.NewFakeHost("10.0.0."+string(rune('1'+i))+":9042", "dc1")
	}

	var wg sync.WaitGroup
	for _, h := range hosts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				o.OnUp(h)
				o.OnDown(h)
				_ = o.Render(Up)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, o.Count(Up))
	assert.Equal(t, len(hosts), o.Count(Down))
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "unknown-hosts", State(9).String())
}
