package topology

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/arloliu/tether/adapter/cql"
	"github.com/arloliu/tether/types"
)

// State names one of the host sets tracked by an Observer.
type State int

const (
	// Added holds hosts that joined the cluster and have not been removed since.
	Added State = iota
	// Up holds hosts last reported up.
	Up
	// Down holds hosts last reported down.
	Down
	// Removed holds hosts that left the cluster and have not been re-added since.
	Removed
)

// States lists every State in gauge order.
var States = []State{Added, Up, Down, Removed}

// String returns the gauge name for the state ("added-hosts", ...).
func (s State) String() string {
	switch s {
	case Added:
		return "added-hosts"
	case Up:
		return "up-hosts"
	case Down:
		return "down-hosts"
	case Removed:
		return "removed-hosts"
	default:
		return "unknown-hosts"
	}
}

// Observer tracks host membership and liveness reported by one cluster handle.
//
// Each event moves a host between a pair of sets in one step, so readers
// never see a host in both Up and Down, or in both Added and Removed.
// OnSuspected is ignored.
type Observer struct {
	mu   sync.RWMutex
	sets [4]map[string]types.Host
}

// Compile-time assertion that Observer implements cql.HostStateListener.
var _ cql.HostStateListener = (*Observer)(nil)

// NewObserver creates an empty observer.
func NewObserver() *Observer {
	o := &Observer{}
	for i := range o.sets {
		o.sets[i] = make(map[string]types.Host)
	}

	return o
}

// OnAdd implements cql.HostStateListener.
func (o *Observer) OnAdd(host types.Host) {
	o.move(host, Added, Removed)
}

// OnUp implements cql.HostStateListener.
func (o *Observer) OnUp(host types.Host) {
	o.move(host, Up, Down)
}

// OnDown implements cql.HostStateListener.
func (o *Observer) OnDown(host types.Host) {
	o.move(host, Down, Up)
}

// OnRemove implements cql.HostStateListener.
func (o *Observer) OnRemove(host types.Host) {
	o.move(host, Removed, Added)
}

// OnSuspected implements cql.HostStateListener. Suspicion is not tracked.
func (o *Observer) OnSuspected(_ types.Host) {}

func (o *Observer) move(host types.Host, into, outOf State) {
	key := host.Key()

	o.mu.Lock()
	o.sets[into][key] = host
	delete(o.sets[outOf], key)
	o.mu.Unlock()
}

// Hosts returns the hosts currently in state, ordered by key.
func (o *Observer) Hosts(state State) []types.Host {
	o.mu.RLock()
	set := o.sets[state]
	hosts := make([]types.Host, 0, len(set))
	for _, h := range set {
		hosts = append(hosts, h)
	}
	o.mu.RUnlock()

	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Key() < hosts[j].Key() })

	return hosts
}

// Count returns the number of hosts currently in state.
func (o *Observer) Count(state State) int {
	o.mu.RLock()
	defer o.mu.RUnlock()

	return len(o.sets[state])
}

// Render formats the hosts in state, one per line:
//
//	10.0.0.1:9042 (dc=dc1 up=true)
//
// Liveness is read from the host at render time. An empty set renders as "".
func (o *Observer) Render(state State) string {
	var b strings.Builder
	for i, h := range o.Hosts(state) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(h.String())
		b.WriteString(" (dc=")
		b.WriteString(h.DataCenter())
		b.WriteString(" up=")
		b.WriteString(strconv.FormatBool(h.IsUp()))
		b.WriteByte(')')
	}

	return b.String()
}

// Gauges returns one polled gauge per state, keyed by gauge name.
func (o *Observer) Gauges() map[string]types.Gauge {
	gauges := make(map[string]types.Gauge, len(States))
	for _, state := range States {
		gauges[state.String()] = func() any { return o.Render(state) }
	}

	return gauges
}
