package cql

import "sort"

type liveness int

const (
	livenessUnknown liveness = iota
	livenessUp
	livenessDown
)

type knownHost struct {
	host     Host
	liveness liveness
}

// KnownHosts remembers the last state reported for each host of a cluster,
// so that a listener registered after the driver connected can catch up.
//
// KnownHosts is not safe for concurrent use; adapters guard it with the
// same lock that orders listener registration and event delivery.
type KnownHosts struct {
	hosts map[string]*knownHost
}

// Added records that host joined the cluster.
func (k *KnownHosts) Added(host Host) {
	k.entry(host)
}

// Up records that host is reachable.
func (k *KnownHosts) Up(host Host) {
	k.entry(host).liveness = livenessUp
}

// Down records that host is unreachable.
func (k *KnownHosts) Down(host Host) {
	k.entry(host).liveness = livenessDown
}

// Removed forgets host.
func (k *KnownHosts) Removed(host Host) {
	delete(k.hosts, host.Key())
}

// Len returns the number of known hosts.
func (k *KnownHosts) Len() int {
	return len(k.hosts)
}

// Replay reports every known host to l as added, followed by its last
// liveness, in host key order.
func (k *KnownHosts) Replay(l HostStateListener) {
	keys := make([]string, 0, len(k.hosts))
	for key := range k.hosts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		known := k.hosts[key]
		l.OnAdd(known.host)
		switch known.liveness {
		case livenessUp:
			l.OnUp(known.host)
		case livenessDown:
			l.OnDown(known.host)
		}
	}
}

func (k *KnownHosts) entry(host Host) *knownHost {
	if k.hosts == nil {
		k.hosts = make(map[string]*knownHost)
	}

	known, ok := k.hosts[host.Key()]
	if !ok {
		known = &knownHost{}
		k.hosts[host.Key()] = known
	}
	known.host = host

	return known
}
