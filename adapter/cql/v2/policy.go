package v2

import (
	"fmt"
	"net"
	"strconv"

	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/arloliu/tether/adapter/cql"
	"github.com/arloliu/tether/types"
)

// Policy is a load balancing policy understood by this adapter.
//
// gocql host selection policies hold per-session state, so a Policy stores a
// constructor and a fresh gocql policy is created for every session.
type Policy struct {
	name      string
	newPolicy func() gocql.HostSelectionPolicy
}

// Compile-time assertion that Policy implements types.LoadBalancingPolicy.
var _ types.LoadBalancingPolicy = (*Policy)(nil)

// PolicyName implements types.LoadBalancingPolicy.
func (p *Policy) PolicyName() string {
	return p.name
}

// RoundRobin returns gocql's round robin policy, the driver default.
func RoundRobin() *Policy {
	return &Policy{
		name:      "RoundRobinPolicy",
		newPolicy: gocql.RoundRobinHostPolicy,
	}
}

// DCAwareRoundRobin returns a policy that prefers hosts in localDC.
//
// Parameters:
//   - localDC: The datacenter treated as local
//
// Returns:
//   - *Policy: The policy
func DCAwareRoundRobin(localDC string) *Policy {
	return &Policy{
		name: "DCAwareRoundRobinPolicy(localDc=" + localDC + ")",
		newPolicy: func() gocql.HostSelectionPolicy {
			return gocql.DCAwareRoundRobinPolicy(localDC)
		},
	}
}

// TokenAware wraps fallback with token-aware routing.
func TokenAware(fallback *Policy) *Policy {
	return &Policy{
		name: "TokenAwarePolicy(" + fallback.name + ")",
		newPolicy: func() gocql.HostSelectionPolicy {
			return gocql.TokenAwareHostPolicy(fallback.newPolicy())
		},
	}
}

// CustomPolicy wraps an arbitrary gocql policy constructor.
//
// Parameters:
//   - name: Name shown in configuration snapshots
//   - factory: Returns a new, unshared policy instance on every call
//
// Returns:
//   - *Policy: The policy
func CustomPolicy(name string, factory func() gocql.HostSelectionPolicy) *Policy {
	return &Policy{name: name, newPolicy: factory}
}

type hostEvent int

const (
	hostAdded hostEvent = iota
	hostUp
	hostDown
	hostRemoved
)

func (e hostEvent) String() string {
	switch e {
	case hostAdded:
		return "added"
	case hostUp:
		return "up"
	case hostDown:
		return "down"
	case hostRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// notifyingPolicy forwards host state changes to the cluster's listeners
// after the wrapped policy has seen them.
type notifyingPolicy struct {
	gocql.HostSelectionPolicy
	cluster *Cluster
}

func (p *notifyingPolicy) AddHost(h *gocql.HostInfo) {
	p.HostSelectionPolicy.AddHost(h)
	p.cluster.notify(hostAdded, newHost(h))
}

func (p *notifyingPolicy) RemoveHost(h *gocql.HostInfo) {
	p.HostSelectionPolicy.RemoveHost(h)
	p.cluster.notify(hostRemoved, newHost(h))
}

func (p *notifyingPolicy) HostUp(h *gocql.HostInfo) {
	p.HostSelectionPolicy.HostUp(h)
	p.cluster.notify(hostUp, newHost(h))
}

func (p *notifyingPolicy) HostDown(h *gocql.HostInfo) {
	p.HostSelectionPolicy.HostDown(h)
	p.cluster.notify(hostDown, newHost(h))
}

// host adapts gocql.HostInfo to cql.Host.
type host struct {
	info *gocql.HostInfo
	addr string
}

var _ cql.Host = (*host)(nil)

func newHost(info *gocql.HostInfo) *host {
	return &host{
		info: info,
		addr: net.JoinHostPort(info.ConnectAddress().String(), strconv.Itoa(info.Port())),
	}
}

func (h *host) Key() string        { return h.addr }
func (h *host) DataCenter() string { return h.info.DataCenter() }
func (h *host) IsUp() bool         { return h.info.IsUp() }
func (h *host) String() string     { return h.addr }

func describePolicy(p any) string {
	if p == nil {
		return "none"
	}

	return fmt.Sprintf("%T", p)
}
