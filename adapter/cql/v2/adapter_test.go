package v2

import (
	"testing"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/tether/adapter/cql"
	"github.com/arloliu/tether/types"
)

type countingListener struct {
	adds, removes int
}

func (l *countingListener) OnAdd(cql.Host)       { l.adds++ }
func (l *countingListener) OnUp(cql.Host)        {}
func (l *countingListener) OnDown(cql.Host)      {}
func (l *countingListener) OnRemove(cql.Host)    { l.removes++ }
func (l *countingListener) OnSuspected(cql.Host) {}

type fixedHost string

func (h fixedHost) Key() string        { return string(h) }
func (h fixedHost) DataCenter() string { return "dc2" }
func (h fixedHost) IsUp() bool         { return false }
func (h fixedHost) String() string     { return string(h) }

func TestBuild(t *testing.T) {
	_, err := NewDriver().NewBuilder().Build()
	require.ErrorIs(t, err, types.ErrNoSeeds)

	c, err := NewDriver(WithKeyspace("metrics")).NewBuilder().
		AddContactPoint("192.168.1.10").
		WithLoadBalancingPolicy(DCAwareRoundRobin("dc2")).
		WithSocketOptions(types.SocketOptions{ReadTimeout: 2 * time.Second}).
		WithQueryOptions(types.QueryOptions{SerialConsistency: types.LocalSerial.Ptr()}).
		Build()
	require.NoError(t, err)

	snap := c.Configuration()
	assert.Equal(t, "DCAwareRoundRobinPolicy(localDc=dc2)", snap.LoadBalancingPolicy)
	assert.Equal(t, 2*time.Second, snap.Socket.ReadTimeout)
	assert.Equal(t, types.LocalSerial.Ptr(), snap.Query.SerialConsistency)
	assert.False(t, snap.Authenticated)
	assert.Equal(t, "metrics", c.(*Cluster).config.Keyspace)
}

func TestListenerFanOut(t *testing.T) {
	built, err := NewDriver().NewBuilder().AddContactPoint("192.168.1.10").Build()
	require.NoError(t, err)
	c := built.(*Cluster)

	l := &countingListener{}
	c.Register(l)
	c.notify(hostAdded, fixedHost("192.168.1.10:9042"))
	c.notify(hostRemoved, fixedHost("192.168.1.10:9042"))
	c.Unregister(l)
	c.notify(hostAdded, fixedHost("192.168.1.11:9042"))

	assert.Equal(t, 1, l.adds)
	assert.Equal(t, 1, l.removes)
}

func TestRegisterReplaysKnownHosts(t *testing.T) {
	built, err := NewDriver().NewBuilder().AddContactPoint("192.168.1.10").Build()
	require.NoError(t, err)
	c := built.(*Cluster)

	c.notify(hostAdded, fixedHost("192.168.1.10:9042"))
	c.notify(hostUp, fixedHost("192.168.1.10:9042"))
	c.notify(hostAdded, fixedHost("192.168.1.11:9042"))
	c.notify(hostRemoved, fixedHost("192.168.1.11:9042"))

	l := &countingListener{}
	c.Register(l)

	assert.Equal(t, 1, l.adds)
	assert.Zero(t, l.removes)
}

func TestSerialConsistencyConversion(t *testing.T) {
	assert.Equal(t, gocql.LocalSerial, ToGocqlSerialConsistency(cql.LocalSerial))
	assert.Equal(t, cql.Serial, FromGocqlSerialConsistency(gocql.Serial))
	assert.Equal(t, gocql.Quorum, ToGocqlConsistency(cql.Quorum))
}
