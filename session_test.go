package tether_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/tether"
	"github.com/arloliu/tether/configurator"
	"github.com/arloliu/tether/test/testutil"
	"github.com/arloliu/tether/types"
)

// Compile-time assertions that the shipped configurators satisfy Configurator.
var (
	_ tether.Configurator = (*configurator.Static)(nil)
	_ tether.Configurator = (*testutil.FakeConfigurator)(nil)
)

func newTestSession(t *testing.T, seeds []string, opts ...tether.Option) (*tether.Session, *testutil.FakeDriver, *testutil.FakeConfigurator) {
	t.Helper()

	driver := testutil.NewFakeDriver()
	conf := testutil.NewFakeConfigurator(seeds...)
	s, err := tether.NewSession(driver, conf, opts...)
	require.NoError(t, err)

	return s, driver, conf
}

func TestNewSession_Validation(t *testing.T) {
	_, err := tether.NewSession(nil, testutil.NewFakeConfigurator("a"))
	require.ErrorIs(t, err, types.ErrNilDriver)

	_, err = tether.NewSession(testutil.NewFakeDriver(), nil)
	require.ErrorIs(t, err, types.ErrNilConfigurator)
}

func TestNewSession_RegistersReadyCallback(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1"})

	require.Equal(t, 1, conf.ReadyCallbacks())
	assert.False(t, s.IsReady())
	assert.Empty(t, driver.Builders())

	conf.TriggerReady(nil)

	require.NoError(t, s.WaitReady(t.Context()))
	assert.True(t, s.IsReady())
	assert.Len(t, driver.Clusters(), 1)
}

func TestReadySignal_AfterManualInitialize(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1"})
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Initialize(t.Context(), conf))
	first := s.Cluster()

	conf.TriggerReady(nil)

	require.NoError(t, s.WaitReady(t.Context()))
	assert.Len(t, driver.Clusters(), 1)
	assert.Same(t, first, s.Cluster())
	assert.False(t, driver.LastCluster().IsClosed())
}

func TestWaitReady_ConfiguratorError(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1"})
	setupErr := errors.New("configuration source unavailable")

	conf.TriggerReady(setupErr)

	require.ErrorIs(t, s.WaitReady(t.Context()), setupErr)
	assert.False(t, s.IsReady())
	assert.Empty(t, driver.Builders())
}

func TestWaitReady_ContextDone(t *testing.T) {
	s, _, _ := newTestSession(t, []string{"10.0.0.1"})

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, s.WaitReady(ctx), context.DeadlineExceeded)
}

func TestInitialize_AddsEveryContactPoint(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"})

	require.NoError(t, s.Initialize(t.Context(), conf))

	builders := driver.Builders()
	require.Len(t, builders, 1)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, builders[0].ContactPoints())
	assert.True(t, s.IsReady())
	assert.NotNil(t, s.Cluster())
	assert.NotNil(t, s.CQLSession())
}

func TestInitialize_AppliesOptions(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1"})
	conf.SetPolicy(testutil.FakePolicy("DCAwareRoundRobinPolicy(localDc=dc1)"))
	conf.SetPooling(&types.PoolingOptions{NumConns: 4})
	conf.SetSocket(&types.SocketOptions{ConnectTimeout: 3 * time.Second})
	conf.SetQuery(&types.QueryOptions{Consistency: types.LocalQuorum.Ptr(), PageSize: 100})
	conf.SetCredentials(&types.Credentials{Username: "app", Password: "secret"})

	require.NoError(t, s.Initialize(t.Context(), conf))

	b := driver.Builders()[0]
	assert.Equal(t, testutil.FakePolicy("DCAwareRoundRobinPolicy(localDc=dc1)"), b.Policy())
	user, pass := b.Credentials()
	assert.Equal(t, "app", user)
	assert.Equal(t, "secret", pass)

	cfg := s.Cluster().Configuration()
	assert.Equal(t, 4, cfg.Pooling.NumConns)
	assert.Equal(t, 3*time.Second, cfg.Socket.ConnectTimeout)
	assert.Equal(t, types.LocalQuorum.Ptr(), cfg.Query.Consistency)
	assert.Equal(t, 100, cfg.Query.PageSize)
	assert.True(t, cfg.Authenticated)
}

func TestInitialize_IncompleteCredentialsSkipped(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1"})
	conf.SetCredentials(&types.Credentials{Username: "app"})

	require.NoError(t, s.Initialize(t.Context(), conf))

	user, pass := driver.Builders()[0].Credentials()
	assert.Empty(t, user)
	assert.Empty(t, pass)
	assert.False(t, s.Cluster().Configuration().Authenticated)
}

func TestInitialize_EmptySeeds(t *testing.T) {
	s, driver, conf := newTestSession(t, nil)

	err := s.Initialize(t.Context(), conf)
	require.ErrorIs(t, err, types.ErrNoSeeds)
	require.ErrorIs(t, err, types.ErrInvalidConfig)

	assert.False(t, s.IsReady())
	assert.Empty(t, driver.Builders())
}

func TestInitialize_EmptySeedsAfterSuccessKeepsSession(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1"})
	require.NoError(t, s.Initialize(t.Context(), conf))
	before := s.Cluster()

	conf.SetSeeds()
	require.ErrorIs(t, s.Initialize(t.Context(), conf), types.ErrNoSeeds)

	assert.True(t, s.IsReady())
	assert.Same(t, before, s.Cluster())
	assert.Len(t, driver.Clusters(), 1)
	closed, _ := driver.Clusters()[0].CloseCalls()
	assert.False(t, closed)
}

func TestInitialize_BuildError(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1"})
	driver.SetBuildError(errors.New("bad policy"))

	err := s.Initialize(t.Context(), conf)

	var connErr *types.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "build", connErr.Stage)
	assert.False(t, s.IsReady())
}

func TestInitialize_ConnectError(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1", "10.0.0.2"})
	cause := errors.New("no hosts available")
	driver.SetConnectError(cause)

	err := s.Initialize(t.Context(), conf)

	var connErr *types.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "connect", connErr.Stage)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, connErr.Seeds)
	require.ErrorIs(t, err, cause)
	assert.False(t, s.IsReady())

	closed, forced := driver.LastCluster().CloseCalls()
	assert.True(t, closed)
	assert.True(t, forced)
}

func TestInitialize_ConnectErrorAfterSuccessKeepsSession(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1"})
	require.NoError(t, s.Initialize(t.Context(), conf))
	first := driver.LastCluster()

	driver.SetConnectError(errors.New("unreachable"))
	require.Error(t, s.Initialize(t.Context(), conf))

	assert.True(t, s.IsReady())
	assert.Same(t, first, s.Cluster())
}

func TestInitialize_Twice(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1"})

	require.NoError(t, s.Initialize(t.Context(), conf))
	conf.SetSeeds("10.0.0.2", "10.0.0.3")
	require.NoError(t, s.Initialize(t.Context(), conf))

	builders := driver.Builders()
	require.Len(t, builders, 2)
	assert.Equal(t, []string{"10.0.0.1"}, builders[0].ContactPoints())
	assert.Equal(t, []string{"10.0.0.2", "10.0.0.3"}, builders[1].ContactPoints())

	clusters := driver.Clusters()
	require.Len(t, clusters, 2)
	assert.Same(t, clusters[1], s.Cluster())

	// the observer moves from the old cluster to the new one
	reg, unreg := clusters[0].RegisterCalls()
	assert.Equal(t, 1, reg)
	assert.Equal(t, 1, unreg)
	assert.Empty(t, clusters[0].Listeners())
	assert.Len(t, clusters[1].Listeners(), 1)

	// the replaced cluster is closed gracefully
	closed, forced := clusters[0].CloseCalls()
	assert.True(t, closed)
	assert.False(t, forced)
	assert.True(t, s.IsReady())
}

func TestInitialize_AfterClose(t *testing.T) {
	s, _, conf := newTestSession(t, []string{"10.0.0.1"})
	require.NoError(t, s.Initialize(t.Context(), conf))
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.Initialize(t.Context(), conf), types.ErrSessionClosed)
}

func TestInitialize_NilConfigurator(t *testing.T) {
	s, _, _ := newTestSession(t, []string{"10.0.0.1"})
	require.ErrorIs(t, s.Initialize(t.Context(), nil), types.ErrNilConfigurator)
}

func TestInitialize_SwitchesConfigurator(t *testing.T) {
	s, _, conf := newTestSession(t, []string{"10.0.0.1"})
	other := testutil.NewFakeConfigurator("10.1.0.1")

	require.NoError(t, s.Initialize(t.Context(), conf))
	require.NoError(t, s.Initialize(t.Context(), other))

	assert.Same(t, other, s.Configurator())
}

func TestClose_NotInitialized(t *testing.T) {
	s, _, _ := newTestSession(t, []string{"10.0.0.1"})

	require.ErrorIs(t, s.Close(), types.ErrNotInitialized)
	assert.False(t, s.IsClosed())
}

func TestClose_Forces(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1"})
	require.NoError(t, s.Initialize(t.Context(), conf))

	require.NoError(t, s.Close())

	closed, forced := driver.LastCluster().CloseCalls()
	assert.True(t, closed)
	assert.True(t, forced)
	assert.True(t, s.IsClosed())
	assert.False(t, s.IsReady())
}

func TestClose_Twice(t *testing.T) {
	s, _, conf := newTestSession(t, []string{"10.0.0.1"})
	require.NoError(t, s.Initialize(t.Context(), conf))

	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Close(), types.ErrSessionClosed)
}

func TestCloseAsync_Graceful(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1"})
	require.NoError(t, s.Initialize(t.Context(), conf))

	f, err := s.CloseAsync(false)
	require.NoError(t, err)

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("close did not finish")
	}
	require.NoError(t, f.Err())

	closed, forced := driver.LastCluster().CloseCalls()
	assert.True(t, closed)
	assert.False(t, forced)
}

func TestSession_IDIsStable(t *testing.T) {
	a, _, _ := newTestSession(t, []string{"10.0.0.1"})
	b, _, _ := newTestSession(t, []string{"10.0.0.1"})

	assert.Equal(t, a.ID(), a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
