package integration_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tether"
	"github.com/arloliu/tether/adapter/cql"
	v1 "github.com/arloliu/tether/adapter/cql/v1"
	v2 "github.com/arloliu/tether/adapter/cql/v2"
	"github.com/arloliu/tether/configurator"
	"github.com/arloliu/tether/test/testutil"
	"github.com/arloliu/tether/types"
)

// localDC is the datacenter name of the stock Cassandra and ScyllaDB images.
const localDC = "datacenter1"

// driverCase builds a driver and its matching configurator options.
type driverCase struct {
	name   string
	driver func(keyspace string) cql.Driver
	opts   []configurator.Option
}

var driverCases = []driverCase{
	{
		name:   "v1",
		driver: func(keyspace string) cql.Driver { return v1.NewDriver(v1.WithKeyspace(keyspace)) },
	},
	{
		name:   "v2",
		driver: func(keyspace string) cql.Driver { return v2.NewDriver(v2.WithKeyspace(keyspace)) },
		opts: []configurator.Option{configurator.WithPolicyFactory(func(dc string) types.LoadBalancingPolicy {
			return v2.DCAwareRoundRobin(dc)
		})},
	},
}

// startNode starts the shared node. It skips under -short or with
// SKIP_INTEGRATION_TESTS=1.
func startNode(t *testing.T) *testutil.CQLNode {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv("SKIP_INTEGRATION_TESTS") == "1" {
		t.Skip("skipping integration tests (SKIP_INTEGRATION_TESTS=1)")
	}

	c, err := testutil.StartCQLNode(t.Context(), t, nil)
	require.NoError(t, err)
	t.Logf("using %s at %s", c.Type, c.Host)

	return c
}

// newConfigurator returns a configurator pointing at the node.
func newConfigurator(c *testutil.CQLNode, dc driverCase) *configurator.Static {
	return configurator.New(configurator.Config{
		Seeds:   []string{c.Host},
		LocalDC: localDC,
		Query: &types.QueryOptions{
			Consistency: types.One.Ptr(),
		},
		Socket: &types.SocketOptions{
			ConnectTimeout: 30 * time.Second,
			ReadTimeout:    30 * time.Second,
		},
	}, dc.opts...)
}

// openSession creates a session and waits until it is connected.
func openSession(t *testing.T, c *testutil.CQLNode, dc driverCase, opts ...tether.Option) *tether.Session {
	t.Helper()

	s, err := tether.NewSession(dc.driver(c.Keyspace), newConfigurator(c, dc), opts...)
	require.NoError(t, err)
	require.NoError(t, s.WaitReady(t.Context()))

	t.Cleanup(func() {
		if f, err := s.CloseAsync(true); err == nil {
			<-f.Done()
		}
	})

	return s
}

// createTable creates a table with a unique name and drops it on cleanup.
func createTable(t *testing.T, s *tether.Session, suffix string) string {
	t.Helper()

	table := fmt.Sprintf("test_%s_%d", suffix, time.Now().UnixNano())
	_, err := s.ExecuteQuery(t.Context(), fmt.Sprintf(usersTableSchema, table))
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = s.ExecuteQuery(context.Background(), "DROP TABLE IF EXISTS "+table)
	})

	return table
}

const usersTableSchema = `
	CREATE TABLE IF NOT EXISTS %s (
		id UUID PRIMARY KEY,
		name TEXT,
		email TEXT
	)
`
