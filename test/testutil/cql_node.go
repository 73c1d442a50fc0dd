package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/cassandra"
	"github.com/testcontainers/testcontainers-go/modules/scylladb"
)

// CQLNodeType identifies the database behind a CQLNode.
type CQLNodeType string

const (
	CQLNodeCassandra CQLNodeType = "cassandra"
	CQLNodeScyllaDB  CQLNodeType = "scylladb"
)

// EnvTestBackend selects the preferred backend ("scylladb" or "cassandra").
const EnvTestBackend = "TETHER_TEST_BACKEND"

// CQLNode is a single-node CQL database running in a container.
type CQLNode struct {
	Type     CQLNodeType
	Host     string
	Keyspace string
}

// CQLNodeOptions configures StartCQLNode.
type CQLNodeOptions struct {
	// PreferScyllaDB tries ScyllaDB first and falls back to Cassandra.
	// Defaults to true when TETHER_TEST_BACKEND=scylladb.
	PreferScyllaDB bool

	// Keyspace is created with SimpleStrategy and RF 1. Defaults to "tether_test".
	Keyspace string

	// CassandraImage defaults to "cassandra:4.1".
	CassandraImage string

	// ScyllaDBImage defaults to "scylladb/scylla:6.2".
	ScyllaDBImage string

	// ScyllaDBMemory defaults to "512M".
	ScyllaDBMemory string

	// ScyllaDBSMP defaults to 1.
	ScyllaDBSMP int
}

// DefaultCQLNodeOptions returns the default options.
func DefaultCQLNodeOptions() CQLNodeOptions {
	return CQLNodeOptions{
		PreferScyllaDB: os.Getenv(EnvTestBackend) == string(CQLNodeScyllaDB),
		Keyspace:       "tether_test",
		CassandraImage: "cassandra:4.1",
		ScyllaDBImage:  "scylladb/scylla:6.2",
		ScyllaDBMemory: "512M",
		ScyllaDBSMP:    1,
	}
}

// StartCQLNode starts a database container and creates the test keyspace.
//
// The container is terminated when the test completes. Host is suitable as
// a seed for a tether configurator.
//
// Parameters:
//   - ctx: Context for container operations
//   - t: Testing context for cleanup registration
//   - opts: Optional configuration (nil uses defaults)
//
// Returns:
//   - *CQLNode: Node with connection details
//   - error: Error if no backend could be started
func StartCQLNode(ctx context.Context, t *testing.T, opts *CQLNodeOptions) (*CQLNode, error) {
	t.Helper()

	if opts == nil {
		defaultOpts := DefaultCQLNodeOptions()
		opts = &defaultOpts
	}

	if opts.PreferScyllaDB {
		node, err := startScyllaDB(ctx, t, opts)
		if err == nil {
			return node, nil
		}
		// ScyllaDB needs Linux AIO headroom; Cassandra does not.
		t.Logf("ScyllaDB unavailable, falling back to Cassandra: %v", err)
	}

	return startCassandra(ctx, t, opts)
}

func startScyllaDB(ctx context.Context, t *testing.T, opts *CQLNodeOptions) (*CQLNode, error) {
	t.Helper()

	container, err := scylladb.Run(ctx, opts.ScyllaDBImage,
		scylladb.WithCustomCommands(
			fmt.Sprintf("--memory=%s", opts.ScyllaDBMemory),
			fmt.Sprintf("--smp=%d", opts.ScyllaDBSMP),
			"--developer-mode=1",
			"--overprovisioned=1",
			"--reactor-backend=epoll",
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start ScyllaDB container: %w", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate ScyllaDB container: %v", err)
		}
	})

	host, err := container.NonShardAwareConnectionHost(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection host: %w", err)
	}

	if err := createKeyspace(t, host, opts.Keyspace, 30*time.Second); err != nil {
		return nil, err
	}

	return &CQLNode{Type: CQLNodeScyllaDB, Host: host, Keyspace: opts.Keyspace}, nil
}

func startCassandra(ctx context.Context, t *testing.T, opts *CQLNodeOptions) (*CQLNode, error) {
	t.Helper()

	container, err := cassandra.Run(ctx, opts.CassandraImage,
		testcontainers.WithEnv(map[string]string{
			"HEAP_NEWSIZE":     "128M",
			"MAX_HEAP_SIZE":    "512M",
			"CASSANDRA_SNITCH": "SimpleSnitch",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start Cassandra container: %w", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate Cassandra container: %v", err)
		}
	})

	host, err := container.ConnectionHost(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection host: %w", err)
	}

	if err := createKeyspace(t, host, opts.Keyspace, 60*time.Second); err != nil {
		return nil, err
	}

	return &CQLNode{Type: CQLNodeCassandra, Host: host, Keyspace: opts.Keyspace}, nil
}

// createKeyspace waits for the node to accept connections, then creates keyspace.
func createKeyspace(t *testing.T, host, keyspace string, timeout time.Duration) error {
	t.Helper()

	cluster := gocql.NewCluster(host)
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = timeout
	cluster.ConnectTimeout = timeout
	cluster.Keyspace = "system"

	var (
		session *gocql.Session
		err     error
	)
	for i := 0; i < 10; i++ {
		session, err = cluster.CreateSession()
		if err == nil {
			break
		}
		t.Logf("waiting for node to be ready (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("failed to create session after retries: %w", err)
	}
	defer session.Close()

	stmt := fmt.Sprintf(`
		CREATE KEYSPACE IF NOT EXISTS %s
		WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}
	`, keyspace)
	if err := session.Query(stmt).Exec(); err != nil {
		return fmt.Errorf("failed to create keyspace: %w", err)
	}

	return nil
}
