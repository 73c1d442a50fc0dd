// Package integration_test runs tether sessions against a real CQL node.
//
// # Running Integration Tests
//
// Integration tests are skipped by default when using -short flag:
//
//	go test -short ./...           # Skips integration tests
//	go test ./test/integration/... # Runs integration tests
//
// They require Docker; testcontainers starts one CQL node shared by
// the v1 and v2 driver subtests. TETHER_TEST_BACKEND=scylladb prefers
// ScyllaDB over Cassandra. Set SKIP_INTEGRATION_TESTS=1 to skip them
// on machines without Docker.
package integration_test
