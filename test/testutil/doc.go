// Package testutil provides fakes and integration helpers for tether tests.
//
// # Fakes
//
//   - [FakeDriver], [FakeBuilder], [FakeCluster], [FakeSession]: an in-memory
//     driver recording every builder setting, connect, listener registration
//     and close
//   - [FakeConfigurator]: a mutable configurator with a test-controlled ready signal
//   - [FakeHost]: a host with settable liveness
//   - [FakeReporter]: a reporter recording Start and Stop
//
// # Usage
//
//	driver := testutil.NewFakeDriver()
//	conf := testutil.NewFakeConfigurator("10.0.0.1", "10.0.0.2")
//	session, _ := tether.NewSession(driver, conf)
//	conf.TriggerReady(nil)
//
//	cluster := driver.LastCluster()
//	cluster.HostUp(testutil.NewFakeHost("10.0.0.1:9042", "dc1"))
//
// # Integration Helpers
//
//   - StartEmbeddedNATS: Starts an embedded NATS server for reporter tests
//   - StartCQLNode: Starts a ScyllaDB or Cassandra test container (requires Docker)
package testutil
