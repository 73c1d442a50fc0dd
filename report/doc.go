// Package report publishes session gauge snapshots to NATS JetStream.
//
// NATSReporter implements types.Reporter. The session starts it after each
// successful connect when the cluster's MetricsOptions.ReportingEnabled is
// set, and stops it on reconnect and Close.
//
// Snapshots are MessagePack maps (see Snapshot) stored in a key-value
// bucket under "{prefix}.{cluster}.{reporter id}". Use Read to decode the
// latest one, or a SnapshotWatcher to follow every reporter sharing the
// bucket.
package report
