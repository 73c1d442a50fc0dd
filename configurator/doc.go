// Package configurator provides tether.Configurator implementations.
//
// Static holds fixed settings. It can be built directly (New), from the
// environment (FromEnv) or from a YAML file with environment overrides
// (FromFile). Watcher reloads a file on change so a session can be
// re-initialized with the new settings.
//
// # Environment
//
// The variables CASSANDRA_SEEDS (pipe-delimited), CASSANDRA_LOCAL_DC,
// CASSANDRA_USERNAME and CASSANDRA_PASSWORD fill settings the file left
// unset. A file value always wins.
package configurator
