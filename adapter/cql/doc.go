// Package cql defines the driver boundary for tether.
//
// The session never talks to a Cassandra driver directly. It asks a Driver
// for a Builder, feeds it the configurator's settings, builds a Cluster,
// connects a Session and subscribes HostStateListeners. Everything the
// session needs from the driver is expressed by the interfaces here.
//
// # Adapters
//
// Driver-specific adapters are provided in subpackages:
//
//   - [github.com/arloliu/tether/adapter/cql/v1]: Adapter for gocql v1.x
//   - [github.com/arloliu/tether/adapter/cql/v2]: Adapter for apache/cassandra-gocql-driver v2.x
//
// # Usage
//
//	import (
//	    "github.com/arloliu/tether"
//	    v1 "github.com/arloliu/tether/adapter/cql/v1"
//	)
//
//	session, err := tether.NewSession(v1.NewDriver(), configurator)
package cql
