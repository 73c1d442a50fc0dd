// Package v2 provides an apache/cassandra-gocql-driver v2.x driver for the
// tether session.
//
// It mirrors package v1; only the import path and a few driver API
// differences change. Serial consistency uses gocql.Consistency in v2, and
// requests are bound to their context with IterContext.
//
// # Usage
//
//	import (
//	    "github.com/arloliu/tether"
//	    v2 "github.com/arloliu/tether/adapter/cql/v2"
//	)
//
//	session, err := tether.NewSession(v2.NewDriver(), configurator)
package v2
