package v2

import (
	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/arloliu/tether/adapter/cql"
)

// ToGocqlConsistency converts a tether Consistency to gocql.Consistency.
//
// Parameters:
//   - c: Tether consistency level
//
// Returns:
//   - gocql.Consistency: The equivalent gocql consistency level
func ToGocqlConsistency(c cql.Consistency) gocql.Consistency {
	return gocql.Consistency(c)
}

// FromGocqlConsistency converts a gocql.Consistency to tether Consistency.
func FromGocqlConsistency(c gocql.Consistency) cql.Consistency {
	return cql.Consistency(c)
}

// ToGocqlSerialConsistency converts a tether Consistency to the serial
// consistency value used by gocql v2.
//
// In v2 serial consistency shares the gocql.Consistency type.
//
// Parameters:
//   - c: Tether consistency level (should be Serial or LocalSerial)
//
// Returns:
//   - gocql.Consistency: The equivalent gocql consistency level
func ToGocqlSerialConsistency(c cql.Consistency) gocql.Consistency {
	return gocql.Consistency(c)
}

// FromGocqlSerialConsistency converts a gocql v2 serial consistency to tether Consistency.
func FromGocqlSerialConsistency(c gocql.Consistency) cql.Consistency {
	return cql.Consistency(c)
}

// UnwrapSession returns the underlying gocql.Session from a v2 Session adapter.
//
// Example:
//
//	gocqlSession := v2.UnwrapSession(cqlSession.(*v2.Session))
//	keyspaceMeta, _ := gocqlSession.KeyspaceMetadata("my_keyspace")
func UnwrapSession(s *Session) *gocql.Session {
	return s.session
}
