package v1

import (
	"fmt"

	"github.com/arloliu/tether/adapter/cql"
	"github.com/arloliu/tether/types"
	"github.com/gocql/gocql"
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

// ToGocqlSerialConsistency converts a tether Consistency to gocql.SerialConsistency.
//
// Parameters:
//   - c: Tether consistency level (should be Serial or LocalSerial)
//
// Returns:
//   - gocql.SerialConsistency: The equivalent gocql serial consistency level
func ToGocqlSerialConsistency(c cql.Consistency) gocql.SerialConsistency {
	return gocql.SerialConsistency(c)
}

// FromGocqlSerialConsistency converts a gocql.SerialConsistency to tether Consistency.
func FromGocqlSerialConsistency(c gocql.SerialConsistency) cql.Consistency {
	return cql.Consistency(c)
}

// UnwrapSession returns the underlying gocql.Session from a v1 Session adapter.
//
// Example:
//
//	gocqlSession := v1.UnwrapSession(cqlSession.(*v1.Session))
//	keyspaceMeta, _ := gocqlSession.KeyspaceMetadata("my_keyspace")
func UnwrapSession(s *Session) *gocql.Session {
	return s.session
}

// stdLogger adapts types.Logger to gocql.StdLogger.
type stdLogger struct {
	logger types.Logger
}

func (l stdLogger) Print(v ...any) {
	l.logger.Debug(fmt.Sprint(v...), "driver", "gocql")
}

func (l stdLogger) Printf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), "driver", "gocql")
}

func (l stdLogger) Println(v ...any) {
	l.logger.Debug(fmt.Sprintln(v...), "driver", "gocql")
}
