// Package types provides shared types and errors for the tether library.
//
// This is a "leaf" package with no imports from other tether packages,
// allowing it to be imported by any package without causing import cycles.
package types

import (
	"errors"
	"fmt"
)

// Consistency represents the Cassandra consistency level.
type Consistency uint16

// Common consistency levels matching gocql.
const (
	Any         Consistency = 0x00
	One         Consistency = 0x01
	Two         Consistency = 0x02
	Three       Consistency = 0x03
	Quorum      Consistency = 0x04
	All         Consistency = 0x05
	LocalQuorum Consistency = 0x06
	EachQuorum  Consistency = 0x07
	Serial      Consistency = 0x08
	LocalSerial Consistency = 0x09
	LocalOne    Consistency = 0x0A
)

var consistencyNames = map[Consistency]string{
	Any:         "ANY",
	One:         "ONE",
	Two:         "TWO",
	Three:       "THREE",
	Quorum:      "QUORUM",
	All:         "ALL",
	LocalQuorum: "LOCAL_QUORUM",
	EachQuorum:  "EACH_QUORUM",
	Serial:      "SERIAL",
	LocalSerial: "LOCAL_SERIAL",
	LocalOne:    "LOCAL_ONE",
}

// String returns the CQL name of the consistency level.
func (c Consistency) String() string {
	if name, ok := consistencyNames[c]; ok {
		return name
	}

	return fmt.Sprintf("UNKNOWN_CONSISTENCY_0x%x", uint16(c))
}

// Ptr returns a pointer to a copy of c, for optional settings.
//
// Example:
//
//	opts := types.QueryOptions{Consistency: types.LocalQuorum.Ptr()}
func (c Consistency) Ptr() *Consistency {
	return &c
}

// MarshalText implements encoding.TextMarshaler.
func (c Consistency) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
//
// Accepts the CQL names ("LOCAL_QUORUM", "ONE", ...), case-sensitive.
func (c *Consistency) UnmarshalText(text []byte) error {
	for level, name := range consistencyNames {
		if name == string(text) {
			*c = level
			return nil
		}
	}

	return fmt.Errorf("%w: unknown consistency %q", ErrInvalidConfig, string(text))
}

// Statement is an executable CQL statement.
//
// Implementations must be safe to read concurrently; the session never
// mutates a statement handed to it.
type Statement interface {
	// CQL returns the statement text with ? placeholders.
	CQL() string

	// Args returns the values bound to the placeholders.
	Args() []any
}

// SimpleStatement is a plain query string with positional values.
type SimpleStatement struct {
	Query  string
	Values []any
}

// NewStatement creates a SimpleStatement.
//
// Parameters:
//   - query: CQL statement with ? placeholders
//   - values: Values to bind to placeholders
//
// Returns:
//   - *SimpleStatement: The statement
func NewStatement(query string, values ...any) *SimpleStatement {
	return &SimpleStatement{Query: query, Values: values}
}

// CQL implements Statement.
func (s *SimpleStatement) CQL() string { return s.Query }

// Args implements Statement.
func (s *SimpleStatement) Args() []any { return s.Values }

// PreparedStatement is a statement registered with the cluster for reuse.
type PreparedStatement struct {
	// Query is the prepared CQL text.
	Query string

	// Keyspace is the keyspace the statement was prepared in, if known.
	Keyspace string
}

// CQL implements Statement.
func (p *PreparedStatement) CQL() string { return p.Query }

// Args implements Statement. A prepared statement carries no values.
func (p *PreparedStatement) Args() []any { return nil }

// Bind binds values to the prepared statement.
//
// Parameters:
//   - values: Values to bind to placeholders, in order
//
// Returns:
//   - *BoundStatement: A statement ready for execution
func (p *PreparedStatement) Bind(values ...any) *BoundStatement {
	return &BoundStatement{Prepared: p, Values: values}
}

// BoundStatement is a prepared statement with bound values.
type BoundStatement struct {
	Prepared *PreparedStatement
	Values   []any
}

// CQL implements Statement.
func (b *BoundStatement) CQL() string { return b.Prepared.Query }

// Args implements Statement.
func (b *BoundStatement) Args() []any { return b.Values }

// ColumnInfo describes one column of a result set.
type ColumnInfo struct {
	Keyspace string
	Table    string
	Name     string
	Type     string
}

// ResultSet holds the rows returned by a statement.
//
// All pages are fetched eagerly by the driver adapter.
type ResultSet struct {
	Columns  []ColumnInfo
	Rows     []map[string]any
	Warnings []string
}

// Len returns the number of rows.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}

	return len(r.Rows)
}

// One returns the first row, or nil if the result set is empty.
func (r *ResultSet) One() map[string]any {
	if r.Len() == 0 {
		return nil
	}

	return r.Rows[0]
}

// KeyspaceMetadata describes a keyspace as seen by the driver.
type KeyspaceMetadata struct {
	Name            string
	DurableWrites   bool
	StrategyClass   string
	StrategyOptions map[string]any
	Tables          []string
}

// Host is a cluster node as reported by the driver.
type Host interface {
	// Key returns the identity used for topology bookkeeping (the node address).
	Key() string

	// DataCenter returns the datacenter the node belongs to.
	DataCenter() string

	// IsUp reports the driver's current view of the node.
	IsUp() bool

	// String returns the human-readable node address.
	String() string
}

// Sentinel errors for common failure scenarios.
var (
	// ErrInvalidConfig indicates the configurator supplied unusable settings.
	ErrInvalidConfig = errors.New("tether: invalid configuration")

	// ErrNoSeeds indicates initialization was attempted with an empty seed list.
	ErrNoSeeds = fmt.Errorf("%w: seed list is empty", ErrInvalidConfig)

	// ErrNotReady indicates an operation was issued before the session was
	// initialized, or after the underlying driver session was closed.
	ErrNotReady = errors.New("tether: session is not ready")

	// ErrNotInitialized indicates Close was called on a session that never
	// completed initialization.
	ErrNotInitialized = errors.New("tether: session was never initialized")

	// ErrSessionClosed indicates Close was called more than once.
	ErrSessionClosed = errors.New("tether: session is closed")

	// ErrNilDriver indicates that a nil driver was provided.
	ErrNilDriver = errors.New("tether: driver cannot be nil")

	// ErrNilConfigurator indicates that a nil configurator was provided.
	ErrNilConfigurator = errors.New("tether: configurator cannot be nil")

	// ErrNilCallback indicates an asynchronous operation was issued without a callback.
	ErrNilCallback = errors.New("tether: callback cannot be nil")

	// ErrNilStatement indicates an operation was issued without a statement.
	ErrNilStatement = errors.New("tether: statement cannot be nil")
)

// ConnectionError wraps a failure to build or connect a cluster handle.
type ConnectionError struct {
	// Stage is "build" or "connect".
	Stage string

	// Seeds are the contact points that were used.
	Seeds []string

	// Cause is the underlying driver error.
	Cause error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("tether: cluster %s failed (seeds=%v): %v", e.Stage, e.Seeds, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// OperationError wraps a driver failure for an individual statement.
type OperationError struct {
	// Operation is "execute" or "prepare".
	Operation string

	// Statement is the CQL text of the failed statement.
	Statement string

	// Cause is the underlying driver error.
	Cause error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	return "tether: " + e.Operation + " failed: " + e.Cause.Error()
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *OperationError) Unwrap() error {
	return e.Cause
}
