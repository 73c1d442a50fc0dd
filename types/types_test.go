package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionError(t *testing.T) {
	cause := errors.New("no hosts available")
	err := &ConnectionError{
		Stage: "connect",
		Seeds: []string{"10.0.0.1", "10.0.0.2"},
		Cause: cause,
	}

	assert.Contains(t, err.Error(), "cluster connect failed")
	assert.Contains(t, err.Error(), "10.0.0.1")
	assert.Contains(t, err.Error(), "no hosts available")
	assert.True(t, errors.Is(err, cause))
}

func TestOperationError(t *testing.T) {
	cause := errors.New("read timeout")
	err := &OperationError{
		Operation: "execute",
		Statement: "SELECT now() FROM system.local",
		Cause:     cause,
	}

	assert.Contains(t, err.Error(), "execute failed")
	assert.Contains(t, err.Error(), "read timeout")
	assert.True(t, errors.Is(err, cause))

	var opErr *OperationError
	require.True(t, errors.As(error(err), &opErr))
	assert.Equal(t, "execute", opErr.Operation)
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrInvalidConfig", ErrInvalidConfig, "tether: invalid configuration"},
		{"ErrNoSeeds", ErrNoSeeds, "tether: invalid configuration: seed list is empty"},
		{"ErrNotReady", ErrNotReady, "tether: session is not ready"},
		{"ErrNotInitialized", ErrNotInitialized, "tether: session was never initialized"},
		{"ErrSessionClosed", ErrSessionClosed, "tether: session is closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}

	require.ErrorIs(t, ErrNoSeeds, ErrInvalidConfig)
}

func TestConsistencyText(t *testing.T) {
	text, err := LocalQuorum.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "LOCAL_QUORUM", string(text))

	var c Consistency
	require.NoError(t, c.UnmarshalText([]byte("EACH_QUORUM")))
	assert.Equal(t, EachQuorum, c)

	err = c.UnmarshalText([]byte("MOSTLY"))
	require.ErrorIs(t, err, ErrInvalidConfig)

	assert.Equal(t, "UNKNOWN_CONSISTENCY_0xff", Consistency(0xff).String())
}

func TestStatements(t *testing.T) {
	stmt := NewStatement("INSERT INTO kv (k, v) VALUES (?, ?)", "a", 1)
	assert.Equal(t, "INSERT INTO kv (k, v) VALUES (?, ?)", stmt.CQL())
	assert.Equal(t, []any{"a", 1}, stmt.Args())

	prepared := &PreparedStatement{Query: "SELECT v FROM kv WHERE k = ?", Keyspace: "app"}
	assert.Nil(t, prepared.Args())

	bound := prepared.Bind("a")
	assert.Equal(t, prepared.Query, bound.CQL())
	assert.Equal(t, []any{"a"}, bound.Args())
}

func TestResultSet(t *testing.T) {
	var empty *ResultSet
	assert.Equal(t, 0, empty.Len())
	assert.Nil(t, empty.One())

	rs := &ResultSet{Rows: []map[string]any{{"k": "a"}, {"k": "b"}}}
	assert.Equal(t, 2, rs.Len())
	assert.Equal(t, "a", rs.One()["k"])
}

func TestCredentialsComplete(t *testing.T) {
	var nilCreds *Credentials
	assert.False(t, nilCreds.Complete())
	assert.False(t, (&Credentials{Username: "u"}).Complete())
	assert.True(t, (&Credentials{Username: "u", Password: "p"}).Complete())
}
