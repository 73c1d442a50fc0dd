package report

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"

	"github.com/arloliu/tether/metrics"
)

// Snapshot is one published reading of every session gauge.
//
// It is encoded as a MessagePack map:
//
//	{"reporter": <uuid string>, "cluster": <string>, "timestamp": <unix nanos>,
//	 "gauges": {<name>: <value>, ...}}
type Snapshot struct {
	Reporter  string
	Cluster   string
	Timestamp int64
	Gauges    []metrics.Sample
}

// Value returns the gauge value recorded under name.
func (s *Snapshot) Value(name string) (any, bool) {
	for _, g := range s.Gauges {
		if g.Name == name {
			return g.Value, true
		}
	}

	return nil, false
}

// MarshalMsg appends the MessagePack encoding of s to b.
//
// Gauge values are encoded with msgp.AppendIntf, so they must be MessagePack
// primitives (bool, numbers, strings, byte slices, maps and slices thereof).
//
// Returns:
//   - []byte: The extended buffer
//   - error: Encoding error if a gauge value is not supported
func (s *Snapshot) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendMapHeader(b, 4)
	b = msgp.AppendString(b, "reporter")
	b = msgp.AppendString(b, s.Reporter)
	b = msgp.AppendString(b, "cluster")
	b = msgp.AppendString(b, s.Cluster)
	b = msgp.AppendString(b, "timestamp")
	b = msgp.AppendInt64(b, s.Timestamp)
	b = msgp.AppendString(b, "gauges")

	//nolint:gosec // gauge count is tiny
	b = msgp.AppendMapHeader(b, uint32(len(s.Gauges)))
	for _, g := range s.Gauges {
		b = msgp.AppendString(b, g.Name)
		var err error
		b, err = msgp.AppendIntf(b, g.Value)
		if err != nil {
			return nil, fmt.Errorf("tether: failed to encode gauge %s: %w", g.Name, err)
		}
	}

	return b, nil
}

// UnmarshalMsg decodes s from b and returns the remaining bytes.
// Unknown fields are skipped.
func (s *Snapshot) UnmarshalMsg(b []byte) ([]byte, error) {
	fields, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, fmt.Errorf("tether: failed to read snapshot header: %w", err)
	}

	for i := uint32(0); i < fields; i++ {
		var key string
		key, b, err = msgp.ReadStringBytes(b)
		if err != nil {
			return nil, fmt.Errorf("tether: failed to read snapshot field: %w", err)
		}

		switch key {
		case "reporter":
			s.Reporter, b, err = msgp.ReadStringBytes(b)
		case "cluster":
			s.Cluster, b, err = msgp.ReadStringBytes(b)
		case "timestamp":
			s.Timestamp, b, err = msgp.ReadInt64Bytes(b)
		case "gauges":
			b, err = s.unmarshalGauges(b)
		default:
			b, err = msgp.Skip(b)
		}
		if err != nil {
			return nil, fmt.Errorf("tether: failed to decode snapshot field %s: %w", key, err)
		}
	}

	return b, nil
}

func (s *Snapshot) unmarshalGauges(b []byte) ([]byte, error) {
	n, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return nil, err
	}

	s.Gauges = make([]metrics.Sample, 0, n)
	for i := uint32(0); i < n; i++ {
		var g metrics.Sample
		g.Name, b, err = msgp.ReadStringBytes(b)
		if err != nil {
			return nil, err
		}
		g.Value, b, err = msgp.ReadIntfBytes(b)
		if err != nil {
			return nil, err
		}
		s.Gauges = append(s.Gauges, g)
	}

	return b, nil
}
