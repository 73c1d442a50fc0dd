package logging

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	level string
	msg   string
	kv    []any
}

type recorder struct {
	mu      sync.Mutex
	entries []entry
}

func (r *recorder) add(level, msg string, kv []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{level: level, msg: msg, kv: kv})
}

func (r *recorder) Debug(msg string, kv ...any) { r.add("debug", msg, kv) }
func (r *recorder) Info(msg string, kv ...any)  { r.add("info", msg, kv) }
func (r *recorder) Warn(msg string, kv ...any)  { r.add("warn", msg, kv) }
func (r *recorder) Error(msg string, kv ...any) { r.add("error", msg, kv) }
func (r *recorder) Fatal(msg string, kv ...any) { r.add("fatal", msg, kv) }

func TestOrNop(t *testing.T) {
	assert.IsType(t, &NopLogger{}, OrNop(nil))

	rec := &recorder{}
	assert.Same(t, rec, OrNop(rec))
}

func TestWith_PrependsFields(t *testing.T) {
	rec := &recorder{}
	log := With(rec, "loop", "api")

	log.Debug("d")
	log.Info("i", "k", 1)
	log.Warn("w")
	log.Error("e", "error", "boom")
	log.Fatal("f")

	require.Len(t, rec.entries, 5)
	assert.Equal(t, []any{"loop", "api"}, rec.entries[0].kv)
	assert.Equal(t, []any{"loop", "api", "k", 1}, rec.entries[1].kv)
	assert.Equal(t, "warn", rec.entries[2].level)
	assert.Equal(t, []any{"loop", "api", "error", "boom"}, rec.entries[3].kv)
	assert.Equal(t, "fatal", rec.entries[4].level)
}

func TestWith_Nested(t *testing.T) {
	rec := &recorder{}
	outer := With(rec, "session", "s1")
	inner := With(outer, "cluster", "prod")

	inner.Info("connected")
	outer.Info("plain")

	require.Len(t, rec.entries, 2)
	assert.Equal(t, []any{"session", "s1", "cluster", "prod"}, rec.entries[0].kv)
	assert.Equal(t, []any{"session", "s1"}, rec.entries[1].kv)
}

func TestWith_Passthrough(t *testing.T) {
	assert.IsType(t, &NopLogger{}, With(nil, "k", "v"))
	assert.IsType(t, &NopLogger{}, With(NewNopLogger(), "k", "v"))

	rec := &recorder{}
	assert.Same(t, rec, With(rec))
}
