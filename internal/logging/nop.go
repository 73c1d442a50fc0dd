// Package logging holds the logger plumbing shared by tether packages.
package logging

import "github.com/arloliu/tether/types"

// NopLogger discards everything. It is the default wherever no logger is
// configured.
type NopLogger struct{}

// Compile-time assertion that NopLogger implements types.Logger.
var _ types.Logger = (*NopLogger)(nil)

// NewNopLogger returns a NopLogger.
func NewNopLogger() *NopLogger {
	return &NopLogger{}
}

func (l *NopLogger) Debug(_ string, _ ...any) {}
func (l *NopLogger) Info(_ string, _ ...any)  {}
func (l *NopLogger) Warn(_ string, _ ...any)  {}
func (l *NopLogger) Error(_ string, _ ...any) {}

// Fatal discards the message. It does not exit the process.
func (l *NopLogger) Fatal(_ string, _ ...any) {}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l types.Logger) types.Logger {
	if l == nil {
		return NewNopLogger()
	}

	return l
}

// fieldLogger prepends fixed key/value pairs to every entry.
type fieldLogger struct {
	base   types.Logger
	fields []any
}

// With returns a logger that adds keysAndValues to every entry written
// through it. A nil l yields a NopLogger; With on a NopLogger stays a
// NopLogger.
//
// Example:
//
//	log := logging.With(logger, "loop", "api")
//	log.Warn("task panicked", "panic", r) // loop=api panic=...
func With(l types.Logger, keysAndValues ...any) types.Logger {
	l = OrNop(l)
	if _, ok := l.(*NopLogger); ok || len(keysAndValues) == 0 {
		return l
	}

	if fl, ok := l.(*fieldLogger); ok {
		fields := make([]any, 0, len(fl.fields)+len(keysAndValues))
		fields = append(fields, fl.fields...)
		fields = append(fields, keysAndValues...)

		return &fieldLogger{base: fl.base, fields: fields}
	}

	return &fieldLogger{base: l, fields: keysAndValues}
}

func (l *fieldLogger) merge(kv []any) []any {
	out := make([]any, 0, len(l.fields)+len(kv))
	out = append(out, l.fields...)

	return append(out, kv...)
}

func (l *fieldLogger) Debug(msg string, kv ...any) { l.base.Debug(msg, l.merge(kv)...) }
func (l *fieldLogger) Info(msg string, kv ...any)  { l.base.Info(msg, l.merge(kv)...) }
func (l *fieldLogger) Warn(msg string, kv ...any)  { l.base.Warn(msg, l.merge(kv)...) }
func (l *fieldLogger) Error(msg string, kv ...any) { l.base.Error(msg, l.merge(kv)...) }
func (l *fieldLogger) Fatal(msg string, kv ...any) { l.base.Fatal(msg, l.merge(kv)...) }
