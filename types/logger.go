package types

// Logger is the structured logger used throughout tether.
//
// Arguments after msg are alternating key/value pairs:
//
//	logger.Info("session initialized", "cluster", name, "seeds", len(seeds))
//
// A zap-backed implementation lives in contrib/logging/zap.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Fatal(msg string, keysAndValues ...any)
}
