// Package zap adapts a go.uber.org/zap logger to the tether Logger interface.
//
// Example:
//
//	logger, _ := zap.NewProduction()
//	session, _ := tether.NewSession(driver, conf,
//	    tether.WithLogger(zaplog.New(logger)),
//	)
package zap

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arloliu/tether/types"
)

// Logger implements types.Logger with a zap SugaredLogger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// Compile-time assertion that Logger implements types.Logger.
var _ types.Logger = (*Logger)(nil)

// New wraps logger. A nil logger yields a no-op logger.
func New(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Logger{sugar: logger.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

// NewConsole builds a console logger writing to stderr at level, with
// ISO8601 timestamps.
//
// Parameters:
//   - level: Adjustable minimum level
//
// Returns:
//   - *zap.Logger: The logger; wrap it with New to hand it to tether
func NewConsole(level zap.AtomicLevel) *zap.Logger {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(config), zapcore.AddSync(os.Stderr), level)

	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// Zap returns the wrapped logger without the caller skip.
func (l *Logger) Zap() *zap.Logger {
	return l.sugar.Desugar().WithOptions(zap.AddCallerSkip(-1))
}

// Debug implements types.Logger.
func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.sugar.Debugw(msg, keysAndValues...)
}

// Info implements types.Logger.
func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn implements types.Logger.
func (l *Logger) Warn(msg string, keysAndValues ...any) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error implements types.Logger.
func (l *Logger) Error(msg string, keysAndValues ...any) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Fatal implements types.Logger.
func (l *Logger) Fatal(msg string, keysAndValues ...any) {
	l.sugar.Fatalw(msg, keysAndValues...)
}
