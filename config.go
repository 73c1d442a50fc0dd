package tether

import (
	"time"

	"github.com/arloliu/tether/future"
	"github.com/arloliu/tether/internal/logging"
	"github.com/arloliu/tether/internal/metrics"
	"github.com/arloliu/tether/types"
)

const (
	// DefaultCompletionWorkers is the size of the dedicated completion pool.
	DefaultCompletionWorkers = 2

	// DefaultCompletionQueue is the completion pool's buffered capacity.
	DefaultCompletionQueue = 1024
)

// SessionConfig holds configuration for a Session.
type SessionConfig struct {
	Logger             types.Logger
	Gauges             types.GaugeRegistry
	Reporter           types.Reporter
	CompletionExecutor future.Executor
	CompletionWorkers  int
	InitTimeout        time.Duration
}

// DefaultConfig returns a SessionConfig with sensible defaults.
//
// Defaults:
//   - Logger: no-op
//   - Gauges: no-op registry
//   - Reporter: none
//   - CompletionExecutor: a dedicated pool of DefaultCompletionWorkers goroutines
//   - InitTimeout: none (the driver's connect timeout applies)
//
// Returns:
//   - *SessionConfig: Configuration with default settings
func DefaultConfig() *SessionConfig {
	return &SessionConfig{
		Logger:            logging.NewNopLogger(),
		Gauges:            metrics.NewNopRegistry(),
		CompletionWorkers: DefaultCompletionWorkers,
	}
}

// Option configures a SessionConfig.
type Option func(*SessionConfig)

// WithLogger sets the structured logger.
//
// Parameters:
//   - logger: Logger implementation (e.g., contrib/logging/zap)
//
// Returns:
//   - Option: Configuration option
func WithLogger(logger types.Logger) Option {
	return func(c *SessionConfig) {
		c.Logger = logging.OrNop(logger)
	}
}

// WithGaugeRegistry sets the registry the session publishes its gauges to.
//
// Gauges are re-registered after every successful (re)initialization:
// "config", "closed", "added-hosts", "up-hosts", "down-hosts", "removed-hosts".
//
// Parameters:
//   - registry: Gauge registry (e.g., metrics.NewRegistry or contrib/metrics/vm)
//
// Returns:
//   - Option: Configuration option
func WithGaugeRegistry(registry types.GaugeRegistry) Option {
	return func(c *SessionConfig) {
		if registry == nil {
			registry = metrics.NewNopRegistry()
		}
		c.Gauges = registry
	}
}

// WithReporter sets the external metrics reporter.
//
// The reporter only runs while the cluster's MetricsOptions.ReportingEnabled
// is set. It is restarted after every reconnect and stopped on Close.
//
// Parameters:
//   - reporter: Reporter implementation (e.g., report.NATSReporter)
//
// Returns:
//   - Option: Configuration option
func WithReporter(reporter types.Reporter) Option {
	return func(c *SessionConfig) {
		c.Reporter = reporter
	}
}

// WithCompletionExecutor replaces the dedicated completion pool.
//
// The executor runs driver-completion work: it hands callbacks to the
// issuing event loop, or runs them directly when no loop was captured.
// It must not be an event loop. The session does not close a caller-supplied
// executor.
//
// Parameters:
//   - exec: Executor for completion work
//
// Returns:
//   - Option: Configuration option
func WithCompletionExecutor(exec future.Executor) Option {
	return func(c *SessionConfig) {
		c.CompletionExecutor = exec
	}
}

// WithCompletionWorkers sets the size of the default completion pool.
func WithCompletionWorkers(n int) Option {
	return func(c *SessionConfig) {
		if n > 0 {
			c.CompletionWorkers = n
		}
	}
}

// WithInitTimeout bounds the initialization triggered by the configurator's
// ready signal. Explicit Initialize calls use the caller's context instead.
func WithInitTimeout(d time.Duration) Option {
	return func(c *SessionConfig) {
		c.InitTimeout = d
	}
}
