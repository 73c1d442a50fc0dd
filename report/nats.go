package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/tether/internal/logging"
	"github.com/arloliu/tether/metrics"
	"github.com/arloliu/tether/types"
)

var (
	// ErrNilKeyValue is returned when no key-value bucket is given.
	ErrNilKeyValue = errors.New("tether: key-value bucket is nil")

	// ErrNilSource is returned when no gauge source is given.
	ErrNilSource = errors.New("tether: gauge source is nil")

	// ErrReporterRunning is returned by Start while a previous Start is active.
	ErrReporterRunning = errors.New("tether: reporter already running")
)

// Source provides gauge readings. *metrics.Registry implements it.
type Source interface {
	Snapshot() []metrics.Sample
}

// NATSReporterConfig configures the NATS key-value reporter.
type NATSReporterConfig struct {
	// Interval between snapshots.
	// Default: 10 seconds
	Interval time.Duration

	// KeyPrefix prefixes every key. Snapshots are stored under
	// "{KeyPrefix}.{cluster}.{reporter id}".
	// Default: "tether"
	KeyPrefix string

	// PublishTimeout bounds one put, including retries.
	// Default: 5 seconds
	PublishTimeout time.Duration

	// MaxRetries is the number of retries for a failed put.
	// Default: 3
	MaxRetries uint64
}

// DefaultNATSReporterConfig returns the default configuration.
func DefaultNATSReporterConfig() NATSReporterConfig {
	return NATSReporterConfig{
		Interval:       10 * time.Second,
		KeyPrefix:      "tether",
		PublishTimeout: 5 * time.Second,
		MaxRetries:     3,
	}
}

// NATSReporterOption configures a NATSReporter.
type NATSReporterOption func(*NATSReporter)

// WithInterval sets the time between snapshots.
func WithInterval(d time.Duration) NATSReporterOption {
	return func(r *NATSReporter) {
		if d > 0 {
			r.config.Interval = d
		}
	}
}

// WithKeyPrefix sets the key prefix.
func WithKeyPrefix(prefix string) NATSReporterOption {
	return func(r *NATSReporter) {
		r.config.KeyPrefix = prefix
	}
}

// WithPublishTimeout sets the timeout for one put, including retries.
func WithPublishTimeout(d time.Duration) NATSReporterOption {
	return func(r *NATSReporter) {
		if d > 0 {
			r.config.PublishTimeout = d
		}
	}
}

// WithMaxRetries sets the number of retries for a failed put.
func WithMaxRetries(n uint64) NATSReporterOption {
	return func(r *NATSReporter) {
		r.config.MaxRetries = n
	}
}

// WithLogger sets the logger for publish failures.
func WithLogger(logger types.Logger) NATSReporterOption {
	return func(r *NATSReporter) {
		r.logger = logging.OrNop(logger)
	}
}

// NATSReporter periodically writes gauge snapshots to a JetStream
// key-value bucket.
//
// Each reporter has a random ID, so several processes can report the same
// cluster into one bucket. The bucket keeps the latest snapshot per key;
// its history setting decides how many earlier ones survive.
type NATSReporter struct {
	kv     jetstream.KeyValue
	source Source
	config NATSReporterConfig
	logger types.Logger
	id     uuid.UUID

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	key     string
	cluster string
}

// Compile-time assertion that NATSReporter implements types.Reporter.
var _ types.Reporter = (*NATSReporter)(nil)

// NewNATSReporter creates a reporter writing snapshots of source to kv.
//
// Parameters:
//   - kv: Destination bucket (created via js.CreateKeyValue)
//   - source: Gauge source, usually the registry passed to tether.WithGaugeRegistry
//   - opts: Optional configuration
//
// Returns:
//   - *NATSReporter: A stopped reporter
//   - error: ErrNilKeyValue or ErrNilSource
//
// Example:
//
//	registry := metrics.NewRegistry()
//	kv, _ := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: "tether-metrics"})
//	reporter, _ := report.NewNATSReporter(kv, registry)
//	session, _ := tether.NewSession(driver, conf,
//	    tether.WithGaugeRegistry(registry),
//	    tether.WithReporter(reporter),
//	)
func NewNATSReporter(kv jetstream.KeyValue, source Source, opts ...NATSReporterOption) (*NATSReporter, error) {
	if kv == nil {
		return nil, ErrNilKeyValue
	}
	if source == nil {
		return nil, ErrNilSource
	}

	r := &NATSReporter{
		kv:     kv,
		source: source,
		config: DefaultNATSReporterConfig(),
		logger: logging.NewNopLogger(),
		id:     uuid.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.With(r.logger, "reporter", r.id.String())

	return r, nil
}

// ID returns the reporter's unique identifier.
func (r *NATSReporter) ID() uuid.UUID {
	return r.id
}

// Key returns the key snapshots for cluster are stored under.
func (r *NATSReporter) Key(cluster string) string {
	return r.config.KeyPrefix + "." + sanitizeKey(cluster) + "." + r.id.String()
}

// Start implements types.Reporter. It checks that the bucket is reachable,
// publishes a first snapshot and keeps publishing every Interval until Stop.
//
// Returns:
//   - error: ErrReporterRunning, or the bucket status error
func (r *NATSReporter) Start(cluster string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return ErrReporterRunning
	}

	statusCtx, cancelStatus := context.WithTimeout(context.Background(), r.config.PublishTimeout)
	_, err := r.kv.Status(statusCtx)
	cancelStatus()
	if err != nil {
		return fmt.Errorf("tether: metrics bucket unavailable: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.key = r.Key(cluster)
	r.cluster = cluster

	go r.run(ctx, r.key, cluster, r.done)

	r.logger.Info("metrics reporter started", "cluster", cluster, "key", r.key, "interval", r.config.Interval)

	return nil
}

// Stop implements types.Reporter. It waits for an in-progress publish to
// finish. Calling Stop on a stopped reporter is a no-op.
func (r *NATSReporter) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	r.logger.Info("metrics reporter stopped", "cluster", r.cluster)
}

func (r *NATSReporter) run(ctx context.Context, key, cluster string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		if err := r.Publish(ctx, key, cluster); err != nil && ctx.Err() == nil {
			r.logger.Warn("failed to publish metrics snapshot", "key", key, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Publish writes one snapshot to key, retrying with exponential backoff.
//
// Parameters:
//   - ctx: Cancels the publish and its retries
//   - key: Destination key
//   - cluster: Cluster name recorded in the snapshot
//
// Returns:
//   - error: Encoding error or the last put error
func (r *NATSReporter) Publish(ctx context.Context, key, cluster string) error {
	snap := Snapshot{
		Reporter:  r.id.String(),
		Cluster:   cluster,
		Timestamp: time.Now().UnixNano(),
		Gauges:    r.source.Snapshot(),
	}
	data, err := snap.MarshalMsg(nil)
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, r.config.PublishTimeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second

	return backoff.Retry(func() error {
		_, err := r.kv.Put(pubCtx, key, data)
		if errors.Is(err, jetstream.ErrBucketNotFound) {
			return backoff.Permanent(err)
		}

		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, r.config.MaxRetries), pubCtx))
}

// Read fetches and decodes the latest snapshot stored under key.
func Read(ctx context.Context, kv jetstream.KeyValue, key string) (*Snapshot, error) {
	entry, err := kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if _, err := snap.UnmarshalMsg(entry.Value()); err != nil {
		return nil, err
	}

	return &snap, nil
}

// sanitizeKey maps characters NATS rejects in keys to '_'.
func sanitizeKey(s string) string {
	if s == "" {
		return "unknown"
	}

	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '=':
			return r
		default:
			return '_'
		}
	}, s)
}
