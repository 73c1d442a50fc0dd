package report

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/tether/internal/logging"
	"github.com/arloliu/tether/types"
)

// SnapshotUpdate is one change observed in the bucket.
type SnapshotUpdate struct {
	// Key is the snapshot's key.
	Key string

	// Snapshot is the decoded snapshot, nil when Removed is set.
	Snapshot *Snapshot

	// Removed reports that the key was deleted or purged.
	Removed bool
}

// WatcherConfig configures a SnapshotWatcher.
type WatcherConfig struct {
	// KeyPrefix selects the keys to watch; it must match the reporters'.
	// Default: "tether"
	KeyPrefix string

	// PollInterval is the fallback polling interval if the watch fails.
	// Default: 5 seconds
	PollInterval time.Duration

	// FetchTimeout bounds one poll.
	// Default: 10 seconds
	FetchTimeout time.Duration
}

// DefaultWatcherConfig returns the default configuration.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		KeyPrefix:    "tether",
		PollInterval: 5 * time.Second,
		FetchTimeout: 10 * time.Second,
	}
}

// WatcherOption configures a SnapshotWatcher.
type WatcherOption func(*SnapshotWatcher)

// WithWatchPrefix sets the key prefix to watch.
func WithWatchPrefix(prefix string) WatcherOption {
	return func(w *SnapshotWatcher) {
		w.config.KeyPrefix = prefix
	}
}

// WithPollInterval sets the fallback polling interval.
//
// If the JetStream watch fails or its channel closes, the watcher falls
// back to listing the bucket at this interval.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *SnapshotWatcher) {
		if d > 0 {
			w.config.PollInterval = d
		}
	}
}

// WithWatchLogger sets the logger for undecodable entries.
func WithWatchLogger(logger types.Logger) WatcherOption {
	return func(w *SnapshotWatcher) {
		w.logger = logging.OrNop(logger)
	}
}

// SnapshotWatcher follows the snapshots that reporters publish to a bucket
// and keeps the latest one per key.
//
// Watch should be called once; later calls return the same channel. The
// channel is closed when Close is called or the context ends.
type SnapshotWatcher struct {
	kv     jetstream.KeyValue
	config WatcherConfig
	logger types.Logger

	mu           sync.RWMutex
	latest       map[string]*Snapshot
	revisions    map[string]uint64
	watchStarted bool
	closed       bool

	updates   chan SnapshotUpdate
	done      chan struct{}
	closeOnce sync.Once
}

// NewSnapshotWatcher creates a watcher over kv.
//
// Parameters:
//   - kv: The bucket the reporters write to
//   - opts: Optional configuration
//
// Returns:
//   - *SnapshotWatcher: A watcher; call Watch to start it
//   - error: ErrNilKeyValue if kv is nil
func NewSnapshotWatcher(kv jetstream.KeyValue, opts ...WatcherOption) (*SnapshotWatcher, error) {
	if kv == nil {
		return nil, ErrNilKeyValue
	}

	w := &SnapshotWatcher{
		kv:        kv,
		config:    DefaultWatcherConfig(),
		logger:    logging.NewNopLogger(),
		latest:    make(map[string]*Snapshot),
		revisions: make(map[string]uint64),
		updates:   make(chan SnapshotUpdate, 64),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Watch starts following the bucket and returns the update channel.
//
// Updates are dropped when the channel is full; Latest always reflects
// every processed entry.
func (w *SnapshotWatcher) Watch(ctx context.Context) <-chan SnapshotUpdate {
	w.mu.Lock()
	if w.watchStarted {
		w.mu.Unlock()
		return w.updates
	}
	w.watchStarted = true
	w.mu.Unlock()

	go w.watchLoop(ctx)

	return w.updates
}

// Close stops the watcher. It is safe to call more than once.
func (w *SnapshotWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)

	return nil
}

// Latest returns the newest snapshot of every live key.
func (w *SnapshotWatcher) Latest() map[string]*Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make(map[string]*Snapshot, len(w.latest))
	for k, v := range w.latest {
		out[k] = v
	}

	return out
}

// Cluster returns the latest snapshots reported for cluster.
func (w *SnapshotWatcher) Cluster(cluster string) []*Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []*Snapshot
	for _, snap := range w.latest {
		if snap.Cluster == cluster {
			out = append(out, snap)
		}
	}

	return out
}

func (w *SnapshotWatcher) watchLoop(ctx context.Context) {
	defer w.closeOnce.Do(func() { close(w.updates) })

	watcher, err := w.kv.Watch(ctx, w.config.KeyPrefix+".>")
	if err != nil {
		w.logger.Warn("snapshot watch failed, polling", "prefix", w.config.KeyPrefix, "error", err)
		w.pollLoop(ctx)
		return
	}
	defer func() { _ = watcher.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case entry, ok := <-watcher.Updates():
			if !ok {
				w.pollLoop(ctx)
				return
			}
			// nil marks the end of the initial values
			if entry == nil {
				continue
			}
			w.processEntry(entry)
		}
	}
}

func (w *SnapshotWatcher) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		w.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-ticker.C:
		}
	}
}

func (w *SnapshotWatcher) poll(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, w.config.FetchTimeout)
	defer cancel()

	lister, err := w.kv.ListKeys(fetchCtx)
	if err != nil {
		if !errors.Is(err, jetstream.ErrNoKeysFound) {
			w.logger.Warn("failed to list snapshots", "error", err)
		}
		return
	}
	defer func() { _ = lister.Stop() }()

	seen := make(map[string]struct{})
	prefix := w.config.KeyPrefix + "."
	for key := range lister.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		seen[key] = struct{}{}
		entry, err := w.kv.Get(fetchCtx, key)
		if err != nil {
			continue
		}
		w.processEntry(entry)
	}

	w.mu.RLock()
	var gone []string
	for key := range w.latest {
		if _, ok := seen[key]; !ok {
			gone = append(gone, key)
		}
	}
	w.mu.RUnlock()

	for _, key := range gone {
		w.remove(key)
	}
}

func (w *SnapshotWatcher) processEntry(entry jetstream.KeyValueEntry) {
	key := entry.Key()

	if op := entry.Operation(); op == jetstream.KeyValueDelete || op == jetstream.KeyValuePurge {
		w.remove(key)
		return
	}

	var snap Snapshot
	if _, err := snap.UnmarshalMsg(entry.Value()); err != nil {
		w.logger.Warn("skipping undecodable snapshot", "key", key, "error", err)
		return
	}

	w.mu.Lock()
	if rev, ok := w.revisions[key]; ok && rev >= entry.Revision() {
		w.mu.Unlock()
		return
	}
	w.revisions[key] = entry.Revision()
	w.latest[key] = &snap
	w.mu.Unlock()

	w.emit(SnapshotUpdate{Key: key, Snapshot: &snap})
}

func (w *SnapshotWatcher) remove(key string) {
	w.mu.Lock()
	_, ok := w.latest[key]
	delete(w.latest, key)
	delete(w.revisions, key)
	w.mu.Unlock()

	if ok {
		w.emit(SnapshotUpdate{Key: key, Removed: true})
	}
}

func (w *SnapshotWatcher) emit(u SnapshotUpdate) {
	select {
	case w.updates <- u:
	default:
		w.logger.Debug("snapshot update dropped", "key", u.Key)
	}
}
