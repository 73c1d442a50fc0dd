package configurator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arloliu/tether/internal/logging"
	"github.com/arloliu/tether/types"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reloads a configuration file when it changes.
type Watcher struct {
	path     string
	opts     []Option
	logger   types.Logger
	debounce time.Duration
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithWatchLogger sets the logger for reload failures.
func WithWatchLogger(logger types.Logger) WatchOption {
	return func(w *Watcher) {
		w.logger = logging.OrNop(logger)
	}
}

// WithDebounce sets how long to wait for writes to settle before reloading.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithConfiguratorOptions sets the options applied to every reloaded configurator.
func WithConfiguratorOptions(opts ...Option) WatchOption {
	return func(w *Watcher) {
		w.opts = append(w.opts, opts...)
	}
}

// NewWatcher creates a watcher for path.
func NewWatcher(path string, opts ...WatchOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		logger:   logging.NewNopLogger(),
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run watches the file until ctx is done, calling onChange with a freshly
// loaded configurator after each change. Files that fail to load are logged
// and skipped.
//
// The parent directory is watched so editors that replace the file by
// rename are handled.
//
// Typical use re-initializes a session:
//
//	go watcher.Run(ctx, func(c *configurator.Static) {
//	    if err := session.Initialize(ctx, c); err != nil {
//	        logger.Error("reinitialize failed", "error", err)
//	    }
//	})
//
// Returns:
//   - error: Watcher setup error, or nil when ctx is done
func (w *Watcher) Run(ctx context.Context, onChange func(*Static)) error {
	watch, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watch.Close()

	if err := watch.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watch.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-watch.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "path", w.path, "error", err)
		case <-timer.C:
			c, err := FromFile(w.path, w.opts...)
			if err != nil {
				w.logger.Error("failed to reload config", "path", w.path, "error", err)
				continue
			}
			w.logger.Info("config reloaded", "path", w.path, "seeds", len(c.cfg.Seeds))
			onChange(c)
		}
	}
}
