package loop

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/arloliu/tether/internal/logging"
	"github.com/arloliu/tether/types"
	"github.com/eapache/queue"
)

var (
	// ErrLoopStopped is returned when a task is handed to a stopped loop.
	ErrLoopStopped = errors.New("loop: stopped")

	// ErrLoopRunning is returned when Run is called on a loop that is already running.
	ErrLoopRunning = errors.New("loop: already running")
)

const defaultBatchSize = 64

// Loop is a single-goroutine execution context.
//
// Tasks handed to RunOnContext run one at a time, in submission order, on the
// goroutine that called Run. The run queue is unbounded so submitting never
// blocks the caller.
type Loop struct {
	name      string
	batchSize int
	logger    types.Logger

	mu    sync.Mutex
	queue *queue.Queue

	wake    chan struct{}
	quitCh  chan struct{}
	doneCh  chan struct{}
	running atomic.Bool
	stopped atomic.Bool
	stopMu  sync.Once
}

// Compile-time assertion that Loop implements Executor.
var _ Executor = (*Loop)(nil)

// Option configures a Loop.
type Option func(*Loop)

// WithName sets the loop name used in log messages.
func WithName(name string) Option {
	return func(l *Loop) {
		l.name = name
	}
}

// WithLogger sets the logger used to report task panics.
func WithLogger(logger types.Logger) Option {
	return func(l *Loop) {
		l.logger = logging.OrNop(logger)
	}
}

// WithBatchSize sets how many queued tasks are taken per wake-up.
func WithBatchSize(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// New creates a loop. Call Run (or Start) to begin processing tasks.
//
// Parameters:
//   - opts: Optional configuration
//
// Returns:
//   - *Loop: A loop that accepts tasks immediately; they run once Run starts
func New(opts ...Option) *Loop {
	l := &Loop{
		name:      "loop",
		batchSize: defaultBatchSize,
		logger:    logging.NewNopLogger(),
		queue:     queue.New(),
		wake:      make(chan struct{}, 1),
		quitCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.With(l.logger, "loop", l.name)

	return l
}

// Name returns the loop name.
func (l *Loop) Name() string {
	return l.name
}

// RunOnContext enqueues task to run on the loop goroutine.
//
// Returns:
//   - error: ErrLoopStopped if the loop no longer accepts tasks
func (l *Loop) RunOnContext(task func()) error {
	if l.stopped.Load() {
		return ErrLoopStopped
	}

	l.mu.Lock()
	if l.stopped.Load() {
		l.mu.Unlock()
		return ErrLoopStopped
	}
	l.queue.Add(task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}

	return nil
}

// Submit enqueues task and hands it a context bound to this loop, so that
// operations issued from the task deliver their callbacks back here.
func (l *Loop) Submit(parent context.Context, task func(ctx context.Context)) error {
	return l.RunOnContext(func() {
		task(l.Context(parent))
	})
}

// Context returns parent with this loop attached as its execution context.
func (l *Loop) Context(parent context.Context) context.Context {
	return WithExecutor(parent, l)
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.queue.Length()
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start(ctx context.Context) {
	go func() {
		if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Warn("loop exited", "error", err)
		}
	}()
}

// Run processes tasks on the calling goroutine until Stop is called or ctx
// is done. Tasks accepted before Stop still run before Run returns.
//
// Returns:
//   - error: nil after Stop, ctx.Err() on cancellation, ErrLoopRunning if
//     another goroutine is already running the loop, ErrLoopStopped if Stop
//     already drained the loop
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		if l.stopped.Load() {
			return ErrLoopStopped
		}
		return ErrLoopRunning
	}
	defer close(l.doneCh)

	l.logger.Debug("loop started")

	batch := make([]func(), 0, l.batchSize)
	for {
		batch = l.take(batch[:0])
		if len(batch) > 0 {
			for _, task := range batch {
				l.safeRun(task)
			}
			continue
		}

		select {
		case <-l.wake:
		case <-l.quitCh:
			l.drain()
			return nil
		case <-ctx.Done():
			l.shutdown()
			l.drain()
			return ctx.Err()
		}
	}
}

// Stop stops accepting tasks and waits for Run to finish the tasks already queued.
//
// If Run was never called, Stop runs the queued tasks on the calling
// goroutine instead and a later Run returns ErrLoopStopped.
func (l *Loop) Stop() {
	l.shutdown()

	if l.running.CompareAndSwap(false, true) {
		l.drain()
		close(l.doneCh)
		return
	}
	<-l.doneCh
}

// Done returns a channel closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.doneCh
}

func (l *Loop) shutdown() {
	l.stopMu.Do(func() {
		l.mu.Lock()
		l.stopped.Store(true)
		l.mu.Unlock()
		close(l.quitCh)
	})
}

func (l *Loop) take(batch []func()) []func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for len(batch) < l.batchSize && l.queue.Length() > 0 {
		batch = append(batch, l.queue.Remove().(func()))
	}

	return batch
}

func (l *Loop) drain() {
	batch := make([]func(), 0, l.batchSize)
	for {
		batch = l.take(batch[:0])
		if len(batch) == 0 {
			return
		}
		for _, task := range batch {
			l.safeRun(task)
		}
	}
}

func (l *Loop) safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}
