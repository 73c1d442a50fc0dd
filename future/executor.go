package future

import (
	"runtime/debug"
	"sync"

	"github.com/arloliu/tether/internal/logging"
	"github.com/arloliu/tether/types"
)

// Executor runs tasks.
type Executor interface {
	Execute(task func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(task func())

// Execute implements Executor.
func (fn ExecutorFunc) Execute(task func()) { fn(task) }

// Inline runs every task on the calling goroutine.
var Inline Executor = ExecutorFunc(func(task func()) { task() })

// Pool is a fixed-size worker pool.
//
// Tasks are never dropped: Execute blocks while the queue is full, and once
// the pool is closed tasks run on the caller's goroutine.
type Pool struct {
	tasks  chan func()
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	logger types.Logger
}

// Compile-time assertion that Pool implements Executor.
var _ Executor = (*Pool)(nil)

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger used to report task panics.
func WithPoolLogger(logger types.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logging.OrNop(logger)
	}
}

// NewPool starts a pool with the given number of workers.
//
// Parameters:
//   - workers: Number of worker goroutines (minimum 1)
//   - queueSize: Buffered task capacity before Execute blocks
//   - opts: Optional configuration
//
// Returns:
//   - *Pool: A running pool; call Close to stop it
func NewPool(workers, queueSize int, opts ...PoolOption) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	p := &Pool{
		tasks:  make(chan func(), queueSize),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}

	return p
}

// Execute implements Executor.
func (p *Pool) Execute(task func()) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		p.safeRun(task)
		return
	}
	p.tasks <- task
	p.mu.RUnlock()
}

// Close stops accepting tasks and waits for queued tasks to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) work() {
	defer p.wg.Done()

	for task := range p.tasks {
		p.safeRun(task)
	}
}

func (p *Pool) safeRun(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("completion task panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task()
}
