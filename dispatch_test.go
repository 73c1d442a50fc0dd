package tether_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/tether"
	"github.com/arloliu/tether/future"
	"github.com/arloliu/tether/loop"
	"github.com/arloliu/tether/test/testutil"
	"github.com/arloliu/tether/types"
)

// recordingCallback collects every invocation.
type recordingCallback[T any] struct {
	mu        sync.Mutex
	successes []T
	failures  []error
	done      chan struct{}
	once      sync.Once
}

func newRecordingCallback[T any]() *recordingCallback[T] {
	return &recordingCallback[T]{done: make(chan struct{})}
}

func (c *recordingCallback[T]) OnSuccess(result T) {
	c.mu.Lock()
	c.successes = append(c.successes, result)
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

func (c *recordingCallback[T]) OnFailure(err error) {
	c.mu.Lock()
	c.failures = append(c.failures, err)
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
}

func (c *recordingCallback[T]) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback not invoked")
	}
}

func (c *recordingCallback[T]) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.successes), len(c.failures)
}

// countingExecutor forwards tasks to a goroutine, or rejects them.
type countingExecutor struct {
	calls  atomic.Int32
	reject error
}

func (e *countingExecutor) RunOnContext(task func()) error {
	e.calls.Add(1)
	if e.reject != nil {
		return e.reject
	}
	go task()

	return nil
}

func readySession(t *testing.T, opts ...tether.Option) (*tether.Session, *testutil.FakeSession) {
	t.Helper()

	s, driver, conf := newTestSession(t, []string{"10.0.0.1"}, opts...)
	require.NoError(t, s.Initialize(t.Context(), conf))
	t.Cleanup(func() { _ = s.Close() })

	return s, driver.LastCluster().Session()
}

func TestExecuteAsync_NotReady(t *testing.T) {
	s, _, _ := newTestSession(t, []string{"10.0.0.1"})
	cb := newRecordingCallback[*types.ResultSet]()

	err := s.ExecuteQueryAsync(t.Context(), "SELECT * FROM t", cb)
	require.ErrorIs(t, err, types.ErrNotReady)

	time.Sleep(20 * time.Millisecond)
	succ, fail := cb.counts()
	assert.Zero(t, succ)
	assert.Zero(t, fail)
}

func TestExecuteAsync_NilCallback(t *testing.T) {
	s, _ := readySession(t)
	require.ErrorIs(t, s.ExecuteQueryAsync(t.Context(), "SELECT 1", nil), types.ErrNilCallback)
}

func TestNilStatement(t *testing.T) {
	s, fake := readySession(t)
	cb := newRecordingCallback[*types.ResultSet]()

	require.ErrorIs(t, s.ExecuteAsync(t.Context(), nil, cb), types.ErrNilStatement)
	require.ErrorIs(t, s.PrepareAsync(t.Context(), nil, newRecordingCallback[*types.PreparedStatement]()), types.ErrNilStatement)

	_, err := s.Execute(t.Context(), nil)
	require.ErrorIs(t, err, types.ErrNilStatement)
	_, err = s.Prepare(t.Context(), nil)
	require.ErrorIs(t, err, types.ErrNilStatement)

	succ, fail := cb.counts()
	assert.Zero(t, succ+fail)
	assert.Empty(t, fake.Statements())
}

func TestExecuteAsync_NoExecutionContext(t *testing.T) {
	s, fake := readySession(t)
	fake.OnExecute(func(_ context.Context, _ types.Statement) (*types.ResultSet, error) {
		return &types.ResultSet{Rows: []map[string]any{{"id": 1}}}, nil
	})
	cb := newRecordingCallback[*types.ResultSet]()

	require.NoError(t, s.ExecuteQueryAsync(t.Context(), "SELECT id FROM t", cb))
	cb.wait(t)

	succ, fail := cb.counts()
	assert.Equal(t, 1, succ)
	assert.Zero(t, fail)
	assert.Equal(t, 1, cb.successes[0].Len())
	assert.Equal(t, []string{"SELECT id FROM t"}, fake.Statements())
}

func TestExecuteAsync_DeliversOnExecutionContext(t *testing.T) {
	s, _ := readySession(t)
	exec := &countingExecutor{}
	ctx := loop.WithExecutor(t.Context(), exec)
	cb := newRecordingCallback[*types.ResultSet]()

	require.NoError(t, s.ExecuteAsync(ctx, types.NewStatement("SELECT * FROM t WHERE id = ?", 7), cb))
	cb.wait(t)

	assert.Equal(t, int32(1), exec.calls.Load())
}

func TestExecuteAsync_DeliversThroughLoop(t *testing.T) {
	s, fake := readySession(t)
	fake.Hold()

	l := loop.New(loop.WithName("test-loop"))
	cb := newRecordingCallback[*types.ResultSet]()

	require.NoError(t, s.ExecuteQueryAsync(l.Context(t.Context()), "SELECT * FROM t", cb))
	require.Equal(t, 1, fake.Release())

	// the loop is not running yet, so the callback waits in its queue
	require.Eventually(t, func() bool { return l.Pending() == 1 }, time.Second, 5*time.Millisecond)
	succ, fail := cb.counts()
	assert.Zero(t, succ+fail)

	l.Start(t.Context())
	t.Cleanup(l.Stop)
	cb.wait(t)

	succ, _ = cb.counts()
	assert.Equal(t, 1, succ)
}

func TestExecuteAsync_FailureDeliversThroughLoop(t *testing.T) {
	s, fake := readySession(t)
	cause := errors.New("unavailable: not enough replicas")
	fake.OnExecute(func(context.Context, types.Statement) (*types.ResultSet, error) {
		return nil, cause
	})
	fake.Hold()

	l := loop.New(loop.WithName("test-loop"))
	cb := newRecordingCallback[*types.ResultSet]()

	require.NoError(t, s.ExecuteQueryAsync(l.Context(t.Context()), "SELECT * FROM t", cb))
	require.Equal(t, 1, fake.Release())

	require.Eventually(t, func() bool { return l.Pending() == 1 }, time.Second, 5*time.Millisecond)
	succ, fail := cb.counts()
	assert.Zero(t, succ+fail)

	l.Start(t.Context())
	t.Cleanup(l.Stop)
	cb.wait(t)

	succ, fail = cb.counts()
	assert.Zero(t, succ)
	require.Equal(t, 1, fail)
	require.ErrorIs(t, cb.failures[0], cause)
}

func TestExecuteAsync_LoopStoppedBeforeRun(t *testing.T) {
	s, fake := readySession(t)
	fake.Hold()

	l := loop.New()
	cb := newRecordingCallback[*types.ResultSet]()

	require.NoError(t, s.ExecuteQueryAsync(l.Context(t.Context()), "SELECT 1", cb))
	require.Equal(t, 1, fake.Release())
	require.Eventually(t, func() bool { return l.Pending() == 1 }, time.Second, 5*time.Millisecond)

	l.Stop()

	succ, fail := cb.counts()
	assert.Equal(t, 1, succ)
	assert.Zero(t, fail)
}

func TestExecuteAsync_IssuedFromLoopTask(t *testing.T) {
	s, fake := readySession(t)
	fake.Hold()

	l := loop.New()
	l.Start(t.Context())
	t.Cleanup(l.Stop)

	cb := newRecordingCallback[*types.ResultSet]()
	require.NoError(t, l.Submit(t.Context(), func(ctx context.Context) {
		assert.NoError(t, s.ExecuteQueryAsync(ctx, "SELECT 1", cb))
	}))

	// occupy the loop; the callback must queue behind this task
	entered := make(chan struct{})
	gate := make(chan struct{})
	require.NoError(t, l.RunOnContext(func() {
		close(entered)
		<-gate
	}))
	<-entered

	require.Equal(t, 1, fake.Release())
	require.Eventually(t, func() bool { return l.Pending() == 1 }, time.Second, 5*time.Millisecond)
	succ, fail := cb.counts()
	assert.Zero(t, succ+fail)

	close(gate)
	cb.wait(t)

	succ, _ = cb.counts()
	assert.Equal(t, 1, succ)
}

func TestExecuteAsync_RejectedExecutionContextFallsBack(t *testing.T) {
	s, _ := readySession(t)
	exec := &countingExecutor{reject: loop.ErrLoopStopped}
	ctx := loop.WithExecutor(t.Context(), exec)
	cb := newRecordingCallback[*types.ResultSet]()

	require.NoError(t, s.ExecuteQueryAsync(ctx, "SELECT 1", cb))
	cb.wait(t)

	time.Sleep(20 * time.Millisecond)
	succ, fail := cb.counts()
	assert.Equal(t, 1, succ)
	assert.Zero(t, fail)
}

func TestExecuteAsync_Failure(t *testing.T) {
	s, fake := readySession(t)
	cause := errors.New("read timeout")
	fake.OnExecute(func(context.Context, types.Statement) (*types.ResultSet, error) {
		return nil, cause
	})
	cb := newRecordingCallback[*types.ResultSet]()

	require.NoError(t, s.ExecuteQueryAsync(t.Context(), "SELECT * FROM t", cb))
	cb.wait(t)

	succ, fail := cb.counts()
	require.Equal(t, 1, fail)
	assert.Zero(t, succ)

	var opErr *types.OperationError
	require.ErrorAs(t, cb.failures[0], &opErr)
	assert.Equal(t, "execute", opErr.Operation)
	assert.Equal(t, "SELECT * FROM t", opErr.Statement)
	require.ErrorIs(t, cb.failures[0], cause)
}

func TestExecuteAsync_ExactlyOnce(t *testing.T) {
	s, _ := readySession(t)
	l := loop.New()
	l.Start(t.Context())
	t.Cleanup(l.Stop)

	const n = 200
	var successes, failures atomic.Int32
	var wg sync.WaitGroup
	wg.Add(n)
	for range n {
		err := s.ExecuteQueryAsync(l.Context(t.Context()), "SELECT 1", tether.OnResult(
			func(*types.ResultSet) { successes.Add(1); wg.Done() },
			func(error) { failures.Add(1); wg.Done() },
		))
		require.NoError(t, err)
	}

	waitGroup(t, &wg)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(n), successes.Load())
	assert.Zero(t, failures.Load())
}

func TestPrepareAsync(t *testing.T) {
	s, _ := readySession(t)
	cb := newRecordingCallback[*types.PreparedStatement]()

	require.NoError(t, s.PrepareQueryAsync(t.Context(), "INSERT INTO t (id) VALUES (?)", cb))
	cb.wait(t)

	succ, _ := cb.counts()
	require.Equal(t, 1, succ)
	assert.Equal(t, "INSERT INTO t (id) VALUES (?)", cb.successes[0].Query)
}

func TestPrepareAsync_Failure(t *testing.T) {
	s, fake := readySession(t)
	fake.OnPrepare(func(context.Context, types.Statement) (*types.PreparedStatement, error) {
		return nil, errors.New("syntax error")
	})
	cb := newRecordingCallback[*types.PreparedStatement]()

	require.NoError(t, s.PrepareQueryAsync(t.Context(), "INSERT INTO", cb))
	cb.wait(t)

	var opErr *types.OperationError
	require.ErrorAs(t, cb.failures[0], &opErr)
	assert.Equal(t, "prepare", opErr.Operation)
}

func TestAsync_CustomCompletionExecutor(t *testing.T) {
	var runs atomic.Int32
	exec := future.ExecutorFunc(func(task func()) {
		runs.Add(1)
		go task()
	})
	s, _ := readySession(t, tether.WithCompletionExecutor(exec))
	cb := newRecordingCallback[*types.ResultSet]()

	require.NoError(t, s.ExecuteQueryAsync(t.Context(), "SELECT 1", cb))
	cb.wait(t)

	assert.Equal(t, int32(1), runs.Load())
}

func TestAsync_InFlightOnReplacedClusterCompletes(t *testing.T) {
	s, driver, conf := newTestSession(t, []string{"10.0.0.1"})
	require.NoError(t, s.Initialize(t.Context(), conf))
	old := driver.LastCluster().Session()
	old.Hold()

	cb := newRecordingCallback[*types.ResultSet]()
	require.NoError(t, s.ExecuteQueryAsync(t.Context(), "SELECT 1", cb))

	require.NoError(t, s.Initialize(t.Context(), conf))
	require.Equal(t, 1, old.Release())
	cb.wait(t)

	succ, _ := cb.counts()
	assert.Equal(t, 1, succ)
}

func TestExecute_Sync(t *testing.T) {
	s, fake := readySession(t)
	fake.OnExecute(func(_ context.Context, stmt types.Statement) (*types.ResultSet, error) {
		return &types.ResultSet{Rows: []map[string]any{{"n": len(stmt.Args())}}}, nil
	})

	rs, err := s.ExecuteQuery(t.Context(), "SELECT * FROM t WHERE a = ? AND b = ?", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, rs.One()["n"])
}

func TestExecute_SyncFailure(t *testing.T) {
	s, fake := readySession(t)
	fake.OnExecute(func(context.Context, types.Statement) (*types.ResultSet, error) {
		return nil, errors.New("unavailable")
	})

	_, err := s.ExecuteQuery(t.Context(), "SELECT 1")
	var opErr *types.OperationError
	require.ErrorAs(t, err, &opErr)
}

func TestPrepare_Sync(t *testing.T) {
	s, _ := readySession(t)

	ps, err := s.PrepareQuery(t.Context(), "SELECT * FROM t WHERE id = ?")
	require.NoError(t, err)
	bound := ps.Bind(42)
	assert.Equal(t, []any{42}, bound.Args())
}

func TestMetadata(t *testing.T) {
	s, fake := readySession(t)
	fake.SetKeyspace(&types.KeyspaceMetadata{Name: "app", Tables: []string{"users"}})

	md, err := s.Metadata("app")
	require.NoError(t, err)
	assert.Equal(t, []string{"users"}, md.Tables)

	_, err = s.Metadata("missing")
	require.ErrorIs(t, err, testutil.ErrUnknownKeyspace)
}

func TestSync_NotReady(t *testing.T) {
	s, _, _ := newTestSession(t, []string{"10.0.0.1"})

	_, err := s.ExecuteQuery(t.Context(), "SELECT 1")
	require.ErrorIs(t, err, types.ErrNotReady)
	_, err = s.PrepareQuery(t.Context(), "SELECT 1")
	require.ErrorIs(t, err, types.ErrNotReady)
	_, err = s.Metadata("app")
	require.ErrorIs(t, err, types.ErrNotReady)
}

func TestAsync_AfterClose(t *testing.T) {
	s, _, conf := newTestSession(t, []string{"10.0.0.1"})
	require.NoError(t, s.Initialize(t.Context(), conf))
	require.NoError(t, s.Close())

	err := s.ExecuteQueryAsync(t.Context(), "SELECT 1", newRecordingCallback[*types.ResultSet]())
	require.ErrorIs(t, err, types.ErrNotReady)
}

func waitGroup(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callbacks")
	}
}
