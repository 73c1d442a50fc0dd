package future

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureCompletesOnce(t *testing.T) {
	f := New[int]()
	assert.False(t, f.IsDone())

	_, err := f.Result()
	require.ErrorIs(t, err, ErrNotDone)

	require.True(t, f.Complete(42, nil))
	require.False(t, f.Complete(7, errors.New("late")))

	v, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, f.IsDone())
}

func TestFutureGet(t *testing.T) {
	t.Run("returns outcome", func(t *testing.T) {
		boom := errors.New("boom")
		f := Go(func() (string, error) { return "", boom })

		_, err := f.Get(t.Context())
		require.ErrorIs(t, err, boom)
	})

	t.Run("honors context", func(t *testing.T) {
		f := New[string]()
		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		_, err := f.Get(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("recovers producer panic", func(t *testing.T) {
		f := Go(func() (int, error) { panic("bad") })

		_, err := f.Get(t.Context())
		var pe *PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "bad", pe.Value)
	})
}

func TestFutureListeners(t *testing.T) {
	f := New[int]()

	var calls atomic.Int32
	var seen []string
	var mu sync.Mutex
	record := func(name string) func() {
		return func() {
			calls.Add(1)
			mu.Lock()
			seen = append(seen, name)
			mu.Unlock()
		}
	}

	f.AddListener(record("before"), nil)
	f.Complete(1, nil)
	f.AddListener(record("after"), Inline)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []string{"before", "after"}, seen)
}

func TestFutureListenerUsesExecutor(t *testing.T) {
	var routed atomic.Int32
	exec := ExecutorFunc(func(task func()) {
		routed.Add(1)
		task()
	})

	f := New[int]()
	ran := make(chan struct{})
	f.AddListener(func() { close(ran) }, exec)
	f.Complete(0, nil)

	<-ran
	assert.Equal(t, int32(1), routed.Load())
}

func TestPool(t *testing.T) {
	p := NewPool(2, 4)

	var wg sync.WaitGroup
	var count atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		p.Execute(func() {
			defer wg.Done()
			count.Add(1)
		})
	}
	wg.Wait()
	assert.Equal(t, int32(50), count.Load())

	p.Execute(func() { panic("ignored") })

	p.Close()
	p.Close()

	// Tasks submitted after Close still run, on the caller.
	ran := false
	p.Execute(func() { ran = true })
	assert.True(t, ran)
}
