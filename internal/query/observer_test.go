package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestObserver(t *testing.T) (*Client, *Observer) {
	t.Helper()
	c := newTestClient(t, ClientOptions{})
	o := NewObserver(c, zap.NewNop())
	t.Cleanup(o.Close)
	return c, o
}

func waitResult(t *testing.T, o *Observer) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := o.Wait(ctx)
	require.NoError(t, err)
	return res
}

func TestObserver_Disabled(t *testing.T) {
	_, o := newTestObserver(t)
	var calls atomic.Int32

	require.NoError(t, o.SetOptions("k", countingFn(&calls, "v"), Options{Enabled: false}))
	res := o.Result()
	assert.Equal(t, StatusIdle, res.Status)
	assert.Nil(t, res.Data)

	res = waitResult(t, o)
	assert.Equal(t, StatusIdle, res.Status)
	assert.Equal(t, int32(0), calls.Load())
}

func TestObserver_Fetch(t *testing.T) {
	_, o := newTestObserver(t)
	var calls atomic.Int32
	successes := make(chan any, 1)
	settled := make(chan error, 1)

	require.NoError(t, o.SetOptions("k", countingFn(&calls, 21), Options{
		Enabled:   true,
		Select:    func(data any) any { return data.(int) * 2 },
		OnSuccess: func(data any) { successes <- data },
		OnSettled: func(_ any, err error) { settled <- err },
	}))

	res := waitResult(t, o)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 42, res.Data)
	assert.Equal(t, int32(1), calls.Load())

	select {
	case data := <-successes:
		assert.Equal(t, 42, data)
	case <-time.After(time.Second):
		t.Fatal("OnSuccess not called")
	}
	select {
	case err := <-settled:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("OnSettled not called")
	}
}

func TestObserver_Error(t *testing.T) {
	_, o := newTestObserver(t)
	fetchErr := errors.New("boom")
	errs := make(chan error, 1)

	require.NoError(t, o.SetOptions("k", func(context.Context, Key) (any, error) { return nil, fetchErr }, Options{
		Enabled: true,
		OnError: func(err error) { errs <- err },
	}))

	res := waitResult(t, o)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, res.Err, fetchErr)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, fetchErr)
	case <-time.After(time.Second):
		t.Fatal("OnError not called")
	}
}

func TestObserver_Retry(t *testing.T) {
	_, o := newTestObserver(t)
	var calls atomic.Int32
	fn := func(context.Context, Key) (any, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("flaky")
		}
		return "ok", nil
	}

	require.NoError(t, o.SetOptions("k", fn, Options{Enabled: true, Retry: 2, RetryDelay: time.Millisecond}))
	assert.Eventually(t, func() bool { return o.Result().Status == StatusSuccess }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "ok", o.Result().Data)
	assert.Equal(t, int32(3), calls.Load())
}

func TestObserver_StaleKeyIsIgnored(t *testing.T) {
	c, o := newTestObserver(t)
	release := make(chan struct{})
	slow := func(context.Context, Key) (any, error) {
		<-release
		return "from-a", nil
	}
	fast := func(context.Context, Key) (any, error) { return "from-b", nil }

	require.NoError(t, o.SetOptions("a", slow, Options{Enabled: true}))
	require.NoError(t, o.SetOptions("b", fast, Options{Enabled: true}))
	res := waitResult(t, o)
	assert.Equal(t, "from-b", res.Data)

	close(release)
	assert.Eventually(t, func() bool {
		v, ok := c.GetQueryData(`"a"`)
		return ok && v == "from-a"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "from-b", o.Result().Data)
}

func TestObserver_KeepPreviousData(t *testing.T) {
	_, o := newTestObserver(t)
	release := make(chan struct{})
	defer close(release)

	require.NoError(t, o.SetOptions(1, func(context.Context, Key) (any, error) { return "one", nil }, Options{Enabled: true, KeepPreviousData: true}))
	assert.Equal(t, "one", waitResult(t, o).Data)

	require.NoError(t, o.SetOptions(2, func(context.Context, Key) (any, error) {
		<-release
		return "two", nil
	}, Options{Enabled: true, KeepPreviousData: true}))

	res := o.Result()
	assert.Equal(t, "one", res.Data)
	assert.True(t, res.IsPreviousData)
	assert.True(t, res.IsFetching)
	assert.Equal(t, StatusSuccess, res.Status)
}

func TestObserver_ManualWrite(t *testing.T) {
	c, o := newTestObserver(t)
	var successes atomic.Int32

	require.NoError(t, o.SetOptions("k", func(context.Context, Key) (any, error) { return "fetched", nil }, Options{
		Enabled:   true,
		StaleTime: time.Hour,
		OnSuccess: func(any) { successes.Add(1) },
	}))
	waitResult(t, o)
	assert.Eventually(t, func() bool { return successes.Load() == 1 }, time.Second, 5*time.Millisecond)

	c.SetQueryData(`"k"`, "k", "pushed")
	res := o.Result()
	assert.Equal(t, "pushed", res.Data)
	assert.False(t, res.IsFetching)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), successes.Load(), "manual writes do not fire callbacks")
}

func TestObserver_Refetch(t *testing.T) {
	_, o := newTestObserver(t)
	var calls atomic.Int32

	require.NoError(t, o.SetOptions("k", countingFn(&calls, "v"), Options{Enabled: true, StaleTime: time.Hour}))
	waitResult(t, o)

	res, err := o.Refetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestObserver_Read(t *testing.T) {
	t.Run("non suspending read returns immediately", func(t *testing.T) {
		_, o := newTestObserver(t)
		release := make(chan struct{})
		defer close(release)

		require.NoError(t, o.SetOptions("k", func(context.Context, Key) (any, error) {
			<-release
			return "v", nil
		}, Options{Enabled: true}))

		res, err := o.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusLoading, res.Status)
	})

	t.Run("suspending read waits", func(t *testing.T) {
		_, o := newTestObserver(t)
		require.NoError(t, o.SetOptions("k", func(context.Context, Key) (any, error) {
			time.Sleep(10 * time.Millisecond)
			return "v", nil
		}, Options{Enabled: true, Suspense: true}))

		res, err := o.Read(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, res.Status)
		assert.Equal(t, "v", res.Data)
	})

	t.Run("suspending read honours context", func(t *testing.T) {
		_, o := newTestObserver(t)
		release := make(chan struct{})
		defer close(release)
		require.NoError(t, o.SetOptions("k", func(context.Context, Key) (any, error) {
			<-release
			return "v", nil
		}, Options{Enabled: true, Suspense: true}))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := o.Read(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestObserver_Subscribe(t *testing.T) {
	_, o := newTestObserver(t)
	var mu sync.Mutex
	var statuses []Status
	unsubscribe := o.Subscribe(func(res Result) {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, res.Status)
	})
	defer unsubscribe()

	require.NoError(t, o.SetOptions("k", func(context.Context, Key) (any, error) { return "v", nil }, Options{Enabled: true}))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(statuses) > 0 && statuses[len(statuses)-1] == StatusSuccess
	}, time.Second, 5*time.Millisecond)
}

func TestObserver_RefetchCancelled(t *testing.T) {
	_, o := newTestObserver(t)
	var calls atomic.Int32
	var settled atomic.Int32

	require.NoError(t, o.SetOptions("k", countingFn(&calls, "v"), Options{
		Enabled:   true,
		StaleTime: time.Hour,
		OnSettled: func(any, error) { settled.Add(1) },
	}))
	waitResult(t, o)
	require.Eventually(t, func() bool { return settled.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := o.Refetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "v", res.Data)
	assert.False(t, res.IsFetching)
	assert.Equal(t, int32(1), calls.Load())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), settled.Load())
}

func TestObserver_CloseDuringSharedFetch(t *testing.T) {
	c := newTestClient(t, ClientOptions{})
	first := NewObserver(c, zap.NewNop())
	second := NewObserver(c, zap.NewNop())
	t.Cleanup(second.Close)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls atomic.Int32
	fn := func(ctx context.Context, _ Key) (any, error) {
		calls.Add(1)
		started <- struct{}{}
		select {
		case <-release:
			return "v", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	opts := Options{Enabled: true, StaleTime: time.Hour}

	require.NoError(t, first.SetOptions("k", fn, opts))
	<-started
	require.NoError(t, second.SetOptions("k", fn, opts))
	first.Close()
	close(release)

	res := waitResult(t, second)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "v", res.Data)
	assert.NoError(t, res.Err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestObserver_SelectRunsUnlocked(t *testing.T) {
	_, o := newTestObserver(t)
	selected := func(data any) any {
		// re-entering the observer must not deadlock
		o.Subscribe(func(Result) {})()
		return data
	}
	var notified atomic.Int32
	defer o.Subscribe(func(Result) { notified.Add(1) })()

	done := make(chan Result, 1)
	go func() {
		assert.NoError(t, o.SetOptions("k", func(context.Context, Key) (any, error) { return "v", nil }, Options{
			Enabled: true,
			Select:  selected,
		}))
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		res, err := o.Wait(ctx)
		assert.NoError(t, err)
		done <- res
	}()

	select {
	case res := <-done:
		assert.Equal(t, "v", res.Data)
	case <-time.After(time.Second):
		t.Fatal("select deadlocked the observer")
	}
	assert.Eventually(t, func() bool { return notified.Load() > 0 }, time.Second, 5*time.Millisecond)
}
