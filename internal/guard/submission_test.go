package guard

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

func TestSubmission_ConcurrentCallsCreateOnce(t *testing.T) {
	s := New[int](DefaultMaxRetries)
	var calls int32
	release := make(chan struct{})

	create := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	const n = 50
	var wg sync.WaitGroup
	results := make([]int, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Do(context.Background(), nil, create)
		}(i)
	}

	require.Eventually(t, func() bool { return s.State() == StateSubmitting }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for i := 0; i < n; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, 42, results[i])
	}
	assert.Equal(t, StateCreated, s.State())
}

func TestSubmission_CreatedReturnsCachedResult(t *testing.T) {
	s := New[string](DefaultMaxRetries)
	calls := 0
	create := func(context.Context) (string, error) {
		calls++
		return "booking-1", nil
	}

	for i := 0; i < 3; i++ {
		res, err := s.Do(context.Background(), nil, create)
		require.NoError(t, err)
		assert.Equal(t, "booking-1", res)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.Attempts())
}

func TestSubmission_ValidationErrorStaysIdle(t *testing.T) {
	s := New[int](DefaultMaxRetries)
	invalid := errors.New("missing email")
	created := false

	_, err := s.Do(context.Background(), func() error { return invalid }, func(context.Context) (int, error) {
		created = true
		return 1, nil
	})

	assert.ErrorIs(t, err, invalid)
	assert.False(t, created)
	assert.Equal(t, StateIdle, s.State())

	res, err := s.Do(context.Background(), func() error { return nil }, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, res)
}

func TestSubmission_FailureIsNotRetriedAutomatically(t *testing.T) {
	s := New[int](1)
	boom := errors.New("db down")
	calls := 0
	create := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, boom
		}
		return 5, nil
	}

	_, err := s.Do(context.Background(), nil, create)
	assert.ErrorIs(t, err, ErrFailed)
	assert.ErrorIs(t, err, boom)

	_, err = s.Do(context.Background(), nil, create)
	var ferr *FailedError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, 1, ferr.RetriesLeft)
	assert.Equal(t, 1, calls)

	require.NoError(t, s.Retry())
	res, err := s.Do(context.Background(), nil, create)
	require.NoError(t, err)
	assert.Equal(t, 5, res)
	assert.Equal(t, 2, calls)

	assert.ErrorIs(t, s.Retry(), ErrRetryNotAllowed)
}

func TestSubmission_RetriesExhausted(t *testing.T) {
	s := New[int](1)
	fail := func(context.Context) (int, error) { return 0, errors.New("nope") }

	_, _ = s.Do(context.Background(), nil, fail)
	require.NoError(t, s.Retry())
	_, _ = s.Do(context.Background(), nil, fail)

	assert.ErrorIs(t, s.Retry(), ErrRetriesExhausted)
	assert.Equal(t, StateFailed, s.State())
}

func TestSubmission_CallerCancellationDoesNotAbortCreate(t *testing.T) {
	s := New[int](DefaultMaxRetries)
	ctx, cancel := context.WithCancel(context.Background())

	res, err := s.Do(ctx, nil, func(c context.Context) (int, error) {
		cancel()
		if c.Err() != nil {
			return 0, c.Err()
		}
		return 9, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9, res)
}

func TestSubmission_WaiterHonoursItsOwnContext(t *testing.T) {
	s := New[int](DefaultMaxRetries)
	release := make(chan struct{})
	go func() {
		_, _ = s.Do(context.Background(), nil, func(context.Context) (int, error) {
			<-release
			return 1, nil
		})
	}()
	require.Eventually(t, func() bool { return s.State() == StateSubmitting }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := s.Do(ctx, nil, func(context.Context) (int, error) {
		t.Fatal("waiter must not create")
		return 0, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.Eventually(t, func() bool { return s.State() == StateCreated }, time.Second, time.Millisecond)
}

func TestRegistry_KeysAreIndependent(t *testing.T) {
	r := NewRegistry[int](DefaultMaxRetries)
	a := r.For("draft-a")
	assert.Same(t, a, r.For("draft-a"))

	_, _ = a.Do(context.Background(), nil, func(context.Context) (int, error) { return 0, errors.New("x") })
	res, err := r.For("draft-b").Do(context.Background(), nil, func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.Equal(t, 2, res)
	assert.Equal(t, 2, r.Len())

	r.Forget("draft-a")
	_, ok := r.Lookup("draft-a")
	assert.False(t, ok)
	assert.Equal(t, StateIdle, r.For("draft-a").State())
}

func TestSubmission_PanicInCreateReleasesWaiters(t *testing.T) {
	s := New[int](1)
	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		defer func() { _ = recover() }()
		_, _ = s.Do(context.Background(), nil, func(context.Context) (int, error) {
			close(entered)
			<-release
			panic("driver bug")
		})
	}()
	<-entered

	waiterErr := make(chan error, 1)
	go func() {
		_, err := s.Do(context.Background(), nil, func(context.Context) (int, error) { return 1, nil })
		waiterErr <- err
	}()
	close(release)

	select {
	case err := <-waiterErr:
		assert.ErrorIs(t, err, ErrFailed)
		assert.ErrorIs(t, err, ErrCreatePanicked)
	case <-time.After(time.Second):
		t.Fatal("waiter still blocked after create panicked")
	}
	assert.Equal(t, StateFailed, s.State())

	require.NoError(t, s.Retry())
	res, err := s.Do(context.Background(), nil, func(context.Context) (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, res)
}

func TestSubmission_PanicPropagatesToCaller(t *testing.T) {
	s := New[int](DefaultMaxRetries)
	assert.Panics(t, func() {
		_, _ = s.Do(context.Background(), nil, func(context.Context) (int, error) { panic("boom") })
	})
	assert.Equal(t, StateFailed, s.State())
}

func TestRegistry_ForgetSettledKeepsInFlightGuards(t *testing.T) {
	r := NewRegistry[int](DefaultMaxRetries)
	release := make(chan struct{})
	busy := r.For("busy")
	go func() {
		_, _ = busy.Do(context.Background(), nil, func(context.Context) (int, error) {
			<-release
			return 1, nil
		})
	}()
	require.Eventually(t, func() bool { return busy.State() == StateSubmitting }, time.Second, time.Millisecond)

	_, _ = r.For("done").Do(context.Background(), nil, func(context.Context) (int, error) { return 2, nil })
	assert.ElementsMatch(t, []string{"busy", "done"}, r.Keys())

	assert.False(t, r.ForgetSettled("busy"))
	assert.True(t, r.ForgetSettled("done"))
	assert.False(t, r.ForgetSettled("missing"))
	assert.Equal(t, []string{"busy"}, r.Keys())

	close(release)
	require.Eventually(t, func() bool { return busy.State() == StateCreated }, time.Second, time.Millisecond)
	assert.True(t, r.ForgetSettled("busy"))
	assert.Equal(t, 0, r.Len())
}
