// Package guard makes a create call happen at most once per key, no matter
// how many times or how concurrently it is triggered.
package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateCreated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateCreated:
		return "created"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const DefaultMaxRetries = 1

var (
	ErrFailed           = errors.New("submission failed")
	ErrRetryNotAllowed  = errors.New("retry is only possible after a failed submission")
	ErrRetriesExhausted = errors.New("no retries left for this submission")
	ErrCreatePanicked   = errors.New("create call panicked")
)

// FailedError is returned for every call made after the create call failed,
// until Retry is invoked.
type FailedError struct {
	Cause       error
	RetriesLeft int
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("submission failed: %v", e.Cause)
}

func (e *FailedError) Is(target error) bool {
	return target == ErrFailed
}

func (e *FailedError) Unwrap() error {
	return e.Cause
}

// Submission is the state of one guarded create call.
type Submission[T any] struct {
	mu         sync.Mutex
	state      State
	result     T
	err        error
	done       chan struct{}
	retries    int
	maxRetries int
	attempts   int
}

func New[T any](maxRetries int) *Submission[T] {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Submission[T]{maxRetries: maxRetries}
}

// Do runs validate and then create, unless a create call has already been
// started. Callers arriving while a call is in flight wait for it and share
// its result. A validation error leaves the submission idle. create runs
// with a context that is not cancelled when ctx is.
func (s *Submission[T]) Do(ctx context.Context, validate func() error, create func(context.Context) (T, error)) (T, error) {
	var zero T
	for {
		s.mu.Lock()
		switch s.state {
		case StateCreated:
			res := s.result
			s.mu.Unlock()
			return res, nil
		case StateFailed:
			err := s.failedLocked()
			s.mu.Unlock()
			return zero, err
		case StateValidating, StateSubmitting:
			done := s.done
			s.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		s.state = StateValidating
		done := make(chan struct{})
		s.done = done
		s.mu.Unlock()

		if validate != nil {
			if err := validate(); err != nil {
				s.mu.Lock()
				s.state = StateIdle
				close(done)
				s.mu.Unlock()
				return zero, err
			}
		}

		s.mu.Lock()
		s.state = StateSubmitting
		s.attempts++
		s.mu.Unlock()

		return s.runCreate(ctx, done, create)
	}
}

// runCreate calls create and records its result. If create panics the
// submission is marked failed and waiters are released before the panic
// continues up the stack.
func (s *Submission[T]) runCreate(ctx context.Context, done chan struct{}, create func(context.Context) (T, error)) (T, error) {
	settled := false
	defer func() {
		if settled {
			return
		}
		s.mu.Lock()
		s.state = StateFailed
		s.err = ErrCreatePanicked
		close(done)
		s.mu.Unlock()
	}()

	res, err := create(context.WithoutCancel(ctx))
	settled = true

	s.mu.Lock()
	defer s.mu.Unlock()
	close(done)
	if err != nil {
		s.state = StateFailed
		s.err = err
		var zero T
		return zero, s.failedLocked()
	}
	s.state = StateCreated
	s.result = res
	return res, nil
}

// Retry moves a failed submission back to idle so the next Do calls create
// again. It is the only way out of the failed state.
func (s *Submission[T]) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFailed {
		return ErrRetryNotAllowed
	}
	if s.retries >= s.maxRetries {
		return ErrRetriesExhausted
	}
	s.retries++
	s.state = StateIdle
	s.err = nil
	return nil
}

func (s *Submission[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the created value, if any.
func (s *Submission[T]) Result() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.state == StateCreated
}

// Attempts counts create calls started so far.
func (s *Submission[T]) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

func (s *Submission[T]) failedLocked() error {
	return &FailedError{Cause: s.err, RetriesLeft: s.maxRetries - s.retries}
}
