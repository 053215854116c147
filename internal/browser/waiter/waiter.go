// File: internal/browser/waiter/waiter.go
// Attempt-count-based condition polling. The poller never measures
// elapsed wall-clock time: the budget is ceil(timeout/interval) sleeps,
// so the effective wait is always exactly attempts*interval, which may
// round above or below the nominal timeout.
package waiter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Defaults applied when a Spec leaves a field zero.
const (
	DefaultTimeout  = 5 * time.Second
	DefaultInterval = 500 * time.Millisecond
)

// ErrTimeout is the sentinel matched by errors.Is when a wait exhausts
// its attempt budget. The concrete error is always a *TimeoutError.
var ErrTimeout = errors.New("condition not met within attempt budget")

// TimeoutError carries the diagnostics of an exhausted wait.
type TimeoutError struct {
	// Evaluations is the total number of times the condition ran,
	// including the immediate first check.
	Evaluations int
	Timeout     time.Duration
	Interval    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("wait timed out: condition false after %d evaluations (timeout %v, interval %v)",
		e.Evaluations, e.Timeout, e.Interval)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// Spec describes one wait invocation. It is immutable per call; zero
// fields take the package defaults.
type Spec struct {
	Timeout  time.Duration
	Interval time.Duration
}

func (s Spec) withDefaults() Spec {
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	if s.Interval <= 0 {
		s.Interval = DefaultInterval
	}
	return s
}

// attempts is the sleep budget: ceil(timeout/interval), minimum 1.
func (s Spec) attempts() int {
	n := int(math.Ceil(s.Timeout.Seconds() / s.Interval.Seconds()))
	if n < 1 {
		n = 1
	}
	return n
}

// Condition is a strict-boolean predicate. There is no truthiness here:
// implementations decide what counts as true before returning. An error
// aborts the wait immediately and is never retried, since a failing
// driver call is not a transiently false condition.
type Condition func(ctx context.Context) (bool, error)

// Until polls cond until it returns true or the attempt budget runs out.
// The condition is evaluated once immediately; each remaining attempt is
// one interval sleep followed by one evaluation. On exhaustion the error
// is a *TimeoutError (errors.Is(err, ErrTimeout)). Context cancellation
// interrupts the sleep and surfaces ctx.Err().
func Until(ctx context.Context, spec Spec, cond Condition) error {
	spec = spec.withDefaults()

	ok, err := cond(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	attempts := spec.attempts()
	for i := 0; i < attempts; i++ {
		if err := sleep(ctx, spec.Interval); err != nil {
			return err
		}
		ok, err := cond(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}

	return &TimeoutError{
		Evaluations: attempts + 1,
		Timeout:     spec.Timeout,
		Interval:    spec.Interval,
	}
}

// sleep blocks for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
