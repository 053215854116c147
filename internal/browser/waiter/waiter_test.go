// File: internal/browser/waiter/waiter_test.go
package waiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counting wraps a condition and records how many times it ran.
func counting(results ...bool) (*int, Condition) {
	calls := new(int)
	return calls, func(ctx context.Context) (bool, error) {
		i := *calls
		*calls++
		if i < len(results) {
			return results[i], nil
		}
		return false, nil
	}
}

func TestUntil_ImmediateSuccessSkipsSleeping(t *testing.T) {
	calls, cond := counting(true)

	start := time.Now()
	err := Until(context.Background(), Spec{Timeout: time.Hour, Interval: time.Hour}, cond)

	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
	assert.Less(t, time.Since(start), time.Second, "a passing first check must not sleep")
}

func TestUntil_SucceedsMidway(t *testing.T) {
	calls, cond := counting(false, false, true)

	err := Until(context.Background(), Spec{Timeout: 50 * time.Millisecond, Interval: 5 * time.Millisecond}, cond)

	require.NoError(t, err)
	assert.Equal(t, 3, *calls)
}

func TestUntil_ExhaustionEvaluationCount(t *testing.T) {
	// ceil(20ms / 6ms) = 4 sleeps, plus the immediate check = 5 evaluations.
	calls, cond := counting()

	err := Until(context.Background(), Spec{Timeout: 20 * time.Millisecond, Interval: 6 * time.Millisecond}, cond)

	require.Error(t, err)
	assert.Equal(t, 5, *calls)

	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 5, te.Evaluations)
	assert.Equal(t, 20*time.Millisecond, te.Timeout)
	assert.Equal(t, 6*time.Millisecond, te.Interval)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestUntil_IntervalLargerThanTimeout(t *testing.T) {
	// The sleep budget never drops below one attempt, so a never-true
	// condition runs exactly twice: once immediately, once after a sleep.
	calls, cond := counting()

	err := Until(context.Background(), Spec{Timeout: time.Millisecond, Interval: 10 * time.Millisecond}, cond)

	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 2, *calls)
}

func TestUntil_ConditionErrorAbortsImmediately(t *testing.T) {
	boom := errors.New("element query failed")
	calls := 0
	cond := func(ctx context.Context) (bool, error) {
		calls++
		return false, boom
	}

	err := Until(context.Background(), Spec{Timeout: time.Second, Interval: time.Millisecond}, cond)

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "an erroring condition must not be retried")
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestUntil_ContextCancellationInterruptsSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cond := func(ctx context.Context) (bool, error) {
		cancel()
		return false, nil
	}

	start := time.Now()
	err := Until(ctx, Spec{Timeout: time.Hour, Interval: time.Hour}, cond)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestUntil_ZeroSpecUsesDefaults(t *testing.T) {
	calls, cond := counting(true)

	err := Until(context.Background(), Spec{}, cond)

	require.NoError(t, err)
	assert.Equal(t, 1, *calls)
}

func TestSpecAttempts(t *testing.T) {
	cases := []struct {
		name string
		spec Spec
		want int
	}{
		{"exact multiple", Spec{Timeout: time.Second, Interval: 250 * time.Millisecond}, 4},
		{"rounds up", Spec{Timeout: time.Second, Interval: 300 * time.Millisecond}, 4},
		{"interval exceeds timeout", Spec{Timeout: 100 * time.Millisecond, Interval: time.Second}, 1},
		{"equal", Spec{Timeout: time.Second, Interval: time.Second}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.spec.attempts())
		})
	}
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := &TimeoutError{Evaluations: 11, Timeout: 5 * time.Second, Interval: 500 * time.Millisecond}
	assert.Contains(t, err.Error(), "11 evaluations")
	assert.Contains(t, err.Error(), "5s")
	assert.Contains(t, err.Error(), "500ms")
}
