package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("embedding server returned 503")

// flakyCall fails the first failures attempts with err.
func flakyCall(failures int, err error) (func() error, *int) {
	attempts := 0
	return func() error {
		attempts++
		if attempts <= failures {
			return err
		}
		return nil
	}, &attempts
}

func TestRetryWithBackoff(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		err          error
		maxAttempts  int
		wantErr      error
		wantAttempts int
	}{
		{name: "first try", failures: 0, maxAttempts: 3, wantAttempts: 1},
		{name: "recovers", failures: 2, err: errUpstream, maxAttempts: 5, wantAttempts: 3},
		{name: "exhausted", failures: 10, err: errUpstream, maxAttempts: 3, wantErr: errUpstream, wantAttempts: 3},
		{name: "single attempt", failures: 1, err: errUpstream, maxAttempts: 1, wantErr: errUpstream, wantAttempts: 1},
		{name: "zero attempts", maxAttempts: 0, wantErr: ErrInvalidMaxAttempts, wantAttempts: 0},
		{name: "negative attempts", maxAttempts: -1, wantErr: ErrInvalidMaxAttempts, wantAttempts: 0},
		{
			name:         "deadline from call",
			failures:     10,
			err:          fmt.Errorf("embed batch: %w", context.DeadlineExceeded),
			maxAttempts:  5,
			wantErr:      context.DeadlineExceeded,
			wantAttempts: 1,
		},
		{
			name:         "cancel from call",
			failures:     10,
			err:          fmt.Errorf("embed batch: %w", context.Canceled),
			maxAttempts:  5,
			wantErr:      context.Canceled,
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call, attempts := flakyCall(tt.failures, tt.err)
			err := RetryWithBackoff(context.Background(), call, tt.maxAttempts, time.Millisecond)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantAttempts, *attempts)
		})
	}
}

func TestRetryWithBackoff_CancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	call := func() error {
		attempts++
		cancel()
		return errUpstream
	}

	err := RetryWithBackoff(ctx, call, 10, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_DeadlineDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	call, attempts := flakyCall(100, errUpstream)
	err := RetryWithBackoff(ctx, call, 100, 25*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, *attempts, 100)
}

func TestRetryWithBackoff_DelaysGrow(t *testing.T) {
	var stamps []time.Time
	call := func() error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 4 {
			return errUpstream
		}
		return nil
	}

	require.NoError(t, RetryWithBackoff(context.Background(), call, 5, 10*time.Millisecond))
	require.Len(t, stamps, 4)

	// 10ms, 20ms, 40ms
	for i := 1; i < len(stamps); i++ {
		want := (10 * time.Millisecond) << (i - 1)
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), want)
	}
}

func TestNextDelay(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextDelay(time.Second))
	assert.Equal(t, MaxRetryDelay, nextDelay(20*time.Second))
	assert.Equal(t, MaxRetryDelay, nextDelay(MaxRetryDelay))
}
