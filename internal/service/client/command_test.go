package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-blinker/internal/domain/alarm"
)

var errTestUnavailable = errors.New("controller unavailable")

// flakySetter fails a number of times before confirming the requested state.
type flakySetter struct {
	mu       sync.Mutex
	failures int
	calls    int
}

// SetAlarmState records the call and fails until failures are used up.
func (f *flakySetter) SetAlarmState(_ context.Context, actor *domain.Actor, isEnabled bool) (*domain.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.failures {
		return nil, errTestUnavailable
	}

	return &domain.Status{Armed: isEnabled, LastActor: actor.Clone()}, nil
}

// Calls returns how many times SetAlarmState was invoked.
func (f *flakySetter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

var testActor = &domain.Actor{Hostname: "desk", Username: "o.shokin"}

// TestPush_ConfirmsImmediately checks the first successful call ends the push.
func TestPush_ConfirmsImmediately(t *testing.T) {
	t.Parallel()

	setter := new(flakySetter)

	require.NoError(t, push(context.Background(), setter, testActor, true, time.Second))
	require.Equal(t, 1, setter.Calls())
}

// TestPush_RetriesUntilConfirmed verifies failures are retried on the interval.
func TestPush_RetriesUntilConfirmed(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		setter := &flakySetter{failures: 3}
		start := time.Now()

		require.NoError(t, push(t.Context(), setter, testActor, false, time.Second))
		require.Equal(t, 4, setter.Calls())
		require.Equal(t, 3*time.Second, time.Since(start))
	})
}

// TestPush_StopsOnCancel ensures cancellation ends the retry loop.
func TestPush_StopsOnCancel(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		setter := &flakySetter{failures: 1 << 30}

		ctx, cancel := context.WithTimeout(t.Context(), 2500*time.Millisecond)
		defer cancel()

		err := push(ctx, setter, testActor, true, time.Second)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, 3, setter.Calls())
	})
}

// TestFormatState checks the human readable status line.
func TestFormatState(t *testing.T) {
	t.Parallel()

	require.Equal(t, "<nil state>", formatState(nil))
	require.Equal(t,
		"enabled by o.shokin@desk (blinker on, 7s since last alarm)",
		formatState(&domain.Status{Armed: true, Output: domain.On, ElapsedSeconds: 7, LastActor: testActor}),
	)
	require.Equal(t,
		"disabled by <unknown> (blinker off, 0s since last alarm)",
		formatState(&domain.Status{}),
	)
}
