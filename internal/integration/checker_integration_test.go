package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/alarm-blinker/internal/domain/alarm"
	"github.com/oshokin/alarm-blinker/internal/service/checker"
	"github.com/oshokin/alarm-blinker/internal/service/common"
)

// TestChecker_PollsAndReturnsOnCancel runs the checker against a live controller and cancels it.
func TestChecker_PollsAndReturnsOnCancel(t *testing.T) {
	t.Parallel()

	// Setup test environment with a running controller.
	grpcAddr := reservePort(t)
	httpAddr := reservePort(t)

	stop := startController(t, grpcAddr, httpAddr)
	defer stop()

	ctx := context.Background()

	// Connect to the test server.
	c, err := common.Dial(ctx, grpcAddr)
	require.NoError(t, err)

	defer func() {
		_ = c.Close()
	}()

	actor := &domain.Actor{
		Hostname: "test-host",
		Username: "test-user",
	}

	_, err = c.SetAlarmState(ctx, actor, true)
	require.NoError(t, err)

	// Setup cancellable context for checker.
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	cfgPath := writeSettings(t, grpcAddr, httpAddr)

	go func() {
		done <- checker.Run(runCtx, &checker.Options{
			ConfigPath:   cfgPath,
			PollInterval: 50 * time.Millisecond,
		})
	}()

	// Wait for checker to start polling, then cancel.
	time.Sleep(120 * time.Millisecond)
	cancel()

	// Verify checker exits cleanly on cancellation.
	require.NoError(t, <-done)
}
