package client

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/alarm-blinker/internal/config"
	domain "github.com/oshokin/alarm-blinker/internal/domain/alarm"
	"github.com/oshokin/alarm-blinker/internal/logger"
	"github.com/oshokin/alarm-blinker/internal/service/common"
)

// Options configures alarm client behavior for state change operations.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// DesiredState represents target alarm state (true=armed, false=disarmed).
	DesiredState bool
}

// stateSetter is the part of the gRPC client used to push a state.
type stateSetter interface {
	SetAlarmState(ctx context.Context, actor *domain.Actor, isEnabled bool) (*domain.Status, error)
}

// defaultPushInterval defines retry delay when pushing alarm state to server.
const defaultPushInterval = 1 * time.Second

// Run attempts to set alarm state with retry logic until success or cancellation.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-button-on/off")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	// Connect to alarm controller with timeout from config.
	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(
		ctx,
		"Pushing desired alarm state",
		"server_address",
		serverAddress,
		"desired_state",
		opts.DesiredState,
	)

	return push(ctx, client, actor, opts.DesiredState, defaultPushInterval)
}

// push sends the desired state every interval until the controller confirms it.
func push(ctx context.Context, client stateSetter, actor *domain.Actor, desired bool, interval time.Duration) error {
	// attempt tries once to change alarm state and reports whether it is confirmed.
	attempt := func() bool {
		status, err := client.SetAlarmState(ctx, actor, desired)
		if err != nil {
			// Log error but continue retrying for transient failures.
			logger.ErrorKV(ctx, "SetAlarmState failed", "error", err)

			return false
		}

		if status == nil || status.Armed != desired {
			return false
		}

		logger.Infof(ctx, "Alarm updated: %s", formatState(status))

		return true
	}

	// Attempt immediately before starting retry loop.
	if attempt() {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if attempt() {
				return nil
			}
		}
	}
}

// formatState converts an alarm status to a readable log message.
func formatState(status *domain.Status) string {
	if status == nil {
		return "<nil state>"
	}

	return fmt.Sprintf("%s by %s (blinker %s, %ds since last alarm)",
		status.State(), status.LastActor, status.Output, status.ElapsedSeconds)
}
