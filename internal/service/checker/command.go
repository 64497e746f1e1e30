package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/oshokin/alarm-blinker/internal/config"
	domain "github.com/oshokin/alarm-blinker/internal/domain/alarm"
	"github.com/oshokin/alarm-blinker/internal/logger"
	"github.com/oshokin/alarm-blinker/internal/service/common"
)

// Options controls the checker polling behavior and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// PollInterval defines the interval between alarm state checks.
	PollInterval time.Duration
}

// DefaultPollInterval defines the polling interval for alarm state checks.
const DefaultPollInterval = 5 * time.Second

// stateGetter is the part of the gRPC client used to read the state.
type stateGetter interface {
	GetAlarmState(ctx context.Context, actor *domain.Actor) (*domain.Status, error)
}

// Run polls alarm state until the context is canceled and logs every change.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-checker")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	// Determine server address: command line argument overrides config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Detect current system actor for audit logging.
	actor, err := common.DetectActor()
	if err != nil {
		return fmt.Errorf("detect actor: %w", err)
	}

	// Establish gRPC connection with timeout from configuration.
	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("dial server: %w", err)
	}

	// Ensure connection cleanup on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.InfoKV(ctx, "Polling alarm state", "server_address", serverAddress, "interval", pollInterval.String())

	watch(ctx, client, actor, pollInterval)

	return nil
}

// watch polls client every interval until ctx is canceled.
func watch(ctx context.Context, client stateGetter, actor *domain.Actor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *domain.Status

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Context canceled, exiting")

			return
		case <-ticker.C:
			status, err := client.GetAlarmState(ctx, actor)
			if err != nil {
				logger.ErrorKV(ctx, "Check state failed", "error", err)

				continue
			}

			if changed(last, status) {
				logger.InfoKV(ctx, "Alarm state changed",
					"alarm", status.State().String(),
					"blinker", status.Output.String(),
					"elapsed_seconds", status.ElapsedSeconds,
					"last_actor", status.LastActor.String(),
				)
			}

			last = status
		}
	}
}

// changed reports whether current differs from previous in armed or output state.
// The first observation always counts as a change.
func changed(previous, current *domain.Status) bool {
	if previous == nil {
		return true
	}

	return previous.Armed != current.Armed || previous.Output != current.Output
}
