package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-blinker/internal/config"
	"github.com/oshokin/alarm-blinker/internal/service/checker"
	"github.com/oshokin/alarm-blinker/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// interval between status polls.
	interval time.Duration

	// rootCmd represents the base command for polling alarm state.
	rootCmd = &cobra.Command{
		Use:   "alarm-checker [server-address]",
		Short: "Monitor the alarm and log state changes.",
		Long: `Background service that watches the alarm controller.

Polls the controller at a fixed interval (5 seconds by default) and logs every
change of the alarm or blinker state together with who changed it last.
Uses timeout and server settings from configuration file.
Server address can be provided as argument or loaded from configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use server address argument if provided, otherwise rely on config.
			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			return checker.Run(ctx, &checker.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				PollInterval:  interval,
			})
		},
	}
)

// Execute runs the alarm-checker CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", checker.DefaultPollInterval, "interval between status polls")
}
