package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-blinker/internal/config"
	"github.com/oshokin/alarm-blinker/internal/service/server"
	"github.com/oshokin/alarm-blinker/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// grpcAddress overrides the gRPC listen address.
	grpcAddress string

	// rootCmd represents the base command for running the alarm controller.
	rootCmd = &cobra.Command{
		Use:   "alarm-controller [http-listen-address]",
		Short: "Run the alarm controller and drive the blinker.",
		Long: `Starts the alarm controller that arms, disarms and blinks the alarm output.

The controller accepts commands over HTTP (GET /alarm?alarm=true|false) and gRPC.
After arming, the output follows the configured blink pattern until the alarm
is disarmed or the total alarm duration passes.

The HTTP listen address can be provided as argument to override config (e.g., :8080).
Only the port from ServerAddress config is used for the gRPC listener unless
--grpc-addr is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var httpAddress string
			if len(args) > 0 {
				httpAddress = args[0]
			}

			return server.Run(ctx, &server.Options{
				ConfigPath:  configPath,
				HTTPAddress: httpAddress,
				GRPCAddress: grpcAddress,
			})
		},
	}
)

// Execute runs the alarm-controller CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&grpcAddress, "grpc-addr", "g", "", "gRPC listen address override")
}
