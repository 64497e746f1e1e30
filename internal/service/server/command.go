package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcapi "github.com/oshokin/alarm-blinker/internal/api/grpc/alarm"
	httpapi "github.com/oshokin/alarm-blinker/internal/api/http/alarm"
	"github.com/oshokin/alarm-blinker/internal/clock"
	"github.com/oshokin/alarm-blinker/internal/config"
	"github.com/oshokin/alarm-blinker/internal/controller"
	"github.com/oshokin/alarm-blinker/internal/logger"
	"github.com/oshokin/alarm-blinker/internal/metrics"
	"github.com/oshokin/alarm-blinker/internal/output"
	"github.com/oshokin/alarm-blinker/internal/version"
)

// Options controls the alarm-controller process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// HTTPAddress provides an optional listen address override for the HTTP endpoint.
	HTTPAddress string
	// GRPCAddress provides an optional listen address override for the gRPC server.
	GRPCAddress string

	// Clock replaces the monotonic clock when set.
	Clock clock.Source
	// Fs replaces the OS filesystem used by the GPIO driver when set.
	Fs afero.Fs
	// HTTPListener is used instead of listening on the configured address when set.
	HTTPListener net.Listener
	// GRPCListener is used instead of listening on the configured address when set.
	GRPCListener net.Listener
}

const (
	httpReadTimeout = 10 * time.Second
	httpIdleTimeout = 60 * time.Second
)

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the controller with its HTTP and gRPC endpoints and blocks until
// the context is canceled or a server fails. The output is left off on return.
//
//nolint:funlen // Linear wiring of the process components.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-controller")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	ctx, err = setupLogging(ctx, settings)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	if settings.SingleInstance {
		if err = ensureSingleInstance(listProcesses, currentExecutable(), currentPID()); err != nil {
			return err
		}
	}

	// Determine listen addresses: overrides win over configuration.
	grpcAddress, err := resolveListenAddress(settings.ServerAddress, opts.GRPCAddress)
	if err != nil {
		return fmt.Errorf("resolve grpc listen address: %w", err)
	}

	httpAddress := settings.HTTPAddress
	if opts.HTTPAddress != "" {
		httpAddress = opts.HTTPAddress
	}

	// Open the physical output before anything can arm the alarm.
	out, closeOutput, err := openOutput(ctx, settings.Output, opts.Fs)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	defer func() {
		if closeErr := closeOutput(); closeErr != nil {
			logger.ErrorKV(ctx, "Failed to release output", "error", closeErr)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	collector := metrics.New(registry)

	ctrl := controller.New(
		settings.Schedule(),
		out,
		controller.WithListener(collector.Observe),
		controller.WithListener(logEvents(ctx)),
	)

	source := opts.Clock
	if source == nil {
		source = clock.NewMonotonic()
	}

	svc := newService(ctrl, source, collector)

	httpListener, err := listen(ctx, opts.HTTPListener, httpAddress)
	if err != nil {
		return err
	}

	grpcListener, err := listen(ctx, opts.GRPCListener, grpcAddress)
	if err != nil {
		_ = httpListener.Close()

		return err
	}

	httpServer := &http.Server{
		Handler: httpapi.NewServer(svc, httpapi.Options{
			Metrics:   metrics.Handler(registry),
			AllowCORS: settings.AllowCORS,
		}).Router(),
		ReadHeaderTimeout: settings.Timeout,
		ReadTimeout:       httpReadTimeout,
		WriteTimeout:      settings.Timeout,
		IdleTimeout:       httpIdleTimeout,
		BaseContext: func(net.Listener) context.Context {
			return logger.WithName(ctx, "http")
		},
	}

	healthServer := health.NewServer()
	healthServer.SetServingStatus(grpcapi.ServiceName, healthpb.HealthCheckResponse_SERVING)

	grpcServer := grpc.NewServer()
	grpcapi.RegisterAlarmServiceServer(grpcServer, grpcapi.NewServer(svc))
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	logger.InfoKV(ctx, "Alarm controller listening",
		"version", version.Short(),
		"http_address", httpListener.Addr().String(),
		"grpc_address", grpcListener.Addr().String(),
		"output", settings.Output.Driver,
		"poll_interval", settings.PollInterval.String(),
	)

	group, groupCtx := errgroup.WithContext(ctx)

	// Canceled by shutdown once the transports stopped.
	loopCtx, stopLoop := context.WithCancel(context.WithoutCancel(ctx))
	defer stopLoop()

	group.Go(func() error {
		svc.run(loopCtx, settings.PollInterval)

		return nil
	})

	group.Go(func() error {
		if serveErr := httpServer.Serve(httpListener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", serveErr)
		}

		return nil
	})

	group.Go(func() error {
		if serveErr := grpcServer.Serve(grpcListener); serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", serveErr)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info(ctx, "Shutting down servers")

		shutdown(ctx, settings.Timeout, healthServer, httpServer, grpcServer, stopLoop)

		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	logger.Info(ctx, "Alarm controller stopped")

	return nil
}

// shutdown stops the transports, waits for in-flight requests and only then
// stops the poll loop, which leaves the alarm disarmed.
func shutdown(
	ctx context.Context,
	timeout time.Duration,
	healthServer *health.Server,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	stopLoop context.CancelFunc,
) {
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.ErrorKV(ctx, "HTTP server shutdown failed", "error", err)
	}

	grpcServer.GracefulStop()
	stopLoop()
}

// setupLogging applies the configured level and, if requested, attaches a
// rotating file sink to the logger carried by ctx.
func setupLogging(ctx context.Context, settings *config.Config) (context.Context, error) {
	// Validated by config.Validate.
	level, _ := logger.ParseLogLevel(settings.LogLevel)
	logger.SetLevel(level)

	if settings.LogFile == "" {
		return ctx, nil
	}

	fileLogger, err := logger.NewWithFile(logger.AtomicLevel(), logger.FileOptions{Path: settings.LogFile})
	if err != nil {
		return nil, err
	}

	return logger.ToContext(ctx, fileLogger.Named("alarm-controller")), nil
}

// openOutput creates the configured driver and a function releasing it.
//
//nolint:ireturn // The driver is chosen at runtime.
func openOutput(ctx context.Context, settings config.Output, fs afero.Fs) (controller.Output, func() error, error) {
	switch settings.Driver {
	case config.DriverGPIO:
		if fs == nil {
			fs = afero.NewOsFs()
		}

		gpio, err := output.OpenGPIO(ctx, fs, output.GPIOOptions{
			Root:      settings.GPIORoot,
			Pin:       settings.Pin,
			ActiveLow: settings.ActiveLow,
		})
		if err != nil {
			return nil, nil, err
		}

		return gpio, gpio.Close, nil
	default:
		return output.NewLog(ctx), func() error { return nil }, nil
	}
}

// listen returns the injected listener or binds address.
func listen(ctx context.Context, injected net.Listener, address string) (net.Listener, error) {
	if injected != nil {
		return injected, nil
	}

	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	return lis, nil
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	// Use override address if provided (e.g., ":9090", "0.0.0.0:8080").
	if override != "" {
		return override, nil
	}

	// Extract port from config address (e.g., "controller.local:50051" -> ":50051").
	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	// Parse the address to extract port.
	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	// Return port-only listen address to bind on all interfaces.
	return ":" + port, nil
}
