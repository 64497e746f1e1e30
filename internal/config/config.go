package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/alarm-blinker/internal/domain/alarm"
	"github.com/oshokin/alarm-blinker/internal/logger"
)

// Config holds the settings shared by the alarm binaries.
type Config struct {
	// ServerAddress is the gRPC address of the controller.
	ServerAddress string `yaml:"server_addr"`
	// HTTPAddress is the listen address of the HTTP control endpoint.
	HTTPAddress string `yaml:"http_addr"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// PollInterval is how often the controller advances the blink pattern.
	PollInterval time.Duration `yaml:"poll_interval"`
	// LogLevel is the minimum level of emitted log messages.
	LogLevel string `yaml:"log_level"`
	// LogFile enables a rotating JSON log file when set.
	LogFile string `yaml:"log_file"`
	// AllowCORS lets browser pages on other origins call the HTTP endpoint.
	AllowCORS bool `yaml:"allow_cors"`
	// SingleInstance refuses to start when another controller is running.
	SingleInstance bool `yaml:"single_instance"`
	// Output selects and configures the output driver.
	Output Output `yaml:"output"`
	// Alarm is the blink pattern.
	Alarm Alarm `yaml:"alarm"`
}

// Output configures the physical output driver.
type Output struct {
	// Driver is either "log" or "gpio".
	Driver string `yaml:"driver"`
	// GPIORoot is the sysfs GPIO directory.
	GPIORoot string `yaml:"gpio_root"`
	// Pin is the GPIO number driving the light/buzzer.
	Pin int `yaml:"pin"`
	// ActiveLow lights the output when the pin is driven low.
	ActiveLow bool `yaml:"active_low"`
}

// Window is a sustained-on phase in the YAML schedule.
type Window struct {
	// Name identifies the phase.
	Name string `yaml:"name"`
	// Start is the inclusive beginning of the phase relative to arm time.
	Start time.Duration `yaml:"start"`
	// End is the exclusive end of the phase relative to arm time.
	End time.Duration `yaml:"end"`
}

// Pulse is the repeating phase in the YAML schedule.
type Pulse struct {
	// Period is the length of one repetition.
	Period time.Duration `yaml:"period"`
	// Width is the on-portion of each repetition.
	Width time.Duration `yaml:"width"`
}

// Alarm is the YAML form of the blink schedule.
type Alarm struct {
	// Total is how long the alarm stays armed.
	Total time.Duration `yaml:"total"`
	// Windows are the sustained-on phases.
	Windows []Window `yaml:"windows"`
	// Pulse is the repeating phase.
	Pulse Pulse `yaml:"pulse"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "alarm-blinker-settings.yaml"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultPollInterval is the default controller tick.
	DefaultPollInterval = 50 * time.Millisecond

	// DefaultHTTPAddress is the default HTTP listen address.
	DefaultHTTPAddress = ":8080"

	// DefaultLogLevel is used when log_level is empty.
	DefaultLogLevel = "info"

	// DefaultGPIORoot is the standard sysfs GPIO directory.
	DefaultGPIORoot = "/sys/class/gpio"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

const (
	// DriverLog only logs output changes.
	DriverLog = "log"
	// DriverGPIO drives a sysfs GPIO pin.
	DriverGPIO = "gpio"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errUnknownDriver is returned for an output driver that does not exist.
	errUnknownDriver = errors.New("unknown output driver")
	// errInvalidPin is returned for a negative GPIO number.
	errInvalidPin = errors.New("gpio pin must not be negative")
	// errUnknownLogLevel is returned for a level ParseLogLevel does not know.
	errUnknownLogLevel = errors.New("unknown log level")
	// errPollTooSlow is returned when the tick cannot resolve the pulse.
	errPollTooSlow = errors.New("poll interval must be shorter than the pulse width")
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		ServerAddress: "127.0.0.1:50051",
	}

	// Defaults never fail validation.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting.
// Missing optional values are filled with defaults.
//
//nolint:cyclop // Flat list of independent checks.
func Validate(settings *Config) error {
	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.HTTPAddress == "" {
		settings.HTTPAddress = DefaultHTTPAddress
	}

	if _, _, err := net.SplitHostPort(settings.HTTPAddress); err != nil {
		return fmt.Errorf("invalid http address: %w", err)
	}

	// Set default timeout if not specified
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.PollInterval <= 0 {
		settings.PollInterval = DefaultPollInterval
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	if err := validateOutput(&settings.Output); err != nil {
		return err
	}

	applyAlarmDefaults(&settings.Alarm)

	schedule := settings.Schedule()
	if err := schedule.Validate(); err != nil {
		return fmt.Errorf("invalid alarm schedule: %w", err)
	}

	if schedule.Pulse.Width > 0 && settings.PollInterval >= schedule.Pulse.Width {
		return fmt.Errorf("%w: %s >= %s", errPollTooSlow, settings.PollInterval, schedule.Pulse.Width)
	}

	return nil
}

// Schedule converts the YAML alarm section into the domain schedule.
func (c *Config) Schedule() alarm.Schedule {
	windows := make([]alarm.Window, 0, len(c.Alarm.Windows))
	for _, w := range c.Alarm.Windows {
		windows = append(windows, alarm.Window{
			Name:  w.Name,
			Start: w.Start,
			End:   w.End,
		})
	}

	return alarm.Schedule{
		Windows: windows,
		Pulse: alarm.Pulse{
			Period: c.Alarm.Pulse.Period,
			Width:  c.Alarm.Pulse.Width,
		},
		Total: c.Alarm.Total,
	}
}

// validateOutput fills driver defaults and rejects unknown drivers.
func validateOutput(output *Output) error {
	if output.Driver == "" {
		output.Driver = DriverLog
	}

	switch output.Driver {
	case DriverLog:
		return nil
	case DriverGPIO:
		if output.GPIORoot == "" {
			output.GPIORoot = DefaultGPIORoot
		}

		if output.Pin < 0 {
			return errInvalidPin
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", errUnknownDriver, output.Driver)
	}
}

// applyAlarmDefaults fills an empty alarm section with the stock pattern.
// A section that sets any value is taken as is, except a missing total.
// Windows without a pulse leave the pulse phase disabled.
func applyAlarmDefaults(section *Alarm) {
	defaults := alarm.DefaultSchedule()

	if section.Total <= 0 {
		section.Total = defaults.Total
	}

	if len(section.Windows) == 0 && section.Pulse == (Pulse{}) {
		for _, w := range defaults.Windows {
			section.Windows = append(section.Windows, Window{
				Name:  w.Name,
				Start: w.Start,
				End:   w.End,
			})
		}

		section.Pulse = Pulse{
			Period: defaults.Pulse.Period,
			Width:  defaults.Pulse.Width,
		}
	}
}
