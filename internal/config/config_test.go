package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-blinker/internal/domain/alarm"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing socket.
	settings := new(Config)

	err := Validate(settings)
	require.Error(t, err)

	// Bad socket.
	settings = &Config{
		ServerAddress: "bad:address",
	}

	err = Validate(settings)
	require.Error(t, err)

	// Unknown driver.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
		Output:        Output{Driver: "relay"},
	}

	err = Validate(settings)
	require.ErrorIs(t, err, errUnknownDriver)

	// Unknown log level.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
		LogLevel:      "chatty",
	}

	err = Validate(settings)
	require.ErrorIs(t, err, errUnknownLogLevel)

	// Tick too coarse for the pulse.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
		PollInterval:  2 * time.Second,
	}

	err = Validate(settings)
	require.ErrorIs(t, err, errPollTooSlow)

	// Okay with defaults.
	settings = &Config{
		ServerAddress: "127.0.0.1:0",
	}

	err = Validate(settings)
	require.NoError(t, err)
}

// TestValidate_Defaults ensures empty optional fields are filled with defaults.
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	cfg := Default()

	require.Equal(t, DefaultHTTPAddress, cfg.HTTPAddress)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, DefaultPollInterval, cfg.PollInterval)
	require.Equal(t, DefaultLogLevel, cfg.LogLevel)
	require.Equal(t, DriverLog, cfg.Output.Driver)
	require.Equal(t, alarm.DefaultSchedule(), cfg.Schedule())

	gpio := &Config{
		ServerAddress: "127.0.0.1:0",
		Output:        Output{Driver: DriverGPIO, Pin: 2},
	}

	require.NoError(t, Validate(gpio))
	require.Equal(t, DefaultGPIORoot, gpio.Output.GPIORoot)
}

// TestValidate_CustomSchedule keeps a configured pattern and rejects a broken one.
func TestValidate_CustomSchedule(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		ServerAddress: "127.0.0.1:0",
		Alarm: Alarm{
			Total: 30 * time.Second,
			Windows: []Window{
				{Name: "initial", Start: 0, End: 5 * time.Second},
			},
			Pulse: Pulse{Period: 2 * time.Second, Width: 500 * time.Millisecond},
		},
	}

	require.NoError(t, Validate(cfg))

	schedule := cfg.Schedule()
	require.Equal(t, 30*time.Second, schedule.Total)
	require.Len(t, schedule.Windows, 1)
	require.Equal(t, alarm.On, schedule.Desired(4*time.Second))
	require.Equal(t, alarm.Off, schedule.Desired(5*time.Second+600*time.Millisecond))

	cfg.Alarm.Windows[0].End = 0
	require.Error(t, Validate(cfg))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		ServerAddress: "127.0.0.1:50051",
		HTTPAddress:   "0.0.0.0:8081",
		PollInterval:  20 * time.Millisecond,
		Output: Output{
			Driver:    DriverGPIO,
			Pin:       2,
			ActiveLow: true,
		},
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ServerAddress, loaded.ServerAddress)
	require.Equal(t, settings.HTTPAddress, loaded.HTTPAddress)
	require.Equal(t, settings.PollInterval, loaded.PollInterval)
	require.Equal(t, settings.Output, loaded.Output)
	require.Equal(t, settings.Schedule(), loaded.Schedule())

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestLoad_HandWrittenYAML parses durations written the way operators write them.
func TestLoad_HandWrittenYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := `
server_addr: 127.0.0.1:50051
poll_interval: 25ms
alarm:
  total: 2m
  windows:
    - name: initial
      start: 0s
      end: 20s
  pulse:
    period: 10s
    width: 2s
`

	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 25*time.Millisecond, cfg.PollInterval)
	require.Equal(t, 2*time.Minute, cfg.Alarm.Total)
	require.Equal(t, 20*time.Second, cfg.Alarm.Windows[0].End)
	require.Equal(t, 10*time.Second, cfg.Alarm.Pulse.Period)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// TestLoad_WindowsWithoutPulse accepts a pattern made of windows only.
func TestLoad_WindowsWithoutPulse(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	contents := `
server_addr: 127.0.0.1:50051
alarm:
  windows:
    - name: initial
      start: 0s
      end: 10s
`

	require.NoError(t, os.WriteFile(path, []byte(contents), DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)

	schedule := cfg.Schedule()
	require.Equal(t, alarm.DefaultTotal, schedule.Total)
	require.Equal(t, alarm.Pulse{}, schedule.Pulse)
	require.Equal(t, alarm.On, schedule.Desired(9*time.Second))
	require.Equal(t, alarm.Off, schedule.Desired(20*time.Second))
}
