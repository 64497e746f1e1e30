package output

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/spf13/afero"

	"github.com/oshokin/alarm-blinker/internal/domain/alarm"
	"github.com/oshokin/alarm-blinker/internal/logger"
)

const (
	// gpioFilePermissions matches what the kernel exposes for sysfs attributes.
	gpioFilePermissions = 0o644

	directionOut = "out"
	levelHigh    = "1"
	levelLow     = "0"
)

// errPinNotExported is returned when the pin directory did not appear after export.
var errPinNotExported = errors.New("gpio pin is not exported")

// GPIOOptions configures a sysfs GPIO driver.
type GPIOOptions struct {
	// Root is the sysfs GPIO directory, usually /sys/class/gpio.
	Root string
	// Pin is the GPIO number.
	Pin int
	// ActiveLow lights the output when the pin is driven low.
	ActiveLow bool
}

// GPIO drives a Linux sysfs GPIO pin.
type GPIO struct {
	// fs is the filesystem holding the sysfs tree.
	fs afero.Fs
	// ctx carries the logger write failures are reported to.
	ctx context.Context //nolint:containedctx // Set is called from the controller without a context.
	// valuePath is the pin's value attribute.
	valuePath string
	// activeLow inverts the written level.
	activeLow bool
}

// OpenGPIO exports the pin if needed, configures it as an output and
// drives it to the Off level.
func OpenGPIO(ctx context.Context, fs afero.Fs, opts GPIOOptions) (*GPIO, error) {
	pinDirectory := path.Join(opts.Root, "gpio"+strconv.Itoa(opts.Pin))

	exists, err := afero.DirExists(fs, pinDirectory)
	if err != nil {
		return nil, fmt.Errorf("stat gpio pin: %w", err)
	}

	if !exists {
		exportPath := path.Join(opts.Root, "export")
		if err = afero.WriteFile(fs, exportPath, []byte(strconv.Itoa(opts.Pin)), gpioFilePermissions); err != nil {
			return nil, fmt.Errorf("export gpio pin: %w", err)
		}

		if exists, err = afero.DirExists(fs, pinDirectory); err != nil || !exists {
			return nil, fmt.Errorf("%w: %d", errPinNotExported, opts.Pin)
		}
	}

	directionPath := path.Join(pinDirectory, "direction")
	if err = afero.WriteFile(fs, directionPath, []byte(directionOut), gpioFilePermissions); err != nil {
		return nil, fmt.Errorf("set gpio direction: %w", err)
	}

	g := &GPIO{
		fs:        fs,
		ctx:       logger.WithKV(logger.WithName(ctx, "gpio"), "pin", opts.Pin),
		valuePath: path.Join(pinDirectory, "value"),
		activeLow: opts.ActiveLow,
	}

	if err = g.write(alarm.Off); err != nil {
		return nil, fmt.Errorf("reset gpio pin: %w", err)
	}

	return g, nil
}

// Set drives the pin to the level matching state.
// Failures are logged because the controller cannot act on them.
func (g *GPIO) Set(state alarm.Output) {
	if err := g.write(state); err != nil {
		logger.ErrorKV(g.ctx, "Failed to write gpio value", "state", state.String(), "error", err)

		return
	}

	logger.DebugKV(g.ctx, "Blinker state changed", "state", state.String())
}

// Close drives the pin to the Off level.
func (g *GPIO) Close() error {
	return g.write(alarm.Off)
}

// level returns the pin level for state, honouring the polarity.
func (g *GPIO) level(state alarm.Output) string {
	if (state == alarm.On) != g.activeLow {
		return levelHigh
	}

	return levelLow
}

// write stores the level in the value attribute.
func (g *GPIO) write(state alarm.Output) error {
	file, err := g.fs.OpenFile(g.valuePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, gpioFilePermissions)
	if err != nil {
		return err
	}

	if _, err = file.WriteString(g.level(state)); err != nil {
		_ = file.Close()

		return err
	}

	return file.Close()
}
