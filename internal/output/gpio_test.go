package output

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-blinker/internal/domain/alarm"
)

const testRoot = "/sys/class/gpio"

// newExportedFs returns a filesystem where pin 2 is already exported.
func newExportedFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(testRoot+"/gpio2", 0o755))

	return fs
}

// readValue returns the raw level stored for pin 2.
func readValue(t *testing.T, fs afero.Fs) string {
	t.Helper()

	contents, err := afero.ReadFile(fs, testRoot+"/gpio2/value")
	require.NoError(t, err)

	return string(contents)
}

// TestOpenGPIO_ConfiguresPin verifies direction is set and the pin starts off.
func TestOpenGPIO_ConfiguresPin(t *testing.T) {
	t.Parallel()

	fs := newExportedFs(t)

	g, err := OpenGPIO(context.Background(), fs, GPIOOptions{Root: testRoot, Pin: 2})
	require.NoError(t, err)
	require.NotNil(t, g)

	direction, err := afero.ReadFile(fs, testRoot+"/gpio2/direction")
	require.NoError(t, err)
	require.Equal(t, "out", string(direction))
	require.Equal(t, "0", readValue(t, fs))

	// Pin was already exported, nothing written to export.
	exists, err := afero.Exists(fs, testRoot+"/export")
	require.NoError(t, err)
	require.False(t, exists)
}

// TestGPIO_ActiveHigh checks the level follows the state directly.
func TestGPIO_ActiveHigh(t *testing.T) {
	t.Parallel()

	fs := newExportedFs(t)

	g, err := OpenGPIO(context.Background(), fs, GPIOOptions{Root: testRoot, Pin: 2})
	require.NoError(t, err)

	g.Set(alarm.On)
	require.Equal(t, "1", readValue(t, fs))

	g.Set(alarm.Off)
	require.Equal(t, "0", readValue(t, fs))
}

// TestGPIO_ActiveLow checks the level is inverted for boards lit by a low pin.
func TestGPIO_ActiveLow(t *testing.T) {
	t.Parallel()

	fs := newExportedFs(t)

	g, err := OpenGPIO(context.Background(), fs, GPIOOptions{Root: testRoot, Pin: 2, ActiveLow: true})
	require.NoError(t, err)
	require.Equal(t, "1", readValue(t, fs))

	g.Set(alarm.On)
	require.Equal(t, "0", readValue(t, fs))

	require.NoError(t, g.Close())
	require.Equal(t, "1", readValue(t, fs))
}

// TestOpenGPIO_ExportFails reports a pin the kernel did not export.
func TestOpenGPIO_ExportFails(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()

	_, err := OpenGPIO(context.Background(), fs, GPIOOptions{Root: testRoot, Pin: 17})
	require.ErrorIs(t, err, errPinNotExported)

	exported, err := afero.ReadFile(fs, testRoot+"/export")
	require.NoError(t, err)
	require.Equal(t, "17", string(exported))
}

// TestGPIO_WriteFailureIsLogged makes sure Set never panics when the pin vanished.
func TestGPIO_WriteFailureIsLogged(t *testing.T) {
	t.Parallel()

	fs := newExportedFs(t)

	g, err := OpenGPIO(context.Background(), fs, GPIOOptions{Root: testRoot, Pin: 2})
	require.NoError(t, err)

	g.fs = afero.NewReadOnlyFs(fs)

	require.NotPanics(t, func() { g.Set(alarm.On) })
	require.Equal(t, "0", readValue(t, fs))
}

// TestLog_Set ensures the logging driver accepts every state.
func TestLog_Set(t *testing.T) {
	t.Parallel()

	l := NewLog(context.Background())

	require.NotPanics(t, func() {
		l.Set(alarm.On)
		l.Set(alarm.Off)
	})
}
