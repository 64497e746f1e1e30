package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions controls the rotating log file sink.
type FileOptions struct {
	// Path is the log file location. Empty disables the file sink.
	Path string
	// MaxSizeMB is the size a file may reach before it is rotated.
	MaxSizeMB int
	// MaxBackups is how many rotated files are kept.
	MaxBackups int
	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays int
}

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 5
	defaultMaxAgeDays = 14

	logDirPermissions = 0o750
)

// NewWithFile creates a logger writing to stdout and, when opts.Path is set,
// to a rotating JSON log file as well.
func NewWithFile(level zapcore.LevelEnabler, opts FileOptions, options ...zap.Option) (*zap.SugaredLogger, error) {
	if level == nil {
		level = defaultLevel
	}

	if opts.Path == "" {
		return New(level, options...), nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), logDirPermissions); err != nil {
		return nil, err
	}

	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = defaultMaxSizeMB
	}

	if opts.MaxBackups <= 0 {
		opts.MaxBackups = defaultMaxBackups
	}

	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = defaultMaxAgeDays
	}

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	})

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		newConsoleCore(level),
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), writer, level),
	)

	return zap.New(core, options...).Sugar(), nil
}
