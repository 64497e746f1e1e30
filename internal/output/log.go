package output

import (
	"context"

	"github.com/oshokin/alarm-blinker/internal/domain/alarm"
	"github.com/oshokin/alarm-blinker/internal/logger"
)

// Log is a driver without hardware: it only reports output changes.
type Log struct {
	// ctx carries the logger the driver writes to.
	ctx context.Context //nolint:containedctx // Set is called from the controller without a context.
}

// NewLog creates a logging driver using the logger stored in ctx.
func NewLog(ctx context.Context) *Log {
	return &Log{
		ctx: logger.WithName(ctx, "output"),
	}
}

// Set logs the new output state.
func (l *Log) Set(state alarm.Output) {
	logger.InfoKV(l.ctx, "Blinker state changed", "state", state.String())
}
