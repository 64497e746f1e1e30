package alarm

import (
	"errors"
	"fmt"
)

// Command is an accepted alarm control request.
type Command int

const (
	// Arm starts (or restarts) the alarm pattern.
	Arm Command = iota + 1
	// Disarm stops the alarm and turns the output off.
	Disarm
)

const (
	// ArmValue is the literal that arms the alarm.
	ArmValue = "true"
	// DisarmValue is the literal that disarms the alarm.
	DisarmValue = "false"
)

// ErrUnknownCommand is returned for any value other than ArmValue or DisarmValue.
var ErrUnknownCommand = errors.New("unknown alarm command")

// ParseCommand maps the textual "alarm" argument to a Command.
// Only the exact literals "true" and "false" are accepted.
func ParseCommand(value string) (Command, error) {
	switch value {
	case ArmValue:
		return Arm, nil
	case DisarmValue:
		return Disarm, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCommand, value)
	}
}

// String returns the literal the command is parsed from.
func (c Command) String() string {
	switch c {
	case Arm:
		return ArmValue
	case Disarm:
		return DisarmValue
	default:
		return "unknown"
	}
}
