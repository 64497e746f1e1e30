package alarm

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// DefaultTotal is how long the alarm stays armed before it expires.
	DefaultTotal = 60 * time.Second
	// DefaultInitialDuration is the length of the initial sustained-on window.
	DefaultInitialDuration = 10 * time.Second
	// DefaultPulsePeriod is the period of the repeating pulse.
	DefaultPulsePeriod = 5 * time.Second
	// DefaultPulseWidth is the on-portion of every pulse period.
	DefaultPulseWidth = 1 * time.Second

	// MaxTotal keeps the alarm duration well inside half the counter range,
	// so an expired alarm is always detected before the counter wraps.
	MaxTotal = time.Duration(math.MaxInt32) * time.Millisecond
)

var (
	errTotalNotPositive  = errors.New("total duration must be positive")
	errTotalTooLong      = errors.New("total duration exceeds counter range")
	errEmptyWindow       = errors.New("window end must be after its start")
	errNegativeWindow    = errors.New("window start must not be negative")
	errPeriodNotPositive = errors.New("pulse period must be positive")
	errWidthOutOfRange   = errors.New("pulse width must be within the period")
)

// Window is a sustained-on phase [Start, End) relative to the arm time.
type Window struct {
	// Name identifies the phase in logs and configuration.
	Name string
	// Start is the inclusive beginning of the window.
	Start time.Duration
	// End is the exclusive end of the window.
	End time.Duration
}

// Contains reports whether elapsed falls inside the window.
func (w Window) Contains(elapsed time.Duration) bool {
	return elapsed >= w.Start && elapsed < w.End
}

// Pulse is the repeating phase: on for Width at the start of every Period.
type Pulse struct {
	// Period is the length of one repetition.
	Period time.Duration
	// Width is how long the output stays on in each repetition.
	Width time.Duration
}

// Active reports whether elapsed falls in the on-portion of a repetition.
// A pulse without a period is never active.
func (p Pulse) Active(elapsed time.Duration) bool {
	if p.Period <= 0 {
		return false
	}

	return elapsed%p.Period < p.Width
}

// Schedule is the blink pattern of an armed alarm.
type Schedule struct {
	// Windows are the sustained-on phases, evaluated in order.
	Windows []Window
	// Pulse is the repeating phase that runs for the whole armed duration.
	Pulse Pulse
	// Total is the armed duration after which the alarm expires.
	Total time.Duration
}

// DefaultSchedule returns the stock pattern: on for the first 15 seconds,
// then a one-second pulse every five seconds until the minute is over.
func DefaultSchedule() Schedule {
	return Schedule{
		Windows: []Window{
			{
				Name:  "initial",
				Start: 0,
				End:   DefaultInitialDuration,
			},
			{
				Name:  "second",
				Start: 10 * time.Second,
				End:   15 * time.Second,
			},
		},
		Pulse: Pulse{
			Period: DefaultPulsePeriod,
			Width:  DefaultPulseWidth,
		},
		Total: DefaultTotal,
	}
}

// Validate checks the schedule for values the controller cannot honour.
func (s *Schedule) Validate() error {
	if s.Total <= 0 {
		return errTotalNotPositive
	}

	if s.Total > MaxTotal {
		return fmt.Errorf("%w: %s", errTotalTooLong, s.Total)
	}

	for _, w := range s.Windows {
		if w.Start < 0 {
			return fmt.Errorf("window %q: %w", w.Name, errNegativeWindow)
		}

		if w.End <= w.Start {
			return fmt.Errorf("window %q: %w", w.Name, errEmptyWindow)
		}
	}

	// A zero pulse disables the repeating phase.
	if s.Pulse == (Pulse{}) {
		return nil
	}

	if s.Pulse.Period <= 0 {
		return errPeriodNotPositive
	}

	if s.Pulse.Width < 0 || s.Pulse.Width > s.Pulse.Period {
		return errWidthOutOfRange
	}

	return nil
}

// Expired reports whether an alarm armed for elapsed has run its course.
// The boundary is inclusive: elapsed == Total expires.
func (s *Schedule) Expired(elapsed time.Duration) bool {
	return elapsed >= s.Total
}

// Desired returns the output the pattern asks for at elapsed.
// The phases are additive: any matching phase turns the output on.
func (s *Schedule) Desired(elapsed time.Duration) Output {
	for _, w := range s.Windows {
		if w.Contains(elapsed) {
			return On
		}
	}

	if s.Pulse.Active(elapsed) {
		return On
	}

	return Off
}

// Clone returns a copy of the schedule that shares no slices with the original.
func (s *Schedule) Clone() Schedule {
	cloned := *s
	cloned.Windows = append([]Window(nil), s.Windows...)

	return cloned
}
