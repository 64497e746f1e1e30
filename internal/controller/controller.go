package controller

import (
	"sync"
	"time"

	"github.com/oshokin/alarm-blinker/internal/clock"
	"github.com/oshokin/alarm-blinker/internal/domain/alarm"
)

// Output drives the physical light/buzzer.
// The controller calls Set only when the logical state actually changes.
type Output interface {
	Set(state alarm.Output)
}

// EventKind tells what happened inside the controller.
type EventKind int

const (
	// EventArmed is emitted by every Arm call, including re-arms.
	EventArmed EventKind = iota + 1
	// EventDisarmed is emitted by every Disarm call.
	EventDisarmed
	// EventExpired is emitted when Poll disarms an alarm that ran its course.
	EventExpired
	// EventOutputChanged is emitted after the output primitive was invoked.
	EventOutputChanged
)

// String returns a short name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventArmed:
		return "armed"
	case EventDisarmed:
		return "disarmed"
	case EventExpired:
		return "expired"
	case EventOutputChanged:
		return "output_changed"
	default:
		return "unknown"
	}
}

// Event describes a state transition.
type Event struct {
	// Kind is what happened.
	Kind EventKind
	// Output is the output state after the event.
	Output alarm.Output
	// Elapsed is the time since arm for events raised by Poll, zero otherwise.
	Elapsed time.Duration
}

// Listener receives events synchronously while the controller lock is held.
// It must not call back into the controller.
type Listener func(Event)

// Option configures a Controller.
type Option func(*Controller)

// WithListener subscribes l to controller events.
func WithListener(l Listener) Option {
	return func(c *Controller) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

// Controller is the alarm state machine. The zero value is not usable; call New.
type Controller struct {
	// output is the debounced physical output.
	output Output
	// listeners observe transitions.
	listeners []Listener
	// schedule maps elapsed time to the desired output.
	schedule alarm.Schedule

	// mu makes Arm, Disarm, Poll and Status one critical section.
	mu sync.Mutex
	// state is the armed status.
	state alarm.State
	// startedAt is the last arm time. It is never cleared on disarm.
	startedAt clock.Timestamp
	// current is the last state written to output.
	current alarm.Output
}

// New creates a disarmed controller with the output off.
// The output is assumed to be off already; drivers force it off when opened.
func New(schedule alarm.Schedule, output Output, opts ...Option) *Controller {
	c := &Controller{
		output:   output,
		schedule: schedule.Clone(),
		state:    alarm.Disabled,
		current:  alarm.Off,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Arm enables the alarm at now and turns the output on.
// Re-arming an armed alarm restarts the whole pattern.
func (c *Controller) Arm(now clock.Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = alarm.Enabled
	c.startedAt = now

	c.setOutput(alarm.On, 0)
	c.emit(EventArmed, 0)
}

// Disarm disables the alarm and turns the output off.
// It is safe to call on a disarmed alarm.
func (c *Controller) Disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.disarm(EventDisarmed, 0)
}

// Poll advances the pattern to now. It does nothing while disarmed.
// Expiry takes precedence over every phase.
func (c *Controller) Poll(now clock.Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != alarm.Enabled {
		return
	}

	elapsed := clock.Since(c.startedAt, now)

	if c.schedule.Expired(elapsed) {
		c.disarm(EventExpired, elapsed)

		return
	}

	c.setOutput(c.schedule.Desired(elapsed), elapsed)
}

// Status returns a diagnostic snapshot at now.
// While disarmed, ElapsedSeconds is the age of the last arm.
func (c *Controller) Status(now clock.Timestamp) alarm.Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return alarm.Status{
		Armed:          c.state == alarm.Enabled,
		Output:         c.current,
		ElapsedSeconds: now.Sub(c.startedAt) / uint32(time.Second/time.Millisecond),
	}
}

// Schedule returns a copy of the pattern the controller runs.
func (c *Controller) Schedule() alarm.Schedule {
	return c.schedule.Clone()
}

// disarm switches to Disabled and forces the output off. Caller holds mu.
func (c *Controller) disarm(kind EventKind, elapsed time.Duration) {
	c.state = alarm.Disabled

	c.setOutput(alarm.Off, elapsed)
	c.emit(kind, elapsed)
}

// setOutput writes state to the output only when it differs from the current one.
func (c *Controller) setOutput(state alarm.Output, elapsed time.Duration) {
	if c.current == state {
		return
	}

	c.current = state
	c.output.Set(state)
	c.emit(EventOutputChanged, elapsed)
}

// emit notifies listeners. Caller holds mu.
func (c *Controller) emit(kind EventKind, elapsed time.Duration) {
	if len(c.listeners) == 0 {
		return
	}

	event := Event{
		Kind:    kind,
		Output:  c.current,
		Elapsed: elapsed,
	}

	for _, l := range c.listeners {
		l(event)
	}
}
