package alarm

// State is the armed/disarmed status of the alarm.
type State int

const (
	// Disabled means the alarm is not running its pattern.
	Disabled State = iota
	// Enabled means the alarm is armed and the blink pattern is running.
	Enabled
)

// String returns a human-readable form of the state.
func (s State) String() string {
	if s == Enabled {
		return "enabled"
	}

	return "disabled"
}

// Output is the logical state of the binary output.
// Physical polarity is up to the output driver.
type Output int

const (
	// Off means the light/buzzer is not active.
	Off Output = iota
	// On means the light/buzzer is active.
	On
)

// String returns a human-readable form of the output.
func (o Output) String() string {
	if o == On {
		return "on"
	}

	return "off"
}

// Actor identifies who issued an alarm command.
type Actor struct {
	// Hostname is the machine name (or remote address) the command came from.
	Hostname string
	// Username is the system user who issued the command, if known.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as username@hostname.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	if a.Username == "" {
		return a.Hostname
	}

	return a.Username + "@" + a.Hostname
}

// Status is a diagnostic snapshot of the alarm.
type Status struct {
	// LastActor is who issued the last accepted command, nil if nobody did.
	LastActor *Actor
	// Armed reports whether the alarm is enabled.
	Armed bool
	// Output is the current logical output state.
	Output Output
	// ElapsedSeconds is the time since the alarm was last armed.
	// It keeps counting after a disarm because the arm time is never cleared.
	ElapsedSeconds uint32
}

// Clone returns a copy of the status to avoid leaking internal references.
func (s *Status) Clone() *Status {
	return &Status{
		LastActor:      s.LastActor.Clone(),
		Armed:          s.Armed,
		Output:         s.Output,
		ElapsedSeconds: s.ElapsedSeconds,
	}
}

// State returns the alarm state the snapshot describes.
func (s *Status) State() State {
	if s.Armed {
		return Enabled
	}

	return Disabled
}
