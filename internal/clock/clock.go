package clock

import (
	"sync"
	"time"

	"github.com/aristanetworks/goarista/monotime"
)

// Timestamp is a reading of the wrapping millisecond counter.
type Timestamp uint32

// Sub returns the milliseconds elapsed from start to t modulo 2^32.
// A reading taken after the counter wrapped still yields a small positive value.
func (t Timestamp) Sub(start Timestamp) uint32 {
	return uint32(t - start)
}

// Since returns the wraparound-safe time elapsed from start to now.
func Since(start, now Timestamp) time.Duration {
	return time.Duration(now.Sub(start)) * time.Millisecond
}

// Source supplies monotonically non-decreasing timestamps.
type Source interface {
	Now() Timestamp
}

// Monotonic counts milliseconds since its construction using the
// runtime monotonic clock. It is immune to wall clock adjustments.
type Monotonic struct {
	// origin is the monotonic nanosecond reading taken at construction.
	origin uint64
}

// NewMonotonic creates a source that reads zero at construction time.
func NewMonotonic() *Monotonic {
	return &Monotonic{
		origin: monotime.Now(),
	}
}

// Now returns the milliseconds elapsed since construction, truncated to 32 bits.
func (m *Monotonic) Now() Timestamp {
	elapsed := monotime.Now() - m.origin

	return Timestamp(elapsed / uint64(time.Millisecond))
}

// Manual is a deterministic source for tests. It only moves when told to.
type Manual struct {
	mu      sync.Mutex
	current Timestamp
}

// NewManual creates a manual source set to the provided reading.
func NewManual(start Timestamp) *Manual {
	return &Manual{
		current: start,
	}
}

// Now returns the current reading.
func (m *Manual) Now() Timestamp {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current
}

// Set moves the source to the provided reading.
func (m *Manual) Set(t Timestamp) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = t
}

// Advance moves the source forward by d, wrapping like the real counter.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current += Timestamp(d / time.Millisecond)
}

var (
	_ Source = (*Monotonic)(nil)
	_ Source = (*Manual)(nil)
)
