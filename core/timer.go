package core

import "time"

// Clock supplies time to code that waits on hardware, so tests can observe
// delays instead of sleeping through them.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep pauses for d.
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// DurationMS converts a millisecond count from configuration into a Duration.
func DurationMS(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
