package kernel

import "time"

// Clock returns the current time. Handlers and providers take one so tests
// can pin time.
type Clock func() time.Time

// SystemClock reports wall-clock time in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// FixedClock always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
