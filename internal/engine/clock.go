package engine

import "time"

// Clock supplies the timestamps stamped on statistics and waiting records.
//
// Thread-safety: implementations must be safe for concurrent use; per-draft
// work runs on several goroutines.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock {
	return ClockFunc(func() time.Time { return time.Now().UTC() })
}
