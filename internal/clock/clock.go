package clock

import "time"

// Clock is the time source used when stamping tickets.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f().UTC()
}

// NewSystem returns a clock backed by time.Now, normalized to UTC.
func NewSystem() Clock {
	return Func(time.Now)
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) Clock {
	return Func(func() time.Time { return t })
}
