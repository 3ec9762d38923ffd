package clock

import "time"

// Clock abstracts wall time so due-date logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func System() Clock { return systemClock{} }

// Fixed returns a clock pinned to t. Advance it by swapping the value.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }
