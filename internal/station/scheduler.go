package station

import "time"

// Scheduler gates the periodic sample-and-publish cycle. It holds no timer
// of its own: callers poll Tick from a non-blocking loop and act when it
// fires. A stall longer than several periods collapses into a single next
// fire; ticks are time-gated, never counted or queued.
type Scheduler struct {
	period time.Duration
	last   time.Time
}

// NewScheduler creates a scheduler that fires once per period. The first
// Tick after creation fires immediately.
func NewScheduler(period time.Duration) *Scheduler {
	return &Scheduler{period: period}
}

// Tick reports whether a period has elapsed since the last fire. On true it
// resets the reference timestamp to now; on false it has no side effect.
func (s *Scheduler) Tick(now time.Time) bool {
	if !s.last.IsZero() && now.Sub(s.last) < s.period {
		return false
	}
	s.last = now
	return true
}
