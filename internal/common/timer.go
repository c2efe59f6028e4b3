// Package common provides shared clock and stopwatch utilities.
package common

import (
	"fmt"
	"time"
)

// Clock returns the current wall-clock time.
type Clock func() time.Time

// SystemClock is the Clock backed by time.Now.
func SystemClock() time.Time {
	return time.Now()
}

// Stopwatch measures one named wait, such as a blocked handshake.
type Stopwatch struct {
	clock    Clock
	name     string
	start    time.Time
	duration time.Duration
	stopped  bool
}

// StartStopwatch starts a stopwatch on the given clock. A nil clock means
// SystemClock.
func StartStopwatch(name string, clock Clock) *Stopwatch {
	if clock == nil {
		clock = SystemClock
	}
	return &Stopwatch{clock: clock, name: name, start: clock()}
}

// Stop freezes and returns the elapsed duration. Later calls return the
// frozen value.
func (s *Stopwatch) Stop() time.Duration {
	if !s.stopped {
		s.duration = s.clock().Sub(s.start)
		if s.duration < 0 {
			s.duration = 0
		}
		s.stopped = true
	}
	return s.duration
}

// Duration returns the elapsed time so far, or the frozen value after Stop.
func (s *Stopwatch) Duration() time.Duration {
	if s.stopped {
		return s.duration
	}
	return s.clock().Sub(s.start)
}

// Name returns the stopwatch name.
func (s *Stopwatch) Name() string {
	return s.name
}

func (s *Stopwatch) String() string {
	if s.name != "" {
		return fmt.Sprintf("%s: %v", s.name, s.Duration())
	}
	return s.Duration().String()
}
