package common

import (
	"fmt"
	"time"
)

// Summary aggregates a series of measured intervals.
type Summary struct {
	Count int
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
}

// Summarize folds durations into a Summary. An empty input yields the zero value.
func Summarize(durations []time.Duration) Summary {
	var s Summary
	for i, d := range durations {
		if i == 0 || d < s.Min {
			s.Min = d
		}
		if d > s.Max {
			s.Max = d
		}
		s.Total += d
		s.Count++
	}
	return s
}

// Mean returns the average interval, or zero for an empty summary.
func (s Summary) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// String returns a formatted string representation of the summary.
func (s Summary) String() string {
	if s.Count == 0 {
		return "no intervals"
	}
	return fmt.Sprintf("%d intervals, avg: %v, min: %v, max: %v, total: %v",
		s.Count, s.Mean(), s.Min, s.Max, s.Total)
}
