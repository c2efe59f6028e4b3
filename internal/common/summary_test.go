package common

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]time.Duration{3 * time.Millisecond, time.Millisecond, 2 * time.Millisecond})

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 3*time.Millisecond, s.Max)
	assert.Equal(t, 6*time.Millisecond, s.Total)
	assert.Equal(t, 2*time.Millisecond, s.Mean())
	assert.Equal(t, "3 intervals, avg: 2ms, min: 1ms, max: 3ms, total: 6ms", s.String())
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	assert.Equal(t, Summary{}, s)
	assert.Equal(t, time.Duration(0), s.Mean())
	assert.Equal(t, "no intervals", s.String())
}

func TestSummarizeZeroIntervals(t *testing.T) {
	s := Summarize([]time.Duration{0, 5})
	assert.Equal(t, time.Duration(0), s.Min)
	assert.Equal(t, time.Duration(5), s.Max)
}

// TestSummarize_MeanWithinBounds verifies min <= mean <= max for any series.
func TestSummarize_MeanWithinBounds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("mean lies between min and max", prop.ForAll(
		func(ms []int64) bool {
			durations := make([]time.Duration, len(ms))
			for i, v := range ms {
				durations[i] = time.Duration(v) * time.Millisecond
			}
			s := Summarize(durations)
			if s.Count != len(ms) {
				return false
			}
			if s.Count == 0 {
				return s.Mean() == 0
			}
			return s.Min <= s.Mean() && s.Mean() <= s.Max
		},
		gen.SliceOf(gen.Int64Range(0, 3_600_000)),
	))

	properties.TestingRun(t)
}
