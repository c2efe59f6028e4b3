package rendezvous

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Record is one measured interval as written by End.
type Record struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// Interval returns End-Start, or zero if the stamps are out of order.
func (r Record) Interval() time.Duration {
	if r.End < r.Start {
		return 0
	}
	return time.Duration(r.End - r.Start)
}

// EpochNanos converts t to nanoseconds since the Unix epoch at microsecond
// resolution (seconds*1e9 + microseconds*1000).
func EpochNanos(t time.Time) uint64 {
	return uint64(t.UnixMicro()) * uint64(time.Microsecond)
}

// WriteRecord writes r as a single line: {"start": S, "end": E}.
func WriteRecord(w io.Writer, r Record) error {
	_, err := fmt.Fprintf(w, "{\"start\": %d, \"end\": %d}\n", r.Start, r.End)
	return err
}

// ReadRecords parses every non-blank line of r as a Record.
func ReadRecords(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
