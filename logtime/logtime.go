// Package logtime parses the timestamps and durations found in maintenance
// job logs. The job writes wall-clock timestamps with no zone information, so
// values are interpreted in Location (UTC unless overridden).
package logtime

import (
	"strconv"
	"strings"
	"time"
)

var (
	// DefaultNower returns current time when called with Now() unless overridden
	DefaultNower Nower = &RealNower{}
	// Location defaults to UTC unless overridden
	Location *time.Location = time.UTC

	// layouts the job has been observed writing, most common first
	layouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"01/02/2006 15:04:05",
		"2006-01-02 15:04:05.000",
	}
)

type Nower interface {
	Now() time.Time
}

type RealNower struct{}

func (r *RealNower) Now() time.Time {
	return time.Now().UTC()
}

func Now() time.Time {
	return DefaultNower.Now()
}

// Parse attempts the known timestamp layouts in order. ok is false when none
// match; callers keep the raw string in that case.
func Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, value, Location); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ParseDuration converts the job's HH:MM:SS duration strings. Hours may
// exceed 23 for long-running rebuilds.
func ParseDuration(value string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, false
	}
	var total time.Duration
	for _, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second, true
}
