// Package timeutil normalizes record timestamps to microseconds since epoch.
package timeutil

import (
	"fmt"
	"strconv"
	"time"
)

// baseTime anchors unit detection: any timestamp integer larger in magnitude
// than this instant, expressed in a given unit, is assumed to carry a finer
// unit than that one.
var baseTime = time.Date(1971, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	baseNanos  = baseTime.UnixNano()
	baseMicros = baseTime.UnixNano() / 1000
	baseMillis = baseTime.UnixNano() / 1_000_000
)

// NowMicros returns the current time in microseconds since epoch.
func NowMicros() int64 {
	return time.Now().UnixNano() / 1000
}

// NormalizeInt converts an integer timestamp of unknown unit (seconds,
// milliseconds, microseconds, or nanoseconds) to microseconds since epoch by
// comparing its magnitude against a fixed anchor instant. Zero means "now".
func NormalizeInt(v int64) int64 {
	if v == 0 {
		return NowMicros()
	}
	switch {
	case v > baseNanos:
		return v / 1000
	case v > baseMicros:
		return v
	case v > baseMillis:
		return v * 1000
	default:
		return v * 1_000_000
	}
}

// NormalizeFloat truncates a float timestamp to an integer and normalizes it.
func NormalizeFloat(v float64) int64 {
	return NormalizeInt(int64(v))
}

// NormalizeString parses a string timestamp. It is tried, in order, as: a
// bare integer/float, "2006-01-02 15:04:05", "2006-01-02T15:04:05", RFC3339,
// then RFC1123Z (RFC2822-equivalent).
func NormalizeString(s string) (int64, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NormalizeInt(i), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return NormalizeFloat(f), nil
	}
	t, err := parseTimeString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp string %q: %w", s, err)
	}
	return t.UnixNano() / 1000, nil
}

const (
	layoutSpace = "2006-01-02 15:04:05"
	layoutT     = "2006-01-02T15:04:05"
)

func parseTimeString(s string) (time.Time, error) {
	hasSpace := containsRune(s, ' ')
	hasT := containsRune(s, 'T')

	switch {
	case hasSpace && len(s) == len(layoutSpace):
		return time.ParseInLocation(layoutSpace, s, time.UTC)
	case hasT && !hasSpace:
		if len(s) == len(layoutT) {
			return time.ParseInLocation(layoutT, s, time.UTC)
		}
		return time.Parse(time.RFC3339, s)
	default:
		return time.Parse(time.RFC1123Z, s)
	}
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}

// PartitionKey buckets a normalized microsecond timestamp into its calendar
// hour, formatted "YYYY-MM-DD-HH", used as the partition component of a
// segment's storage path.
func PartitionKey(microsSinceEpoch int64) string {
	t := time.Unix(0, microsSinceEpoch*1000).UTC()
	return t.Format("2006-01-02-15")
}
