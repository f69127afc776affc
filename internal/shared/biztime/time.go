// Package biztime provides time helpers for usage accounting.
// All storage and settlement arithmetic uses UTC; hour buckets are
// wall-clock time truncated to the hour in UTC.
package biztime

import "time"

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// TruncateToHourUTC returns current time truncated to hour in UTC.
func TruncateToHourUTC() time.Time {
	return NowUTC().Truncate(time.Hour)
}

// HourBucket truncates an arbitrary time to its UTC hour boundary.
func HourBucket(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}
