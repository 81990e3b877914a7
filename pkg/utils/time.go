package utils

import "time"

// Now returns the current UTC time. Every timestamp this service writes or
// compares goes through here so rows never mix timezones.
func Now() time.Time {
	return time.Now().UTC()
}

// FormatISO8601 renders t as an RFC3339 string in UTC.
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
