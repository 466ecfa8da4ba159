package utils

import "time"

// Timestamps are stored as unix seconds in UTC.
func FromUnixSeconds(t int64) time.Time {
	if t <= 0 {
		return time.Time{}
	}
	return time.Unix(t, 0).UTC()
}

// FormatDisplay renders a stored timestamp for the HTML pages; zero renders as "".
func FormatDisplay(t int64) string {
	tm := FromUnixSeconds(t)
	if tm.IsZero() {
		return ""
	}
	return tm.Format("2006-01-02 15:04 UTC")
}

// ExpiresAt returns the unix second at which something issued at now with lifetime d expires.
func ExpiresAt(now time.Time, d time.Duration) int64 {
	return now.Add(d).Unix()
}
