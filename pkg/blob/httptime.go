package blob

import (
	"net/http"
	"time"
)

// FormatHTTPDate renders a time as an RFC 1123 date in GMT, the format used
// by Last-Modified, Date and the conditional request headers.
func FormatHTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

// ParseHTTPDate parses an RFC 1123 date as sent in conditional headers.
func ParseHTTPDate(s string) (time.Time, error) {
	return http.ParseTime(s)
}

// FormatSnapshotTime renders a time as a snapshot identifier.
func FormatSnapshotTime(t time.Time) string {
	return t.UTC().Format(SnapshotTimeFormat)
}

// ParseSnapshotTime parses a snapshot identifier back into a time.
func ParseSnapshotTime(s string) (time.Time, error) {
	return time.Parse(SnapshotTimeFormat, s)
}
