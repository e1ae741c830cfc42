package sign

import "time"

// SAS timestamp layouts, most specific first. Clients routinely send plain
// UTC timestamps without an offset, and some send date-only values.
var sasTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04Z",
	"2006-01-02",
}

func parseSASTime(s string) (time.Time, bool) {
	for _, layout := range sasTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
