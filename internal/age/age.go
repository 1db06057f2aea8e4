// Package age formats elapsed time for tables.
package age

import (
	"fmt"
	"time"
)

// Since returns how long ago the Unix timestamp (in seconds) was, relative
// to now. Timestamps in the future count as zero.
func Since(unixSeconds int64, now time.Time) time.Duration {
	elapsed := now.Sub(time.Unix(unixSeconds, 0))
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Format renders a duration using the largest whole unit among s, m, h
// and d.
func Format(duration time.Duration) string {
	if duration < 0 {
		duration = 0
	}
	seconds := int64(duration.Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 60*60:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds < 24*60*60:
		return fmt.Sprintf("%dh", seconds/(60*60))
	default:
		return fmt.Sprintf("%dd", seconds/(24*60*60))
	}
}
