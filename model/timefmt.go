package model

import (
	"fmt"
	"time"
)

// FormatRelativeTime renders the compact age used across the app:
// "now", "12m", "5h", "3d", then "Jan 2" for anything a week or older.
func FormatRelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	default:
		return t.Format("Jan 2")
	}
}
