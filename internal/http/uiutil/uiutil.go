// Package uiutil holds presentation helpers shared by templates and handlers.
package uiutil

import (
	"strconv"
	"time"
)

const FriendlyDateTimeLayout = "Jan 2, 2006 3:04 PM"

// FriendlyRelativeTime returns a human-friendly description of how long ago t occurred.
// Times in the future are treated as "just now" to avoid confusing negative durations.
func FriendlyRelativeTime(t time.Time) string {
	return relativeTo(t, time.Now())
}

func relativeTo(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	default:
		return FormatFriendlyDateTime(t)
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return strconv.Itoa(n) + " " + unit + "s ago"
}

// FormatFriendlyDateTime returns a consistent, user-friendly local timestamp representation.
func FormatFriendlyDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(FriendlyDateTimeLayout)
}
