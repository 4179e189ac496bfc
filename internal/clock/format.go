package clock

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/agent-platform/tools/tzcompare/internal/settings"
)

// Layout returns the time layout for the given preferences.
func Layout(s settings.Settings) string {
	switch {
	case s.Use24HourFormat && s.ShowSeconds:
		return "15:04:05"
	case s.Use24HourFormat:
		return "15:04"
	case s.ShowSeconds:
		return "03:04:05 PM"
	default:
		return "03:04 PM"
	}
}

// FormatTime formats t's wall-clock time per the preferences.
func FormatTime(t time.Time, s settings.Settings) string {
	return t.Format(Layout(s))
}

// FormatDate formats t's calendar day, e.g. "Sun, 15 Feb".
func FormatDate(t time.Time) string {
	return t.Format("Mon, 02 Jan")
}

// FormatOffset formats a UTC offset in hours as "UTC+05:30".
func FormatOffset(hours float64) string {
	sign := "+"
	if hours < 0 {
		sign = "-"
		hours = -hours
	}
	mins := int(math.Round(hours * 60))
	return fmt.Sprintf("UTC%s%02d:%02d", sign, mins/60, mins%60)
}

// FormatRelative formats an offset difference in hours, e.g. "+9h", "-3.5h", "±0h".
func FormatRelative(hours float64) string {
	if hours == 0 {
		return "±0h"
	}
	s := strconv.FormatFloat(hours, 'f', -1, 64)
	if hours > 0 {
		s = "+" + s
	}
	return s + "h"
}
