package duration

import (
	"math"
	"strconv"
)

// FormatLabel renders value in unit as an English label, before translation.
//
//	hours:   "2 hours", "1 hour, 30 minutes"
//	minutes: "45 minutes", "1 hour", "2 hours, 15 minutes"
//	days:    "1 day", "3 days"
func FormatLabel(value float64, unit Unit) string {
	switch unit {
	case UnitHours:
		return hoursMinutes(splitHours(value))
	case UnitMinutes:
		if value < 60 {
			return plural(value, "minute", "minutes")
		}
		hours := math.Floor(value / 60)
		mins := math.Round(value - hours*60)
		if mins >= 60 {
			hours++
			mins = 0
		}
		return joinHoursMinutes(hours, mins)
	case UnitDays:
		return plural(value, "day", "days")
	}
	return formatNumber(value)
}

func splitHours(value float64) (float64, float64) {
	hours := math.Floor(value)
	mins := math.Round((value - hours) * 60)
	if mins >= 60 {
		hours++
		mins = 0
	}
	return hours, mins
}

func hoursMinutes(hours, mins float64) string {
	if hours == 0 && mins > 0 {
		return plural(mins, "minute", "minutes")
	}
	return joinHoursMinutes(hours, mins)
}

func joinHoursMinutes(hours, mins float64) string {
	label := plural(hours, "hour", "hours")
	if mins > 0 {
		label += ", " + plural(mins, "minute", "minutes")
	}
	return label
}

func plural(n float64, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.FormatFloat(n, 'f', -1, 64) + " " + many
}
