package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	minutesPerDay = 24 * 60
	// Fixed midday break excluded from every worked interval.
	breakStartMinute = 12 * 60
	breakEndMinute   = 13 * 60
)

// clockPattern accepts 24-hour ("8:30", "17:05") and 12-hour forms with a
// meridiem suffix ("8:30 AM", "12:00pm"). Minutes are always two digits.
var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?:\s*([AaPp][Mm]))?$`)

// ComputeTotalHours returns the worked hours between two clock times with
// the 12:00-13:00 break excluded, rounded to two decimal places. A checkout
// earlier than the check-in is treated as an overnight shift wrapping into
// the next day; equal times are zero hours, never a 24-hour wrap. Empty or
// malformed input yields 0 rather than an error.
func ComputeTotalHours(timeIn, timeOut string) float64 {
	if timeIn == "" || timeOut == "" {
		return 0
	}

	minutesIn, ok := ParseClockMinutes(timeIn)
	if !ok {
		return 0
	}
	minutesOut, ok := ParseClockMinutes(timeOut)
	if !ok {
		return 0
	}

	mins := (minutesOut - minutesIn + minutesPerDay) % minutesPerDay
	mins -= breakOverlap(minutesIn, minutesOut)
	if mins < 0 {
		mins = 0
	}

	return math.Round(float64(mins)/60*100) / 100
}

// breakOverlap returns how many minutes of the worked interval fall inside
// the break window. An overnight shift is split at midnight; the window
// occurs once per day so at most one half can intersect it.
func breakOverlap(startMinutes, endMinutes int) int {
	if startMinutes <= endMinutes {
		return rangeOverlap(startMinutes, endMinutes, breakStartMinute, breakEndMinute)
	}
	return rangeOverlap(startMinutes, minutesPerDay, breakStartMinute, breakEndMinute) +
		rangeOverlap(0, endMinutes, breakStartMinute, breakEndMinute)
}

func rangeOverlap(aStart, aEnd, bStart, bEnd int) int {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end < start {
		return 0
	}
	return end - start
}

// ParseClockMinutes parses a wall-clock string into minutes since midnight.
// Hours outside 0-23 (or 1-12 with a meridiem) and minutes outside 0-59 are
// rejected.
func ParseClockMinutes(raw string) (int, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, false
	}

	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if minute > 59 {
		return 0, false
	}

	if m[3] != "" {
		if hour < 1 || hour > 12 {
			return 0, false
		}
		hour = hour % 12
		if strings.EqualFold(m[3], "pm") {
			hour += 12
		}
		return hour*60 + minute, true
	}

	if hour > 23 {
		return 0, false
	}
	return hour*60 + minute, true
}

// CanonicalClock converts any accepted clock form to the zero-padded
// 24-hour HH:MM storage form. Unparseable input is returned trimmed so the
// store keeps what the user typed.
func CanonicalClock(raw string) string {
	mins, ok := ParseClockMinutes(raw)
	if !ok {
		return strings.TrimSpace(raw)
	}
	h := mins / 60
	m := mins % 60
	return pad2(h) + ":" + pad2(m)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
