package model

import (
	"strconv"
	"strings"
	"time"
)

const (
	minutesPerDay = 24 * 60

	// DateLayout is the ISO date layout used for every date string.
	DateLayout = "2006-01-02"
)

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(value string) (int, bool) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(hh))
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// ShiftHours returns the duration of a shift in decimal hours.
// An end before the start wraps past midnight. Unparseable input yields 0.
func ShiftHours(start, end string) float64 {
	s, ok1 := ParseClock(start)
	e, ok2 := ParseClock(end)
	if !ok1 || !ok2 {
		return 0
	}
	diff := e - s
	if diff < 0 {
		diff += minutesPerDay
	}
	return float64(diff) / 60.0
}

type span struct{ from, to int }

// spans splits an overnight range into its two same-day parts.
func spans(start, end int) []span {
	if end > start {
		return []span{{start, end}}
	}
	return []span{{start, minutesPerDay}, {0, end}}
}

// TimeOverlap reports whether two HH:MM ranges overlap, supporting
// overnight ranges. Unparseable input never overlaps.
func TimeOverlap(startA, endA, startB, endB string) bool {
	a0, ok1 := ParseClock(startA)
	a1, ok2 := ParseClock(endA)
	b0, ok3 := ParseClock(startB)
	b1, ok4 := ParseClock(endB)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	for _, x := range spans(a0, a1) {
		for _, y := range spans(b0, b1) {
			if max(x.from, y.from) < min(x.to, y.to) {
				return true
			}
		}
	}
	return false
}

// ShiftLabel is a coarse time-of-day label used for preference matching.
type ShiftLabel string

const (
	LabelEarly ShiftLabel = "early"
	LabelLate  ShiftLabel = "late"
)

const (
	earlyStartBefore = 11 * 60
	lateStartFrom    = 16 * 60
	lateEndFrom      = 21 * 60
)

var (
	earlyTypeMarkers = []string{"frueh", "fruh", "early", "morning"}
	lateTypeMarkers  = []string{"spaet", "spat", "late", "evening"}
)

// ShiftLabels derives the early/late labels of a shift from its type text
// and its clock times.
func ShiftLabels(shiftType, start, end string) map[ShiftLabel]bool {
	labels := make(map[ShiftLabel]bool, 2)
	typ := FoldText(shiftType)
	for _, m := range earlyTypeMarkers {
		if strings.Contains(typ, m) {
			labels[LabelEarly] = true
		}
	}
	for _, m := range lateTypeMarkers {
		if strings.Contains(typ, m) {
			labels[LabelLate] = true
		}
	}

	if s, ok := ParseClock(start); ok {
		if s < earlyStartBefore {
			labels[LabelEarly] = true
		}
		if s >= lateStartFrom {
			labels[LabelLate] = true
		}
	}
	if e, ok := ParseClock(end); ok && e >= lateEndFrom {
		labels[LabelLate] = true
	}
	return labels
}

// ParseDate parses an ISO date.
func ParseDate(date string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MonthKey returns "YYYY-MM" for an ISO date.
func MonthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// WeekKey returns the ISO date of the Monday of the date's week.
func WeekKey(date string) string {
	t, ok := ParseDate(date)
	if !ok {
		return ""
	}
	return t.AddDate(0, 0, -WeekdayIndex(t)).Format(DateLayout)
}

// WeekdayIndex returns the weekday with Monday as 0 and Sunday as 6.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsWeekend reports whether the ISO date is a Saturday or Sunday.
func IsWeekend(date string) bool {
	t, ok := ParseDate(date)
	return ok && WeekdayIndex(t) >= 5
}

// AddDays shifts an ISO date by n days.
func AddDays(date string, n int) string {
	t, ok := ParseDate(date)
	if !ok {
		return ""
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}
