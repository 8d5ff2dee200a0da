package constraint

import (
	"github.com/shiftplan/shiftplan/pkg/model"
)

const (
	maxDailyHours  = 10.0
	minRestMinutes = 11 * 60
	minutesPerDay  = 24 * 60
)

// LaborViolations applies the working-time law checks to adding slot on
// top of the existing and run shifts: daily total above 10h, same-day
// overlap, weekly limit, less than 11h rest against the previous or next
// day, and consecutive working days above maxConsecutiveDays.
func LaborViolations(existing, run []model.WorkedShift, slot model.WorkedShift, weeklyLimit float64, maxConsecutiveDays int) []model.BlockReason {
	var reasons []model.BlockReason

	all := make([]model.WorkedShift, 0, len(existing)+len(run))
	all = append(all, existing...)
	all = append(all, run...)

	hours := slot.DurationHours()

	dayHours := hours
	for _, s := range all {
		if s.Date != slot.Date {
			continue
		}
		dayHours += s.DurationHours()
		if model.TimeOverlap(slot.Start, slot.End, s.Start, s.End) {
			reasons = append(reasons, model.ReasonOverlapSameDay)
		}
	}
	if dayHours > maxDailyHours {
		reasons = append(reasons, model.ReasonDailyHoursOver10)
	}

	if hours+HoursInWeek(all, model.WeekKey(slot.Date)) > weeklyLimit {
		reasons = append(reasons, model.ReasonWeeklyHoursLimit)
	}

	if restViolated(all, slot) {
		reasons = append(reasons, model.ReasonRestUnder11h)
	}

	if ConsecutiveDays(all, slot.Date) > maxConsecutiveDays {
		reasons = append(reasons, model.ReasonConsecutiveDays)
	}

	return SortedUnique(reasons)
}

// restViolated compares the slot against shifts on the adjacent days.
// Unparseable times count as midnight.
func restViolated(all []model.WorkedShift, slot model.WorkedShift) bool {
	prevDay := model.AddDays(slot.Date, -1)
	nextDay := model.AddDays(slot.Date, 1)
	slotStart, _ := model.ParseClock(slot.Start)
	slotEnd, _ := model.ParseClock(slot.End)

	for _, s := range all {
		switch s.Date {
		case prevDay:
			prevEnd, _ := model.ParseClock(s.End)
			if (minutesPerDay-prevEnd)+slotStart < minRestMinutes {
				return true
			}
		case nextDay:
			nextStart, _ := model.ParseClock(s.Start)
			if (minutesPerDay-slotEnd)+nextStart < minRestMinutes {
				return true
			}
		}
	}
	return false
}
