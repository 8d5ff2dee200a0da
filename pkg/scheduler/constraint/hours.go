package constraint

import (
	"github.com/shiftplan/shiftplan/pkg/model"
)

// HoursInMonth sums hours of shifts in the month key ("YYYY-MM").
func HoursInMonth(shifts []model.WorkedShift, month string) float64 {
	var total float64
	for _, s := range shifts {
		if model.MonthKey(s.Date) == month {
			total += s.DurationHours()
		}
	}
	return total
}

// HoursInWeek sums hours of shifts in the week starting on Monday week.
func HoursInWeek(shifts []model.WorkedShift, week string) float64 {
	var total float64
	for _, s := range shifts {
		if model.WeekKey(s.Date) == week {
			total += s.DurationHours()
		}
	}
	return total
}

// ShiftsInWeek counts shifts in the week starting on Monday week.
func ShiftsInWeek(shifts []model.WorkedShift, week string) int {
	n := 0
	for _, s := range shifts {
		if model.WeekKey(s.Date) == week {
			n++
		}
	}
	return n
}

// ConsecutiveDays returns the length of the run of working days through
// date, counting date itself as worked.
func ConsecutiveDays(shifts []model.WorkedShift, date string) int {
	working := make(map[string]bool, len(shifts)+1)
	working[date] = true
	for _, s := range shifts {
		if s.Date != "" {
			working[s.Date] = true
		}
	}

	streak := 1
	for d := model.AddDays(date, -1); d != "" && working[d]; d = model.AddDays(d, -1) {
		streak++
	}
	for d := model.AddDays(date, 1); d != "" && working[d]; d = model.AddDays(d, 1) {
		streak++
	}
	return streak
}
