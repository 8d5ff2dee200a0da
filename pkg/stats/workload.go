package stats

import (
	"sort"

	"github.com/shiftplan/shiftplan/pkg/model"
)

// DefaultWeeklyHours is the weekly reference used for overtime and utilization.
const DefaultWeeklyHours = 40.0

// WorkloadSummary aggregates the hours of a plan.
type WorkloadSummary struct {
	Period            string                   `json:"period"`
	Weeks             float64                  `json:"weeks"`
	TotalHours        float64                  `json:"total_hours"`
	TotalShifts       int                      `json:"total_shifts"`
	EmployeeCount     int                      `json:"employee_count"`
	AvgHoursPerPerson float64                  `json:"avg_hours_per_person"`
	OvertimeHours     float64                  `json:"overtime_hours"`
	ByEmployee        []EmployeeWorkload       `json:"by_employee"`
	ByDate            map[string]DailyWorkload `json:"by_date"`
	ByShiftType       map[string]float64       `json:"by_shift_type"`
}

// EmployeeWorkload is one employee's share of the plan hours.
type EmployeeWorkload struct {
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name"`
	TotalHours    float64 `json:"total_hours"`
	ShiftCount    int     `json:"shift_count"`
	OvertimeHours float64 `json:"overtime_hours"`
	Utilization   float64 `json:"utilization"` // percent of the weekly reference
}

// DailyWorkload is the staffing of one day.
type DailyWorkload struct {
	Date       string  `json:"date"`
	TotalHours float64 `json:"total_hours"`
	ShiftCount int     `json:"shift_count"`
	StaffCount int     `json:"staff_count"`
}

// SummarizeWorkload aggregates plan hours per employee, day and shift type.
// weeklyHours <= 0 uses DefaultWeeklyHours.
func SummarizeWorkload(plan *model.Plan, weeklyHours float64) *WorkloadSummary {
	if weeklyHours <= 0 {
		weeklyHours = DefaultWeeklyHours
	}
	summary := &WorkloadSummary{
		ByEmployee:  make([]EmployeeWorkload, 0),
		ByDate:      make(map[string]DailyWorkload),
		ByShiftType: make(map[string]float64),
		Weeks:       1,
	}
	if plan == nil {
		return summary
	}
	summary.Period = plan.Range.From + " ~ " + plan.Range.To
	summary.Weeks = periodWeeks(plan.Range)

	byEmployee := make(map[string]*EmployeeWorkload)
	staff := make(map[string]map[string]bool)
	for _, a := range plan.Assignments {
		hours := a.Worked().DurationHours()
		summary.TotalHours += hours
		summary.TotalShifts++

		ew, ok := byEmployee[a.EmployeeID]
		if !ok {
			ew = &EmployeeWorkload{EmployeeID: a.EmployeeID, EmployeeName: a.EmployeeName}
			byEmployee[a.EmployeeID] = ew
		}
		ew.TotalHours += hours
		ew.ShiftCount++

		daily := summary.ByDate[a.Date]
		daily.Date = a.Date
		daily.TotalHours += hours
		daily.ShiftCount++
		if staff[a.Date] == nil {
			staff[a.Date] = make(map[string]bool)
		}
		staff[a.Date][a.EmployeeID] = true
		daily.StaffCount = len(staff[a.Date])
		summary.ByDate[a.Date] = daily

		shiftType := a.ShiftType
		if shiftType == "" {
			shiftType = model.InferShiftType(a.Start, a.End, a.WorkingArea, a.Note)
		}
		summary.ByShiftType[shiftType] += hours
	}

	expected := weeklyHours * summary.Weeks
	for _, ew := range byEmployee {
		if ew.TotalHours > expected {
			ew.OvertimeHours = model.Round2(ew.TotalHours - expected)
			summary.OvertimeHours += ew.OvertimeHours
		}
		ew.Utilization = model.Round2(ew.TotalHours / expected * 100)
		ew.TotalHours = model.Round2(ew.TotalHours)
		summary.ByEmployee = append(summary.ByEmployee, *ew)
	}
	sort.Slice(summary.ByEmployee, func(i, j int) bool {
		a, b := summary.ByEmployee[i], summary.ByEmployee[j]
		if a.TotalHours != b.TotalHours {
			return a.TotalHours > b.TotalHours
		}
		return a.EmployeeID < b.EmployeeID
	})

	for date, daily := range summary.ByDate {
		daily.TotalHours = model.Round2(daily.TotalHours)
		summary.ByDate[date] = daily
	}
	for shiftType, hours := range summary.ByShiftType {
		summary.ByShiftType[shiftType] = model.Round2(hours)
	}

	summary.EmployeeCount = len(byEmployee)
	if summary.EmployeeCount > 0 {
		summary.AvgHoursPerPerson = model.Round2(summary.TotalHours / float64(summary.EmployeeCount))
	}
	summary.TotalHours = model.Round2(summary.TotalHours)
	summary.OvertimeHours = model.Round2(summary.OvertimeHours)
	return summary
}

// periodWeeks is the inclusive length of rng in weeks, at least one.
func periodWeeks(rng model.DateRange) float64 {
	from, ok1 := model.ParseDate(rng.From)
	to, ok2 := model.ParseDate(rng.To)
	if !ok1 || !ok2 || to.Before(from) {
		return 1
	}
	weeks := (to.Sub(from).Hours()/24 + 1) / 7
	if weeks < 1 {
		return 1
	}
	return weeks
}
