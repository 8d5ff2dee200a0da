package solver

import (
	"github.com/shiftplan/shiftplan/pkg/model"
)

type periodKey struct {
	employeeID string
	period     string
}

// RunState tracks what the current run has assigned so far. All derived
// totals are updated together by RecordAssignment.
type RunState struct {
	shifts     map[string][]model.WorkedShift
	monthHours map[periodKey]float64
	weekHours  map[periodKey]float64
	weekShifts map[periodKey]int
	days       map[string]map[string]bool
	totalHours map[string]float64
}

// NewRunState creates an empty run state.
func NewRunState() *RunState {
	return &RunState{
		shifts:     make(map[string][]model.WorkedShift),
		monthHours: make(map[periodKey]float64),
		weekHours:  make(map[periodKey]float64),
		weekShifts: make(map[periodKey]int),
		days:       make(map[string]map[string]bool),
		totalHours: make(map[string]float64),
	}
}

// RecordAssignment adds a shift won by employeeID.
func (s *RunState) RecordAssignment(employeeID string, shift model.WorkedShift) {
	hours := shift.DurationHours()
	shift.Hours = hours

	month := periodKey{employeeID, model.MonthKey(shift.Date)}
	week := periodKey{employeeID, model.WeekKey(shift.Date)}

	s.shifts[employeeID] = append(s.shifts[employeeID], shift)
	s.monthHours[month] += hours
	s.weekHours[week] += hours
	s.weekShifts[week]++
	if s.days[employeeID] == nil {
		s.days[employeeID] = make(map[string]bool)
	}
	s.days[employeeID][shift.Date] = true
	s.totalHours[employeeID] += hours
}

// Shifts returns the shifts assigned to the employee in this run.
func (s *RunState) Shifts(employeeID string) []model.WorkedShift {
	return s.shifts[employeeID]
}

// MonthHours returns run hours of the employee in the month of date.
func (s *RunState) MonthHours(employeeID, date string) float64 {
	return s.monthHours[periodKey{employeeID, model.MonthKey(date)}]
}

// WeekHours returns run hours of the employee in the week of date.
func (s *RunState) WeekHours(employeeID, date string) float64 {
	return s.weekHours[periodKey{employeeID, model.WeekKey(date)}]
}

// WeekShiftCount returns run shifts of the employee in the week of date.
func (s *RunState) WeekShiftCount(employeeID, date string) int {
	return s.weekShifts[periodKey{employeeID, model.WeekKey(date)}]
}

// WorksOn reports whether the run assigned the employee on date.
func (s *RunState) WorksOn(employeeID, date string) bool {
	return s.days[employeeID][date]
}

// TotalHours returns all run hours of the employee.
func (s *RunState) TotalHours(employeeID string) float64 {
	return s.totalHours[employeeID]
}
