// Package constraint classifies block reasons and checks a candidate
// employee against an open slot.
package constraint

import (
	"github.com/shiftplan/shiftplan/pkg/model"
)

// Type identifies a registered check.
type Type string

const (
	TypeNoAdditionalShifts   Type = "no_additional_shifts"
	TypeAbsence              Type = "absence"
	TypeShiftSameDay         Type = "shift_same_day"
	TypeLaborLaw             Type = "labor_law"
	TypeMonthlyCap           Type = "monthly_cap"
	TypeAdditionalMonthlyCap Type = "additional_monthly_cap"
	TypeRunWeeklyCap         Type = "run_weekly_cap"
	TypeSalaryCap            Type = "salary_cap"
)

// Constraint checks one candidate against one slot and returns the
// reasons it raises. Whether a reason blocks depends on its
// classification and the run's constraint mode.
type Constraint interface {
	Name() string
	Type() Type
	Check(ctx *Context) []model.BlockReason
}

// Context is the evaluation input for one (employee, slot) pair.
type Context struct {
	Employee *model.Employee
	Rule     model.EmployeeRule
	Slot     model.WorkedShift
	Policy   model.Policy

	// Existing are shifts held before the run, Run are shifts assigned so
	// far in this run. Both have hours resolved.
	Existing []model.WorkedShift
	Run      []model.WorkedShift
	Absences []model.Absence

	// RunExtraMonthHours are the hours assigned to the employee by this run
	// in the slot's month.
	RunExtraMonthHours float64
}

// ExistingMonthHours returns pre-run hours in the slot's month.
func (c *Context) ExistingMonthHours() float64 {
	return HoursInMonth(c.Existing, model.MonthKey(c.Slot.Date))
}

// RunMonthHours returns run hours in the slot's month.
func (c *Context) RunMonthHours() float64 {
	return HoursInMonth(c.Run, model.MonthKey(c.Slot.Date))
}

// ProjectedMonthHours returns month hours including the slot.
func (c *Context) ProjectedMonthHours() float64 {
	return c.ExistingMonthHours() + c.RunMonthHours() + c.Slot.DurationHours()
}

// AllShifts returns existing followed by run shifts.
func (c *Context) AllShifts() []model.WorkedShift {
	all := make([]model.WorkedShift, 0, len(c.Existing)+len(c.Run))
	all = append(all, c.Existing...)
	return append(all, c.Run...)
}
