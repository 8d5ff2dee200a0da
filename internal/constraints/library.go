// Package constraints describes the checks the allocator applies to every
// candidate, for clients that build profiles.
package constraints

import (
	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/constraint"
)

// Param is a setting that tunes a check.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, bool, days, minutes
	Source      string `json:"source"`
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// Definition is one block reason with its classification.
type Definition struct {
	Name        model.BlockReason        `json:"name"`
	DisplayName string                   `json:"display_name"`
	Type        model.ConstraintCategory `json:"type"`
	Category    string                   `json:"category"`
	Description string                   `json:"description"`
	Params      []Param                  `json:"params"`
}

// LibraryResponse is the body of the constraint catalog endpoint.
type LibraryResponse struct {
	Library []Definition `json:"library"`
}

const (
	categoryWorkingTime = "working_time"
	categoryRest        = "rest"
	categoryAvailable   = "availability"
	categoryContract    = "contract"
	categoryPreference  = "preference"

	sourceRule        = "employee_rules"
	sourcePreferences = "employee_rules.preferences"
	sourcePolicy      = "policy"
	sourceEmployee    = "employee"
)

// GetLibrary returns every check, obligatory ones first. Type is derived
// from the allocator's classification, so loose mode relaxes exactly the
// soft entries.
func GetLibrary() []Definition {
	defs := []Definition{
		{
			Name:        model.ReasonOverlapSameDay,
			DisplayName: "Overlapping shifts",
			Category:    categoryWorkingTime,
			Description: "The slot overlaps a shift the employee already works on the same day.",
		},
		{
			Name:        model.ReasonShiftSameDay,
			DisplayName: "One shift per day",
			Category:    categoryWorkingTime,
			Description: "The employee already has a shift on the slot's date.",
		},
		{
			Name:        model.ReasonDailyHoursOver10,
			DisplayName: "Maximum 10 hours per day",
			Category:    categoryWorkingTime,
			Description: "Hours worked on the slot's date would exceed 10.",
		},
		{
			Name:        model.ReasonWeeklyHoursLimit,
			DisplayName: "Weekly legal limit",
			Category:    categoryWorkingTime,
			Description: "Hours in the ISO week would exceed the legal weekly limit: 48, or 20 for working students.",
			Params: []Param{
				{Name: "max_weekly_hours", Type: "float", Source: sourceRule, Description: "Overrides the weekly limit", Default: "48", Min: "0"},
			},
		},
		{
			Name:        model.ReasonRestUnder11h,
			DisplayName: "11 hours rest",
			Category:    categoryRest,
			Description: "Less than 11 hours between the slot and the previous or next shift.",
		},
		{
			Name:        model.ReasonConsecutiveDays,
			DisplayName: "Consecutive working days",
			Category:    categoryRest,
			Description: "The slot would extend a run of working days beyond the limit.",
			Params: []Param{
				{Name: "max_consecutive_days", Type: "int", Source: sourcePolicy, Description: "Longest run of working days", Default: "5", Min: "1"},
			},
		},
		{
			Name:        model.ReasonAbsence,
			DisplayName: "Absence",
			Category:    categoryAvailable,
			Description: "The employee is absent on the slot's date.",
		},
		{
			Name:        model.ReasonNoAdditionalShifts,
			DisplayName: "No additional shifts",
			Category:    categoryContract,
			Description: "The employee takes no shifts beyond the existing plan.",
			Params: []Param{
				{Name: "no_additional_shifts", Type: "bool", Source: sourceRule, Description: "Excludes the employee from allocation", Default: "false"},
			},
		},
		{
			Name:        model.ReasonMaxSalary,
			DisplayName: "Salary cap",
			Category:    categoryContract,
			Description: "Projected monthly pay would exceed the employee's salary cap.",
			Params: []Param{
				{Name: "max_salary", Type: "float", Source: sourceEmployee, Description: "Monthly salary cap", Min: "0"},
				{Name: "hourly_wage", Type: "float", Source: sourceEmployee, Description: "Wage used to project pay", Min: "0"},
			},
		},
		{
			Name:        model.ReasonUnknownEmployee,
			DisplayName: "Unknown employee",
			Category:    categoryAvailable,
			Description: "The plan assigns an employee missing from the snapshot. Reported by plan validation only.",
		},
		{
			Name:        model.ReasonMonthlyHours,
			DisplayName: "Monthly hour cap",
			Category:    categoryWorkingTime,
			Description: "Existing plus planned hours in the month would exceed the monthly cap.",
			Params: []Param{
				{Name: "max_monthly_hours", Type: "float", Source: sourceRule, Description: "Monthly cap", Default: "160", Min: "0"},
				{Name: "target_weekly_hours", Type: "float", Source: sourceRule, Description: "Derives the cap as weekly target x 4.33", Min: "0"},
				{Name: "disable_max_hours", Type: "bool", Source: sourceRule, Description: "Turns the monthly cap off", Default: "false"},
			},
		},
		{
			Name:        model.ReasonMaxAdditionalMonthly,
			DisplayName: "Additional monthly hours",
			Category:    categoryWorkingTime,
			Description: "Hours planned in this run would exceed the allowed extra hours for the month.",
			Params: []Param{
				{Name: "max_additional_monthly_hours", Type: "float", Source: sourceRule, Description: "Extra hours per month", Min: "0"},
			},
		},
		{
			Name:        model.ReasonMaxWeeklyHours,
			DisplayName: "Weekly hour cap",
			Category:    categoryWorkingTime,
			Description: "Hours in the ISO week would exceed the employee's own weekly cap.",
			Params: []Param{
				{Name: "max_weekly_hours", Type: "float", Source: sourceRule, Description: "Weekly cap", Min: "0"},
			},
		},
		{
			Name:        model.ReasonPrefNoWeekend,
			DisplayName: "No weekend",
			Category:    categoryPreference,
			Description: "The slot falls on a weekend the employee wants off.",
			Params: []Param{
				{Name: "no_weekend", Type: "bool", Source: sourcePreferences, Description: "Keeps Saturday and Sunday free", Default: "false"},
			},
		},
		{
			Name:        model.ReasonPrefOnlyWeekend,
			DisplayName: "Only weekend",
			Category:    categoryPreference,
			Description: "The slot falls on a weekday for an employee who works weekends only.",
			Params: []Param{
				{Name: "only_weekend", Type: "bool", Source: sourcePreferences, Description: "Allows Saturday and Sunday only", Default: "false"},
			},
		},
		{
			Name:        model.ReasonPrefStartsTooEarly,
			DisplayName: "Earliest start",
			Category:    categoryPreference,
			Description: "The slot starts before the employee's earliest start.",
			Params: []Param{
				{Name: "earliest_start", Type: "minutes", Source: sourcePreferences, Description: "Minutes after midnight", Min: "0", Max: "1440"},
				{Name: "earliest_scope", Type: "string", Source: sourcePreferences, Description: "always or weekend", Default: "always"},
			},
		},
		{
			Name:        model.ReasonPrefEndsTooLate,
			DisplayName: "Latest end",
			Category:    categoryPreference,
			Description: "The slot ends after the employee's latest end.",
			Params: []Param{
				{Name: "latest_end", Type: "minutes", Source: sourcePreferences, Description: "Minutes after midnight", Min: "0", Max: "1440"},
				{Name: "latest_scope", Type: "string", Source: sourcePreferences, Description: "always or weekend", Default: "always"},
			},
		},
		{
			Name:        model.ReasonPrefAllowedDays,
			DisplayName: "Allowed weekdays",
			Category:    categoryPreference,
			Description: "The slot's weekday is not among the allowed days.",
			Params: []Param{
				{Name: "allowed_days", Type: "days", Source: sourcePreferences, Description: "Weekdays, 0 = Monday", Min: "0", Max: "6"},
			},
		},
		{
			Name:        model.ReasonPrefBlockedDays,
			DisplayName: "Blocked weekdays",
			Category:    categoryPreference,
			Description: "The slot's weekday is blocked for the employee.",
			Params: []Param{
				{Name: "blocked_days", Type: "days", Source: sourcePreferences, Description: "Weekdays, 0 = Monday", Min: "0", Max: "6"},
			},
		},
	}

	for i := range defs {
		defs[i].Type = constraint.Classify(defs[i].Name)
		if defs[i].Params == nil {
			defs[i].Params = []Param{}
		}
	}
	return defs
}

// ByType returns the definitions of one category.
func ByType(t model.ConstraintCategory) []Definition {
	var out []Definition
	for _, d := range GetLibrary() {
		if d.Type == t {
			out = append(out, d)
		}
	}
	return out
}
