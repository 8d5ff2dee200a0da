package model

import "strings"

// EmploymentCategory classifies an employment contract for cap defaults.
type EmploymentCategory string

const (
	EmploymentMini           EmploymentCategory = "mini"            // marginal employment, salary-capped
	EmploymentWorkingStudent EmploymentCategory = "working_student" // weekly hours capped
	EmploymentStandard       EmploymentCategory = "standard"
)

// ClassifyEmployment derives a category from free-text employment type.
func ClassifyEmployment(employment string) EmploymentCategory {
	c := CanonicalName(employment)
	switch {
	case strings.Contains(c, "mini"):
		return EmploymentMini
	case strings.Contains(c, "werk"), strings.Contains(c, "student"):
		return EmploymentWorkingStudent
	default:
		return EmploymentStandard
	}
}

// Employee is a staff member that may be assigned to open slots.
type Employee struct {
	ID                 string             `json:"id" yaml:"id" validate:"required"`
	FirstName          string             `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName           string             `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	FullName           string             `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	Username           string             `json:"username,omitempty" yaml:"username,omitempty"`
	Role               string             `json:"role,omitempty" yaml:"role,omitempty"`
	Employment         string             `json:"employment,omitempty" yaml:"employment,omitempty"`
	EmploymentCategory EmploymentCategory `json:"employment_category,omitempty" yaml:"employment_category,omitempty" validate:"omitempty,oneof=mini working_student standard"`
	HourlyWage         float64            `json:"hourly_wage,omitempty" yaml:"hourly_wage,omitempty" validate:"gte=0"`
	MaxSalary          *float64           `json:"max_salary,omitempty" yaml:"max_salary,omitempty" validate:"omitempty,gte=0"`
	Skills             []string           `json:"skills,omitempty" yaml:"skills,omitempty"`
}

func (e *Employee) fullName() string {
	if n := strings.TrimSpace(e.FullName); n != "" {
		return n
	}
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// DisplayName returns the full name, falling back to the id.
func (e *Employee) DisplayName() string {
	if n := e.fullName(); n != "" {
		return n
	}
	return e.ID
}

// Category returns the explicit category or classifies the employment text.
func (e *Employee) Category() EmploymentCategory {
	if e.EmploymentCategory != "" {
		return e.EmploymentCategory
	}
	return ClassifyEmployment(e.Employment)
}

// SalaryCap returns the monthly salary cap when both wage and cap are positive.
func (e *Employee) SalaryCap() (float64, bool) {
	if e.HourlyWage > 0 && e.MaxSalary != nil && *e.MaxSalary > 0 {
		return *e.MaxSalary, true
	}
	return 0, false
}

// LookupKeys returns the canonical names a profile rule may be keyed by,
// in lookup order.
func (e *Employee) LookupKeys() []string {
	keys := make([]string, 0, 3)
	for _, raw := range []string{e.fullName(), e.FirstName, e.Username} {
		if k := CanonicalName(raw); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// EmployeeRule holds per-employee overrides from a constraint profile.
type EmployeeRule struct {
	TargetWeeklyHours         *float64          `json:"target_weekly_hours,omitempty" yaml:"target_weekly_hours,omitempty" validate:"omitempty,gte=0"`
	MaxMonthlyHours           *float64          `json:"max_monthly_hours,omitempty" yaml:"max_monthly_hours,omitempty" validate:"omitempty,gte=0"`
	MaxWeeklyHours            *float64          `json:"max_weekly_hours,omitempty" yaml:"max_weekly_hours,omitempty" validate:"omitempty,gte=0"`
	MaxAdditionalMonthlyHours *float64          `json:"max_additional_monthly_hours,omitempty" yaml:"max_additional_monthly_hours,omitempty" validate:"omitempty,gte=0"`
	NoAdditionalShifts        bool              `json:"no_additional_shifts,omitempty" yaml:"no_additional_shifts,omitempty"`
	DisableMaxHours           bool              `json:"disable_max_hours,omitempty" yaml:"disable_max_hours,omitempty"`
	PreferredWorkingAreas     []string          `json:"preferred_working_areas,omitempty" yaml:"preferred_working_areas,omitempty"`
	PreferredShiftTypes       []string          `json:"preferred_shift_types,omitempty" yaml:"preferred_shift_types,omitempty"`
	Notes                     string            `json:"notes,omitempty" yaml:"notes,omitempty"`
	Preferences               *ShiftPreferences `json:"preferences,omitempty" yaml:"preferences,omitempty"`
}

// Merge returns r with every field set on o laid over it.
func (r EmployeeRule) Merge(o EmployeeRule) EmployeeRule {
	if o.TargetWeeklyHours != nil {
		r.TargetWeeklyHours = o.TargetWeeklyHours
	}
	if o.MaxMonthlyHours != nil {
		r.MaxMonthlyHours = o.MaxMonthlyHours
	}
	if o.MaxWeeklyHours != nil {
		r.MaxWeeklyHours = o.MaxWeeklyHours
	}
	if o.MaxAdditionalMonthlyHours != nil {
		r.MaxAdditionalMonthlyHours = o.MaxAdditionalMonthlyHours
	}
	if o.NoAdditionalShifts {
		r.NoAdditionalShifts = true
	}
	if o.DisableMaxHours {
		r.DisableMaxHours = true
	}
	if o.PreferredWorkingAreas != nil {
		r.PreferredWorkingAreas = o.PreferredWorkingAreas
	}
	if o.PreferredShiftTypes != nil {
		r.PreferredShiftTypes = o.PreferredShiftTypes
	}
	if o.Notes != "" {
		r.Notes = o.Notes
	}
	if o.Preferences != nil {
		r.Preferences = o.Preferences
	}
	return r
}

// PreferenceScope limits when a preference applies.
type PreferenceScope string

const (
	ScopeAlways  PreferenceScope = "always"
	ScopeWeekend PreferenceScope = "weekend"
)

// Active reports whether the scope applies on a weekend or weekday.
// An empty scope means always.
func (s PreferenceScope) Active(weekend bool) bool {
	switch s {
	case "", ScopeAlways:
		return true
	case ScopeWeekend:
		return weekend
	default:
		return false
	}
}

// ShiftPreferences are an employee's day and time preferences.
// Weekdays use Monday as 0. Empty day lists are unrestricted.
type ShiftPreferences struct {
	NoWeekend        bool            `json:"no_weekend,omitempty" yaml:"no_weekend,omitempty"`
	OnlyWeekend      bool            `json:"only_weekend,omitempty" yaml:"only_weekend,omitempty"`
	Prefer           ShiftLabel      `json:"prefer,omitempty" yaml:"prefer,omitempty" validate:"omitempty,oneof=early late"`
	EarlyScope       PreferenceScope `json:"early,omitempty" yaml:"early,omitempty"`
	LateScope        PreferenceScope `json:"late,omitempty" yaml:"late,omitempty"`
	MaxShiftsPerWeek int             `json:"max_shifts_per_week,omitempty" yaml:"max_shifts_per_week,omitempty" validate:"gte=0"`
	EarliestStart    *int            `json:"earliest_start,omitempty" yaml:"earliest_start,omitempty" validate:"omitempty,gte=0,lte=1440"`
	EarliestScope    PreferenceScope `json:"earliest_scope,omitempty" yaml:"earliest_scope,omitempty"`
	LatestEnd        *int            `json:"latest_end,omitempty" yaml:"latest_end,omitempty" validate:"omitempty,gte=0,lte=1440"`
	LatestScope      PreferenceScope `json:"latest_scope,omitempty" yaml:"latest_scope,omitempty"`
	AllowedDays      []int           `json:"allowed_days,omitempty" yaml:"allowed_days,omitempty" validate:"dive,gte=0,lte=6"`
	BlockedDays      []int           `json:"blocked_days,omitempty" yaml:"blocked_days,omitempty" validate:"dive,gte=0,lte=6"`
}

// IsZero reports whether no preference is set.
func (p ShiftPreferences) IsZero() bool {
	return !p.NoWeekend && !p.OnlyWeekend && p.Prefer == "" && p.EarlyScope == "" &&
		p.LateScope == "" && p.MaxShiftsPerWeek == 0 && p.EarliestStart == nil &&
		p.LatestEnd == nil && len(p.AllowedDays) == 0 && len(p.BlockedDays) == 0
}
