package model

import "strings"

// WorkedShift is a shift occupying an employee on a date.
type WorkedShift struct {
	Date  string  `json:"date" yaml:"date" validate:"required,datetime=2006-01-02"`
	Start string  `json:"start" yaml:"start" validate:"required"`
	End   string  `json:"end" yaml:"end" validate:"required"`
	Hours float64 `json:"hours,omitempty" yaml:"hours,omitempty" validate:"gte=0"`
}

// DurationHours returns the given hours, or the hours derived from the clock times.
func (w WorkedShift) DurationHours() float64 {
	if w.Hours > 0 {
		return w.Hours
	}
	return ShiftHours(w.Start, w.End)
}

// ExistingShift is a shift already held by an employee before the run.
type ExistingShift struct {
	EmployeeID string `json:"employee_id" yaml:"employee_id" validate:"required"`
	WorkedShift
}

// OpenSlot is an unfilled shift requiring exactly one employee.
type OpenSlot struct {
	SlotID          string   `json:"slot_id" yaml:"slot_id" validate:"required"`
	ExternalShiftID string   `json:"external_shift_id,omitempty" yaml:"external_shift_id,omitempty"`
	Date            string   `json:"date" yaml:"date" validate:"required,datetime=2006-01-02"`
	Start           string   `json:"start" yaml:"start" validate:"required"`
	End             string   `json:"end" yaml:"end" validate:"required"`
	Hours           float64  `json:"hours,omitempty" yaml:"hours,omitempty" validate:"gte=0"`
	ShiftType       string   `json:"shift_type,omitempty" yaml:"shift_type,omitempty"`
	WorkingArea     string   `json:"working_area,omitempty" yaml:"working_area,omitempty"`
	Note            string   `json:"note,omitempty" yaml:"note,omitempty"`
	Applicants      []string `json:"applicant_employee_ids,omitempty" yaml:"applicant_employee_ids,omitempty"`
}

// Worked returns the slot as the shift it would add to an employee.
func (s *OpenSlot) Worked() WorkedShift {
	w := WorkedShift{Date: s.Date, Start: s.Start, End: s.End, Hours: s.Hours}
	w.Hours = w.DurationHours()
	return w
}

// HasApplicants reports whether anyone applied for the slot.
func (s *OpenSlot) HasApplicants() bool {
	return len(s.Applicants) > 0
}

// IsApplicant reports whether employeeID applied for the slot.
func (s *OpenSlot) IsApplicant(employeeID string) bool {
	for _, id := range s.Applicants {
		if id == employeeID {
			return true
		}
	}
	return false
}

// Absence is an inclusive date range during which an employee is unavailable.
type Absence struct {
	EmployeeID string `json:"employee_id" yaml:"employee_id" validate:"required"`
	StartDate  string `json:"start_date" yaml:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" yaml:"end_date" validate:"required,datetime=2006-01-02"`
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Covers reports whether the absence includes date.
func (a Absence) Covers(date string) bool {
	return a.StartDate <= date && date <= a.EndDate
}

// InferShiftType guesses a shift type from working area, note and times
// when the source does not provide one.
func InferShiftType(start, end, workingArea, note string) string {
	msg := FoldText(workingArea + " " + note)
	switch {
	case strings.Contains(msg, "theke"):
		return "theke"
	case strings.Contains(msg, "bar"):
		return "bar"
	case strings.Contains(msg, "kueche"), strings.Contains(msg, "kuche"):
		return "kueche"
	}

	s, ok1 := ParseClock(start)
	e, ok2 := ParseClock(end)
	if !ok1 || !ok2 {
		return "normal"
	}
	switch {
	case s < 11*60:
		return "frueh"
	case s >= 16*60 || e >= 22*60:
		return "spaet"
	case e >= 20*60:
		return "doppel"
	default:
		return "normal"
	}
}
