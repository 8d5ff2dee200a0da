package model

import (
	"encoding/json"
	"sort"
)

// Snapshot is the read-only input of one allocation run.
type Snapshot struct {
	SnapshotID     string          `json:"snapshot_id" yaml:"snapshot_id" validate:"required"`
	Venue          string          `json:"venue,omitempty" yaml:"venue,omitempty"`
	Range          DateRange       `json:"range" yaml:"range"`
	GeneratedAt    string          `json:"generated_at,omitempty" yaml:"generated_at,omitempty"`
	Employees      []Employee      `json:"employees" yaml:"employees" validate:"dive"`
	ExistingShifts []ExistingShift `json:"existing_shifts" yaml:"existing_shifts" validate:"dive"`
	OpenSlots      []OpenSlot      `json:"open_slots" yaml:"open_slots" validate:"dive"`
	Absences       []Absence       `json:"absences" yaml:"absences" validate:"dive"`
}

// EmployeeByID indexes employees by id.
func (s *Snapshot) EmployeeByID() map[string]*Employee {
	out := make(map[string]*Employee, len(s.Employees))
	for i := range s.Employees {
		out[s.Employees[i].ID] = &s.Employees[i]
	}
	return out
}

// ExistingByEmployee groups existing shifts per employee, with hours resolved.
func (s *Snapshot) ExistingByEmployee() map[string][]WorkedShift {
	out := make(map[string][]WorkedShift)
	for _, sh := range s.ExistingShifts {
		w := sh.WorkedShift
		w.Hours = w.DurationHours()
		out[sh.EmployeeID] = append(out[sh.EmployeeID], w)
	}
	return out
}

// AbsencesByEmployee groups absences per employee.
func (s *Snapshot) AbsencesByEmployee() map[string][]Absence {
	out := make(map[string][]Absence)
	for _, a := range s.Absences {
		out[a.EmployeeID] = append(out[a.EmployeeID], a)
	}
	return out
}

const (
	defaultMaxConsecutiveDays = 5
)

// Policy holds run-wide allocation switches. Unknown keys pass through
// in Extra, inline in both YAML and JSON.
type Policy struct {
	PreferApplicants   *bool                  `json:"prefer_applicants,omitempty" yaml:"prefer_applicants,omitempty"`
	MaxConsecutiveDays int                    `json:"max_consecutive_days,omitempty" yaml:"max_consecutive_days,omitempty" validate:"omitempty,gte=1"`
	Extra              map[string]interface{} `json:"-" yaml:",inline"`
}

type policyFields struct {
	PreferApplicants   *bool `json:"prefer_applicants,omitempty"`
	MaxConsecutiveDays int   `json:"max_consecutive_days,omitempty"`
}

var policyKeys = []string{"prefer_applicants", "max_consecutive_days"}

// UnmarshalJSON decodes the known keys and collects the rest in Extra.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var known policyFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var rest map[string]interface{}
	if err := json.Unmarshal(data, &rest); err != nil {
		return err
	}
	for _, k := range policyKeys {
		delete(rest, k)
	}

	*p = Policy{PreferApplicants: known.PreferApplicants, MaxConsecutiveDays: known.MaxConsecutiveDays}
	if len(rest) > 0 {
		p.Extra = rest
	}
	return nil
}

// MarshalJSON writes the Extra keys next to the known ones. Known keys
// win over Extra entries of the same name.
func (p Policy) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(p.Extra)+len(policyKeys))
	for k, v := range p.Extra {
		out[k] = v
	}
	for _, k := range policyKeys {
		delete(out, k)
	}
	if p.PreferApplicants != nil {
		out["prefer_applicants"] = *p.PreferApplicants
	}
	if p.MaxConsecutiveDays != 0 {
		out["max_consecutive_days"] = p.MaxConsecutiveDays
	}
	return json.Marshal(out)
}

// ApplicantsPreferred reports whether applicants are restricted to first.
// Defaults to true.
func (p Policy) ApplicantsPreferred() bool {
	return p.PreferApplicants == nil || *p.PreferApplicants
}

// ConsecutiveDayLimit returns the maximum run of working days, default 5.
func (p Policy) ConsecutiveDayLimit() int {
	if p.MaxConsecutiveDays > 0 {
		return p.MaxConsecutiveDays
	}
	return defaultMaxConsecutiveDays
}

// Profile is a named constraint profile.
type Profile struct {
	Name          string                  `json:"name" yaml:"name"`
	Description   string                  `json:"description,omitempty" yaml:"description,omitempty"`
	Policy        Policy                  `json:"policy" yaml:"policy"`
	EmployeeRules map[string]EmployeeRule `json:"employee_rules,omitempty" yaml:"employee_rules,omitempty" validate:"dive"`
}

// RuleIndex maps canonical names to employee rules.
type RuleIndex map[string]EmployeeRule

// RuleIndex builds the lookup by canonical name. When two keys fold to the
// same name, the lexically first key wins.
func (p *Profile) RuleIndex() RuleIndex {
	keys := make([]string, 0, len(p.EmployeeRules))
	for k := range p.EmployeeRules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	idx := make(RuleIndex, len(keys))
	for _, k := range keys {
		c := CanonicalName(k)
		if c == "" {
			continue
		}
		if _, ok := idx[c]; !ok {
			idx[c] = p.EmployeeRules[k]
		}
	}
	return idx
}

// RuleFor looks the employee up by full name, first name, then username.
// Employees without a rule get the zero rule.
func (idx RuleIndex) RuleFor(e *Employee) EmployeeRule {
	for _, k := range e.LookupKeys() {
		if r, ok := idx[k]; ok {
			return r
		}
	}
	return EmployeeRule{}
}
