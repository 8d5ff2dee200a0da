package evaluator

import (
	"github.com/shiftplan/shiftplan/pkg/model"
)

// fixedPatternMinOccurrences is how often an (employee, weekday, start,
// end) combination must recur in history to count as a fixed pattern.
const fixedPatternMinOccurrences = 3

type patternKey struct {
	employeeID string
	weekday    int
	start, end string
}

// FixedPatterns are recurring historical shifts per employee.
type FixedPatterns map[patternKey]int

// DeriveFixedPatterns counts historical shifts by employee, weekday and
// clock times and keeps the combinations seen at least three times.
func DeriveFixedPatterns(history []model.ExistingShift) FixedPatterns {
	counts := make(map[patternKey]int)
	for _, s := range history {
		if s.EmployeeID == "" || s.Date == "" {
			continue
		}
		t, ok := model.ParseDate(s.Date)
		if !ok {
			continue
		}
		counts[patternKey{s.EmployeeID, model.WeekdayIndex(t), s.Start, s.End}]++
	}

	out := make(FixedPatterns)
	for k, n := range counts {
		if n >= fixedPatternMinOccurrences {
			out[k] = n
		}
	}
	return out
}

// Matches reports whether the slot repeats one of the employee's patterns.
func (f FixedPatterns) Matches(employeeID string, slot *model.OpenSlot) bool {
	t, ok := model.ParseDate(slot.Date)
	if !ok {
		return false
	}
	_, hit := f[patternKey{employeeID, model.WeekdayIndex(t), slot.Start, slot.End}]
	return hit
}
