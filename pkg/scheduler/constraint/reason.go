package constraint

import (
	"sort"

	"github.com/shiftplan/shiftplan/pkg/model"
)

// Category is the class of a block reason.
type Category = model.ConstraintCategory

const (
	CategoryHard = model.ConstraintHard
	CategorySoft = model.ConstraintSoft
)

var obligatory = map[model.BlockReason]bool{
	model.ReasonOverlapSameDay:     true,
	model.ReasonDailyHoursOver10:   true,
	model.ReasonWeeklyHoursLimit:   true,
	model.ReasonRestUnder11h:       true,
	model.ReasonConsecutiveDays:    true,
	model.ReasonAbsence:            true,
	model.ReasonShiftSameDay:       true,
	model.ReasonNoAdditionalShifts: true,
	model.ReasonMaxSalary:          true,
}

// validationOnly codes are raised by plan validation, never by the
// evaluator. They are hard through the fail-closed default of Classify.
var validationOnly = map[model.BlockReason]bool{
	model.ReasonUnknownEmployee: true,
}

var soft = map[model.BlockReason]bool{
	model.ReasonMonthlyHours:         true,
	model.ReasonMaxAdditionalMonthly: true,
	model.ReasonMaxWeeklyHours:       true,
	model.ReasonPrefNoWeekend:        true,
	model.ReasonPrefOnlyWeekend:      true,
	model.ReasonPrefStartsTooEarly:   true,
	model.ReasonPrefEndsTooLate:      true,
	model.ReasonPrefAllowedDays:      true,
	model.ReasonPrefBlockedDays:      true,
}

// IsObligatory reports whether r is a known always-blocking code.
// Partition also blocks on codes that are neither obligatory nor soft.
func IsObligatory(r model.BlockReason) bool {
	return obligatory[r]
}

// ObligatoryReasons returns the obligatory codes, sorted.
func ObligatoryReasons() []model.BlockReason {
	out := make([]model.BlockReason, 0, len(obligatory))
	for r := range obligatory {
		out = append(out, r)
	}
	return SortedUnique(out)
}

// IsValidationOnly reports whether r is only raised when auditing a plan.
func IsValidationOnly(r model.BlockReason) bool {
	return validationOnly[r]
}

// IsSoft reports whether r is relaxed in loose mode.
func IsSoft(r model.BlockReason) bool {
	return soft[r]
}

// Classify returns the category of r.
func Classify(r model.BlockReason) Category {
	if IsSoft(r) {
		return CategorySoft
	}
	return CategoryHard
}

// Partition splits reasons into blocking and recorded-only lists for the
// given mode. Both lists are sorted and deduplicated.
func Partition(reasons []model.BlockReason, mode model.ConstraintMode) (blocked, softened []model.BlockReason) {
	for _, r := range reasons {
		if mode == model.ModeLoose && IsSoft(r) {
			softened = append(softened, r)
		} else {
			blocked = append(blocked, r)
		}
	}
	return SortedUnique(blocked), SortedUnique(softened)
}

// SortedUnique returns the sorted distinct reasons, never nil.
func SortedUnique(reasons []model.BlockReason) []model.BlockReason {
	seen := make(map[model.BlockReason]bool, len(reasons))
	out := make([]model.BlockReason, 0, len(reasons))
	for _, r := range reasons {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
