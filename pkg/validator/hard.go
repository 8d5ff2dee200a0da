// Package validator audits finished plans against the obligatory constraints.
package validator

import (
	"fmt"

	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/constraint"
)

// HardValidator checks every assignment of a plan independently of how the
// plan was produced.
type HardValidator struct {
	manager *constraint.Manager
}

// NewHardValidator creates a validator running the obligatory checks.
func NewHardValidator() *HardValidator {
	return &HardValidator{manager: constraint.NewObligatoryManager()}
}

// ValidateHardConstraints audits plan with the default validator.
func ValidateHardConstraints(plan *model.Plan, snapshot *model.Snapshot, profile *model.Profile) []model.HardViolation {
	return NewHardValidator().Validate(plan, snapshot, profile)
}

// Validate returns one violation per obligatory reason per assignment, in
// assignment order. Each assignment is checked against the employee's
// history and all other assignments of the plan.
func (v *HardValidator) Validate(plan *model.Plan, snapshot *model.Snapshot, profile *model.Profile) []model.HardViolation {
	violations := make([]model.HardViolation, 0)
	if plan == nil {
		return violations
	}
	if snapshot == nil {
		snapshot = &model.Snapshot{}
	}
	if profile == nil {
		profile = &model.Profile{}
	}

	employees := snapshot.EmployeeByID()
	existing := snapshot.ExistingByEmployee()
	absences := snapshot.AbsencesByEmployee()
	rules := profile.RuleIndex()

	// assignment indexes per employee
	byEmployee := make(map[string][]int)
	for i, a := range plan.Assignments {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], i)
	}

	for i := range plan.Assignments {
		a := &plan.Assignments[i]
		name := a.EmployeeName
		if name == "" {
			name = a.EmployeeID
		}

		emp, ok := employees[a.EmployeeID]
		if !ok {
			violations = append(violations, model.HardViolation{
				SlotID:       a.SlotID,
				EmployeeID:   a.EmployeeID,
				EmployeeName: name,
				Violation:    model.ReasonUnknownEmployee,
				Detail:       fmt.Sprintf("employee %s not found in snapshot", a.EmployeeID),
			})
			continue
		}

		var others []model.WorkedShift
		for _, j := range byEmployee[a.EmployeeID] {
			if j != i {
				w := plan.Assignments[j].Worked()
				w.Hours = w.DurationHours()
				others = append(others, w)
			}
		}

		slot := a.Worked()
		slot.Hours = slot.DurationHours()
		ctx := &constraint.Context{
			Employee: emp,
			Rule:     rules.RuleFor(emp),
			Slot:     slot,
			Policy:   profile.Policy,
			Existing: existing[a.EmployeeID],
			Run:      others,
			Absences: absences[a.EmployeeID],
		}

		for _, reason := range v.manager.Check(ctx) {
			violations = append(violations, model.HardViolation{
				SlotID:       a.SlotID,
				EmployeeID:   a.EmployeeID,
				EmployeeName: name,
				Violation:    reason,
				Detail:       detail(reason, ctx),
			})
		}
	}
	return violations
}

func detail(reason model.BlockReason, ctx *constraint.Context) string {
	switch reason {
	case model.ReasonNoAdditionalShifts:
		return "employee is flagged no_additional_shifts"
	case model.ReasonAbsence:
		return fmt.Sprintf("employee absent on %s", ctx.Slot.Date)
	case model.ReasonShiftSameDay:
		return fmt.Sprintf("employee already works on %s", ctx.Slot.Date)
	case model.ReasonMaxSalary:
		projected, _ := constraint.ProjectSalary(ctx.Employee, ctx.ProjectedMonthHours())
		limit, _ := ctx.Employee.SalaryCap()
		return fmt.Sprintf("projected salary %s > max %.2f", projected.StringFixed(2), limit)
	}
	return fmt.Sprintf("working time violation: %s", reason)
}
