package constraint

import (
	"github.com/shiftplan/shiftplan/pkg/model"
)

// BaseConstraint carries the name and type shared by every check.
type BaseConstraint struct {
	name string
	typ  Type
}

func (b *BaseConstraint) Name() string { return b.name }
func (b *BaseConstraint) Type() Type   { return b.typ }

func one(r model.BlockReason) []model.BlockReason {
	return []model.BlockReason{r}
}

// NoAdditionalShiftsConstraint blocks employees whose rule forbids new shifts.
type NoAdditionalShiftsConstraint struct{ BaseConstraint }

func NewNoAdditionalShiftsConstraint() *NoAdditionalShiftsConstraint {
	return &NoAdditionalShiftsConstraint{BaseConstraint{"no additional shifts", TypeNoAdditionalShifts}}
}

func (c *NoAdditionalShiftsConstraint) Check(ctx *Context) []model.BlockReason {
	if ctx.Rule.NoAdditionalShifts {
		return one(model.ReasonNoAdditionalShifts)
	}
	return nil
}

// AbsenceConstraint blocks employees absent on the slot date.
type AbsenceConstraint struct{ BaseConstraint }

func NewAbsenceConstraint() *AbsenceConstraint {
	return &AbsenceConstraint{BaseConstraint{"absence", TypeAbsence}}
}

func (c *AbsenceConstraint) Check(ctx *Context) []model.BlockReason {
	for _, a := range ctx.Absences {
		if a.Covers(ctx.Slot.Date) {
			return one(model.ReasonAbsence)
		}
	}
	return nil
}

// ShiftSameDayConstraint allows at most one shift per employee and day.
type ShiftSameDayConstraint struct{ BaseConstraint }

func NewShiftSameDayConstraint() *ShiftSameDayConstraint {
	return &ShiftSameDayConstraint{BaseConstraint{"one shift per day", TypeShiftSameDay}}
}

func (c *ShiftSameDayConstraint) Check(ctx *Context) []model.BlockReason {
	for _, s := range ctx.AllShifts() {
		if s.Date == ctx.Slot.Date {
			return one(model.ReasonShiftSameDay)
		}
	}
	return nil
}

// LaborLawConstraint applies the working-time law checks.
type LaborLawConstraint struct{ BaseConstraint }

func NewLaborLawConstraint() *LaborLawConstraint {
	return &LaborLawConstraint{BaseConstraint{"working time law", TypeLaborLaw}}
}

func (c *LaborLawConstraint) Check(ctx *Context) []model.BlockReason {
	weekly := EffectiveWeeklyCap(ctx.Employee, ctx.Rule)
	return LaborViolations(ctx.Existing, ctx.Run, ctx.Slot, weekly, ctx.Policy.ConsecutiveDayLimit())
}

// MonthlyCapConstraint limits projected month hours to the effective cap.
type MonthlyCapConstraint struct{ BaseConstraint }

func NewMonthlyCapConstraint() *MonthlyCapConstraint {
	return &MonthlyCapConstraint{BaseConstraint{"monthly hours cap", TypeMonthlyCap}}
}

func (c *MonthlyCapConstraint) Check(ctx *Context) []model.BlockReason {
	limit, ok := EffectiveMonthlyCap(ctx.Employee, ctx.Rule)
	if ok && ctx.ProjectedMonthHours() > limit {
		return one(model.ReasonMonthlyHours)
	}
	return nil
}

// AdditionalMonthlyCapConstraint limits hours added by this run per month.
type AdditionalMonthlyCapConstraint struct{ BaseConstraint }

func NewAdditionalMonthlyCapConstraint() *AdditionalMonthlyCapConstraint {
	return &AdditionalMonthlyCapConstraint{BaseConstraint{"additional monthly hours cap", TypeAdditionalMonthlyCap}}
}

func (c *AdditionalMonthlyCapConstraint) Check(ctx *Context) []model.BlockReason {
	limit := ctx.Rule.MaxAdditionalMonthlyHours
	if limit != nil && ctx.RunExtraMonthHours+ctx.Slot.DurationHours() > *limit {
		return one(model.ReasonMaxAdditionalMonthly)
	}
	return nil
}

// RunWeeklyCapConstraint limits hours added by this run per week.
type RunWeeklyCapConstraint struct{ BaseConstraint }

func NewRunWeeklyCapConstraint() *RunWeeklyCapConstraint {
	return &RunWeeklyCapConstraint{BaseConstraint{"weekly hours cap", TypeRunWeeklyCap}}
}

func (c *RunWeeklyCapConstraint) Check(ctx *Context) []model.BlockReason {
	limit := ctx.Rule.MaxWeeklyHours
	if limit == nil {
		return nil
	}
	if HoursInWeek(ctx.Run, model.WeekKey(ctx.Slot.Date))+ctx.Slot.DurationHours() > *limit {
		return one(model.ReasonMaxWeeklyHours)
	}
	return nil
}

// SalaryCapConstraint blocks when projected month salary exceeds the cap.
type SalaryCapConstraint struct{ BaseConstraint }

func NewSalaryCapConstraint() *SalaryCapConstraint {
	return &SalaryCapConstraint{BaseConstraint{"salary cap", TypeSalaryCap}}
}

func (c *SalaryCapConstraint) Check(ctx *Context) []model.BlockReason {
	projected, ok := ProjectSalary(ctx.Employee, ctx.ProjectedMonthHours())
	if ok && ExceedsSalaryCap(ctx.Employee, projected) {
		return one(model.ReasonMaxSalary)
	}
	return nil
}
