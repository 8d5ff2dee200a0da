package constraint

import (
	"github.com/shopspring/decimal"

	"github.com/shiftplan/shiftplan/pkg/model"
)

const (
	// WeeksPerMonth converts weekly hours to monthly hours.
	WeeksPerMonth = 4.33

	miniJobMonthlyHours       = 43.0
	workingStudentWeeklyHours = 20.0
	defaultMonthlyHours       = 160.0
	defaultWeeklyHours        = 48.0
)

// EffectiveMonthlyCap returns the employee's monthly hour cap. The second
// result is false when caps are disabled for the employee.
func EffectiveMonthlyCap(e *model.Employee, rule model.EmployeeRule) (float64, bool) {
	if rule.DisableMaxHours {
		return 0, false
	}
	if rule.MaxMonthlyHours != nil {
		return *rule.MaxMonthlyHours, true
	}
	if rule.TargetWeeklyHours != nil {
		return *rule.TargetWeeklyHours * WeeksPerMonth, true
	}

	salaryHours, hasSalaryCap := salaryCapHours(e)
	switch e.Category() {
	case model.EmploymentMini:
		if hasSalaryCap {
			return min(miniJobMonthlyHours, salaryHours), true
		}
		return miniJobMonthlyHours, true
	case model.EmploymentWorkingStudent:
		return workingStudentWeeklyHours * WeeksPerMonth, true
	}
	if hasSalaryCap {
		return salaryHours, true
	}
	return defaultMonthlyHours, true
}

// EffectiveWeeklyCap returns the labor-law weekly hour limit for the employee.
func EffectiveWeeklyCap(e *model.Employee, rule model.EmployeeRule) float64 {
	if rule.MaxWeeklyHours != nil {
		return *rule.MaxWeeklyHours
	}
	if e.Category() == model.EmploymentWorkingStudent {
		return workingStudentWeeklyHours
	}
	return defaultWeeklyHours
}

// TargetHours returns the monthly hours the rest score aims for.
func TargetHours(e *model.Employee, rule model.EmployeeRule) (float64, bool) {
	if rule.TargetWeeklyHours != nil {
		return *rule.TargetWeeklyHours * WeeksPerMonth, true
	}
	if rule.MaxMonthlyHours != nil {
		return *rule.MaxMonthlyHours, true
	}
	return EffectiveMonthlyCap(e, rule)
}

func salaryCapHours(e *model.Employee) (float64, bool) {
	limit, ok := e.SalaryCap()
	if !ok {
		return 0, false
	}
	hours, _ := decimal.NewFromFloat(limit).Div(decimal.NewFromFloat(e.HourlyWage)).Float64()
	return hours, true
}

// ProjectSalary returns monthHours × wage for employees with a salary cap.
func ProjectSalary(e *model.Employee, monthHours float64) (decimal.Decimal, bool) {
	if _, ok := e.SalaryCap(); !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(monthHours).Mul(decimal.NewFromFloat(e.HourlyWage)), true
}

// ExceedsSalaryCap reports whether the projected salary is above the cap.
func ExceedsSalaryCap(e *model.Employee, projected decimal.Decimal) bool {
	limit, ok := e.SalaryCap()
	return ok && projected.GreaterThan(decimal.NewFromFloat(limit))
}
