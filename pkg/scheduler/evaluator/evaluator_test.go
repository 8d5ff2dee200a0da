package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/scoring"
)

func testSlot() *model.OpenSlot {
	return &model.OpenSlot{
		SlotID:      "s1",
		Date:        "2025-03-12",
		Start:       "09:00",
		End:         "17:00",
		ShiftType:   "service",
		WorkingArea: "Restaurant",
	}
}

func testEmployee() *model.Employee {
	return &model.Employee{ID: "e1", FullName: "Anna Schmidt", Role: "Service", Skills: []string{"Restaurant"}}
}

func TestEvaluate_ApplicantBreakdown(t *testing.T) {
	ev := New(scoring.DefaultWeights(), nil)

	got := ev.Evaluate(&Input{
		Employee:    testEmployee(),
		Rule:        model.EmployeeRule{TargetWeeklyHours: model.Float(20)},
		Slot:        testSlot(),
		IsApplicant: true,
		Mode:        model.ModeStrict,
	})

	assert.False(t, got.Blocked)
	assert.Empty(t, got.BlockedReasons)
	assert.Equal(t, model.ScoreDetail{Rest: 40, Fairness: 30, Role: 20, Skill: 12, Applicant: 80}, got.ScoreDetail)
	assert.Equal(t, 182.0, got.Score)
	assert.Equal(t, []model.ScoreReason{
		model.ScoreAppliedForShift,
		model.ScoreRemainingTarget,
		model.ScoreFairDistribution,
	}, got.Reasons)
	require.NotNil(t, got.TargetHours)
	assert.Equal(t, 86.6, *got.TargetHours)
	assert.Nil(t, got.ProjectedSalary)
}

func TestEvaluate_HistoryReducesRestAndFairness(t *testing.T) {
	ev := New(scoring.DefaultWeights(), nil)

	got := ev.Evaluate(&Input{
		Employee: testEmployee(),
		Rule:     model.EmployeeRule{TargetWeeklyHours: model.Float(20)},
		Slot:     testSlot(),
		Existing: []model.WorkedShift{{Date: "2025-03-10", Start: "09:00", End: "15:00", Hours: 6}},
		Mode:     model.ModeStrict,
	})

	assert.False(t, got.Blocked)
	assert.Equal(t, 37.23, got.ScoreDetail.Rest)
	assert.Equal(t, 24.0, got.ScoreDetail.Fairness)
	assert.Equal(t, 1, got.WeekShifts)
	assert.Equal(t, 6.0, got.HoursExistingMonth)
	assert.Equal(t, 0.0, got.ScoreDetail.Applicant)
}

func TestEvaluate_BlockedScoresZero(t *testing.T) {
	ev := New(scoring.DefaultWeights(), nil)

	got := ev.Evaluate(&Input{
		Employee: testEmployee(),
		Rule:     model.EmployeeRule{NoAdditionalShifts: true},
		Slot:     testSlot(),
		Absences: []model.Absence{{EmployeeID: "e1", StartDate: "2025-03-11", EndDate: "2025-03-13"}},
		Mode:     model.ModeStrict,
	})

	assert.True(t, got.Blocked)
	assert.Equal(t, 0.0, got.Score)
	assert.Equal(t, []model.BlockReason{model.ReasonAbsence, model.ReasonNoAdditionalShifts}, got.BlockedReasons)
	assert.NotZero(t, got.ScoreDetail.Fairness, "breakdown is kept for audit")
}

func TestEvaluate_LooseModeRecordsSoftViolations(t *testing.T) {
	ev := New(scoring.DefaultWeights(), nil)
	in := &Input{
		Employee:    testEmployee(),
		Rule:        model.EmployeeRule{MaxMonthlyHours: model.Float(4)},
		Preferences: model.ShiftPreferences{OnlyWeekend: true},
		Slot:        testSlot(),
		Mode:        model.ModeStrict,
	}

	strict := ev.Evaluate(in)
	assert.True(t, strict.Blocked)
	assert.Equal(t, []model.BlockReason{model.ReasonMonthlyHours, model.ReasonPrefOnlyWeekend}, strict.BlockedReasons)
	assert.Empty(t, strict.SoftViolations)

	in.Mode = model.ModeLoose
	loose := ev.Evaluate(in)
	assert.False(t, loose.Blocked)
	assert.Empty(t, loose.BlockedReasons)
	assert.Equal(t, []model.BlockReason{model.ReasonMonthlyHours, model.ReasonPrefOnlyWeekend}, loose.SoftViolations)
	assert.Equal(t, -35.0, loose.ScoreDetail.Preference)
	assert.Greater(t, loose.Score, 0.0)
}

func TestEvaluate_LooseModeKeepsObligatory(t *testing.T) {
	ev := New(scoring.DefaultWeights(), nil)
	got := ev.Evaluate(&Input{
		Employee: testEmployee(),
		Slot:     testSlot(),
		Existing: []model.WorkedShift{{Date: "2025-03-11", Start: "17:00", End: "23:00"}},
		Mode:     model.ModeLoose,
	})

	assert.True(t, got.Blocked)
	assert.Contains(t, got.BlockedReasons, model.ReasonRestUnder11h)
}

func TestEvaluate_SalaryGuardIdempotence(t *testing.T) {
	ev := New(scoring.DefaultWeights(), nil)
	employee := testEmployee()
	employee.HourlyWage = 20
	employee.MaxSalary = model.Float(300)

	in := &Input{
		Employee: employee,
		Rule:     model.EmployeeRule{MaxMonthlyHours: model.Float(200)},
		Slot:     testSlot(),
		Existing: []model.WorkedShift{
			{Date: "2025-03-03", Start: "09:00", End: "17:00"},
			{Date: "2025-03-10", Start: "18:00", End: "22:00"},
		},
		Mode: model.ModeStrict,
	}

	capped := ev.Evaluate(in)
	require.True(t, capped.Blocked)
	assert.Contains(t, capped.BlockedReasons, model.ReasonMaxSalary)
	require.NotNil(t, capped.ProjectedSalary)
	assert.Equal(t, 400.0, *capped.ProjectedSalary)

	employee.MaxSalary = model.Float(2000)
	raised := ev.Evaluate(in)

	var want []model.BlockReason
	for _, r := range capped.BlockedReasons {
		if r != model.ReasonMaxSalary {
			want = append(want, r)
		}
	}
	assert.ElementsMatch(t, want, raised.BlockedReasons)
	assert.False(t, raised.Blocked)
	assert.Equal(t, capped.ScoreDetail.Rest, raised.ScoreDetail.Rest)
	assert.Equal(t, capped.ScoreDetail.Fairness, raised.ScoreDetail.Fairness)
}

func TestEvaluate_SalaryWarning(t *testing.T) {
	ev := New(scoring.DefaultWeights(), nil)
	employee := testEmployee()
	employee.HourlyWage = 20
	employee.MaxSalary = model.Float(170)

	got := ev.Evaluate(&Input{
		Employee: employee,
		Rule:     model.EmployeeRule{MaxMonthlyHours: model.Float(200)},
		Slot:     testSlot(),
		Mode:     model.ModeStrict,
	})

	assert.False(t, got.Blocked)
	assert.Equal(t, -12.0, got.ScoreDetail.Salary)
	assert.Equal(t, 160.0, *got.ProjectedSalary)
}

func TestEvaluate_PreferredShiftTypeAndFixedPattern(t *testing.T) {
	history := []model.ExistingShift{
		{EmployeeID: "e1", WorkedShift: model.WorkedShift{Date: "2025-02-19", Start: "09:00", End: "17:00"}},
		{EmployeeID: "e1", WorkedShift: model.WorkedShift{Date: "2025-02-26", Start: "09:00", End: "17:00"}},
		{EmployeeID: "e1", WorkedShift: model.WorkedShift{Date: "2025-03-05", Start: "09:00", End: "17:00"}},
		{EmployeeID: "e2", WorkedShift: model.WorkedShift{Date: "2025-03-05", Start: "09:00", End: "17:00"}},
	}
	ev := New(scoring.DefaultWeights(), DeriveFixedPatterns(history))

	got := ev.Evaluate(&Input{
		Employee: testEmployee(),
		Rule:     model.EmployeeRule{PreferredShiftTypes: []string{"Service"}},
		Slot:     testSlot(),
		Mode:     model.ModeStrict,
	})

	assert.Equal(t, 12.0, got.ScoreDetail.Fixed)
	assert.Equal(t, 7.5, got.ScoreDetail.Preference)
}

func TestEvaluate_InjectedWeights(t *testing.T) {
	w := scoring.DefaultWeights()
	w.ApplicantBonus = 5
	ev := New(w, nil)

	got := ev.Evaluate(&Input{Employee: testEmployee(), Slot: testSlot(), IsApplicant: true, Mode: model.ModeStrict})
	assert.Equal(t, 5.0, got.ScoreDetail.Applicant)
}

func TestReasonLabels(t *testing.T) {
	labels := reasonLabels(model.ScoreDetail{Rest: 10, Fairness: 0, Role: 10, Salary: -50, Preference: -35})
	assert.Equal(t, []model.ScoreReason{model.ScoreNearSalaryLimit, model.ScoreRemainingTarget, model.ScoreRoleMatch}, labels)

	assert.Empty(t, reasonLabels(model.ScoreDetail{}))
}

func TestRank(t *testing.T) {
	evals := []Evaluation{
		{EmployeeID: "4", EmployeeName: "Zoe", Blocked: true},
		{EmployeeID: "3", EmployeeName: "Bert", Score: 50},
		{EmployeeID: "2", EmployeeName: "Ärne", Score: 80},
		{EmployeeID: "1", EmployeeName: "Anna", Score: 80},
		{EmployeeID: "0", EmployeeName: "Anna", Score: 80},
	}
	Rank(evals)

	ids := make([]string, len(evals))
	for i, e := range evals {
		ids[i] = e.EmployeeID
	}
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, ids)
}
