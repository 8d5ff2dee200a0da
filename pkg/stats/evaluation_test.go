package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftplan/shiftplan/pkg/model"
)

func detailed(slotID, employeeID string, detail model.ScoreDetail, kind model.AssignmentKind) model.Assignment {
	return model.Assignment{
		SlotID:         slotID,
		EmployeeID:     employeeID,
		Score:          detail.Total(),
		ScoreDetail:    detail,
		AssignmentKind: kind,
	}
}

func evaluationPlan() *model.Plan {
	return &model.Plan{
		PlanID:    "plan-eval",
		Profile:   "default",
		Mechanism: "algo",
		Assignments: []model.Assignment{
			// score 10, applicant share 0.4
			detailed("s1", "e1", model.ScoreDetail{Rest: 2, Fairness: 1, Role: 3, Applicant: 4}, model.KindApplicant),
			// score 8, no applicant bonus
			detailed("s2", "e1", model.ScoreDetail{Rest: 1, Fairness: 3, Role: 3, Skill: 1}, model.KindWithoutApplicant),
			// score 6, applicant share 0.667
			detailed("s3", "e2", model.ScoreDetail{Rest: 1, Role: 1, Applicant: 4}, model.KindApplicant),
		},
		Unassigned: []model.Unassigned{{SlotID: "s4"}},
	}
}

func TestEvaluatePlan(t *testing.T) {
	eval := EvaluatePlan(evaluationPlan())

	assert.Equal(t, "plan-eval", eval.PlanID)
	assert.Equal(t, 4, eval.TotalSlots)
	assert.Equal(t, 3, eval.AssignedSlots)
	assert.Equal(t, 75.0, eval.FillRate)
	assert.Equal(t, map[model.AssignmentKind]int{model.KindApplicant: 2, model.KindWithoutApplicant: 1}, eval.AssignmentKinds)
}

func TestEvaluatePlan_ScoringDistribution(t *testing.T) {
	dist := EvaluatePlan(evaluationPlan()).Scoring

	assert.Equal(t, Distribution{Mean: 8, Median: 8, Std: 2, Min: 6, Max: 10}, dist.Overall)

	require.Len(t, dist.PerComponent, 5, "fixed, preference and salary are zero everywhere")
	for _, name := range []string{"fixed", "preference", "salary"} {
		assert.NotContains(t, dist.PerComponent, name)
	}
	// rest 2,1,1
	assert.Equal(t, Distribution{Mean: 1.33, Median: 1, Std: 0.58, Min: 1, Max: 2}, dist.PerComponent["rest"])
	// fairness 1,3,0
	assert.Equal(t, Distribution{Mean: 1.33, Median: 1, Std: 1.53, Min: 0, Max: 3}, dist.PerComponent["fairness"])
	// role 3,3,1
	assert.Equal(t, Distribution{Mean: 2.33, Median: 3, Std: 1.15, Min: 1, Max: 3}, dist.PerComponent["role"])
	// applicant 4,0,4
	assert.Equal(t, Distribution{Mean: 2.67, Median: 4, Std: 2.31, Min: 0, Max: 4}, dist.PerComponent["applicant"])
}

func TestEvaluatePlan_ApplicantDominance(t *testing.T) {
	d := EvaluatePlan(evaluationPlan()).Applicant

	assert.Equal(t, 1, d.DrivenCount, "a share of exactly 0.4 is not dominant")
	assert.Equal(t, 2, d.WithApplicantBonus)
	assert.Equal(t, 33.3, d.DrivenPct)
	assert.Equal(t, 0.5333, d.AvgShare)
}

func TestEvaluatePlan_ScoringConsistency(t *testing.T) {
	c := EvaluatePlan(evaluationPlan()).Consistency

	assert.Equal(t, 1, c.EmployeesWithMultiple)
	assert.Equal(t, map[string]ComponentVariance{
		"role":  {MeanVariance: 0},
		"skill": {MeanVariance: 0.5},
	}, c.Stable)
	assert.Equal(t, map[string]ComponentVariance{
		"rest":     {MeanVariance: 0.5},
		"fairness": {MeanVariance: 2},
	}, c.Dynamic)
}

func TestEvaluatePlan_Empty(t *testing.T) {
	eval := EvaluatePlan(&model.Plan{PlanID: "empty"})

	assert.Zero(t, eval.FillRate)
	assert.Equal(t, Distribution{}, eval.Scoring.Overall)
	assert.Empty(t, eval.Scoring.PerComponent)
	assert.Equal(t, ApplicantDominance{}, eval.Applicant)
	assert.Equal(t, ScoringConsistency{}, eval.Consistency)
}

func TestSampleVariance(t *testing.T) {
	assert.Zero(t, sampleVariance(nil))
	assert.Zero(t, sampleVariance([]float64{5}))
	assert.InDelta(t, 2.5, sampleVariance([]float64{1, 2, 3, 4, 5}), 1e-9)
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
}
