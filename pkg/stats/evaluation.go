package stats

import (
	"math"
	"sort"

	"github.com/shiftplan/shiftplan/pkg/model"
)

// applicantDrivenShare is the share of a score above which the applicant
// bonus is considered to have decided the assignment.
const applicantDrivenShare = 0.4

var (
	stableComponents  = []string{"role", "skill"}
	dynamicComponents = []string{"rest", "fairness"}
)

// PlanEvaluation summarizes how a plan's scores were formed.
type PlanEvaluation struct {
	PlanID          string                       `json:"plan_id"`
	Profile         string                       `json:"profile"`
	Mechanism       string                       `json:"mechanism"`
	TotalSlots      int                          `json:"total_slots"`
	AssignedSlots   int                          `json:"assigned_slots"`
	FillRate        float64                      `json:"fill_rate"` // percent
	AssignmentKinds map[model.AssignmentKind]int `json:"assignment_kinds"`

	Scoring     ScoringDistribution `json:"scoring_distribution"`
	Applicant   ApplicantDominance  `json:"applicant_dominance"`
	Consistency ScoringConsistency  `json:"scoring_consistency"`
}

// Distribution describes a list of values, rounded to two places.
// Std is the sample standard deviation.
type Distribution struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ScoringDistribution covers the final scores and every score component
// that is non-zero on at least one assignment.
type ScoringDistribution struct {
	Overall      Distribution            `json:"overall"`
	PerComponent map[string]Distribution `json:"per_component"`
}

// ApplicantDominance measures how much the applicant bonus drives scores.
type ApplicantDominance struct {
	DrivenCount        int     `json:"applicant_driven_count"`
	DrivenPct          float64 `json:"applicant_driven_pct"`
	AvgShare           float64 `json:"avg_applicant_share"`
	WithApplicantBonus int     `json:"total_with_applicant_bonus"`
}

// ComponentVariance is the mean per-employee variance of one component.
type ComponentVariance struct {
	MeanVariance float64 `json:"mean_variance"`
}

// ScoringConsistency compares components that should not move between an
// employee's assignments (role, skill) with those that should (rest,
// fairness). Only employees with at least two assignments count.
type ScoringConsistency struct {
	EmployeesWithMultiple int                          `json:"employees_with_multiple"`
	Stable                map[string]ComponentVariance `json:"stable_components,omitempty"`
	Dynamic               map[string]ComponentVariance `json:"dynamic_components,omitempty"`
}

// EvaluatePlan computes the scoring quality metrics of plan.
func EvaluatePlan(plan *model.Plan) *PlanEvaluation {
	assigned := len(plan.Assignments)
	total := assigned + len(plan.Unassigned)
	eval := &PlanEvaluation{
		PlanID:          plan.PlanID,
		Profile:         plan.Profile,
		Mechanism:       plan.Mechanism,
		TotalSlots:      total,
		AssignedSlots:   assigned,
		FillRate:        model.Round1(float64(assigned) / math.Max(1, float64(total)) * 100),
		AssignmentKinds: make(map[model.AssignmentKind]int),
		Scoring:         scoringDistribution(plan.Assignments),
		Applicant:       applicantDominance(plan.Assignments),
		Consistency:     scoringConsistency(plan.Assignments),
	}
	for _, a := range plan.Assignments {
		eval.AssignmentKinds[a.AssignmentKind]++
	}
	return eval
}

func scoringDistribution(assignments []model.Assignment) ScoringDistribution {
	scores := make([]float64, len(assignments))
	components := make(map[string][]float64)
	var order []string
	for i := range assignments {
		a := &assignments[i]
		scores[i] = a.Score
		for _, c := range a.ScoreDetail.Components() {
			if _, ok := components[c.Name]; !ok {
				order = append(order, c.Name)
			}
			components[c.Name] = append(components[c.Name], c.Value)
		}
	}

	dist := ScoringDistribution{
		Overall:      describe(scores),
		PerComponent: make(map[string]Distribution),
	}
	for _, name := range order {
		values := components[name]
		for _, v := range values {
			if v != 0 {
				dist.PerComponent[name] = describe(values)
				break
			}
		}
	}
	return dist
}

func applicantDominance(assignments []model.Assignment) ApplicantDominance {
	var d ApplicantDominance
	if len(assignments) == 0 {
		return d
	}

	var shares []float64
	for i := range assignments {
		a := &assignments[i]
		if a.Score <= 0 || a.ScoreDetail.Applicant <= 0 {
			continue
		}
		share := a.ScoreDetail.Applicant / a.Score
		shares = append(shares, share)
		if share > applicantDrivenShare {
			d.DrivenCount++
		}
	}
	d.WithApplicantBonus = len(shares)
	d.DrivenPct = model.Round1(float64(d.DrivenCount) / float64(len(assignments)) * 100)
	d.AvgShare = model.Round4(mean(shares))
	return d
}

func scoringConsistency(assignments []model.Assignment) ScoringConsistency {
	byEmployee := make(map[string][]model.ScoreDetail)
	for i := range assignments {
		a := &assignments[i]
		key := a.EmployeeID
		if key == "" {
			key = a.EmployeeName
		}
		if key == "" {
			continue
		}
		byEmployee[key] = append(byEmployee[key], a.ScoreDetail)
	}

	var multi [][]model.ScoreDetail
	for _, details := range byEmployee {
		if len(details) >= 2 {
			multi = append(multi, details)
		}
	}
	c := ScoringConsistency{EmployeesWithMultiple: len(multi)}
	if len(multi) == 0 {
		return c
	}
	c.Stable = meanVariances(multi, stableComponents)
	c.Dynamic = meanVariances(multi, dynamicComponents)
	return c
}

func meanVariances(groups [][]model.ScoreDetail, names []string) map[string]ComponentVariance {
	out := make(map[string]ComponentVariance, len(names))
	for _, name := range names {
		variances := make([]float64, 0, len(groups))
		for _, details := range groups {
			values := make([]float64, len(details))
			for i, d := range details {
				values[i] = componentValue(d, name)
			}
			variances = append(variances, sampleVariance(values))
		}
		out[name] = ComponentVariance{MeanVariance: model.Round4(mean(variances))}
	}
	return out
}

func componentValue(d model.ScoreDetail, name string) float64 {
	for _, c := range d.Components() {
		if c.Name == name {
			return c.Value
		}
	}
	return 0
}

func describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	maxV, minV := valueRange(values)
	d := Distribution{
		Mean:   model.Round2(mean(values)),
		Median: model.Round2(median(values)),
		Min:    model.Round2(minV),
		Max:    model.Round2(maxV),
	}
	if len(values) > 1 {
		d.Std = model.Round2(math.Sqrt(sampleVariance(values)))
	}
	return d
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sampleVariance divides by n-1; fewer than two values yield 0.
func sampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return populationVariance(values, mean(values)) * float64(len(values)) / float64(len(values)-1)
}
