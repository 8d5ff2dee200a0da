// Package evaluator scores one employee against one open slot.
package evaluator

import (
	"math"
	"sort"

	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/constraint"
	"github.com/shiftplan/shiftplan/pkg/scheduler/scoring"
)

// maxReasonLabels caps the explanation labels per evaluation.
const maxReasonLabels = 3

// Evaluation is the result of scoring one candidate for one slot.
type Evaluation struct {
	EmployeeID         string
	EmployeeName       string
	Score              float64
	Blocked            bool
	IsApplicant        bool
	Reasons            []model.ScoreReason
	BlockedReasons     []model.BlockReason
	SoftViolations     []model.BlockReason
	ScoreDetail        model.ScoreDetail
	HoursExistingMonth float64
	HoursRunMonth      float64
	TargetHours        *float64
	WeekShifts         int
	ProjectedSalary    *float64
}

// Input is everything needed to evaluate one (employee, slot) pair.
type Input struct {
	Employee    *model.Employee
	Rule        model.EmployeeRule
	Preferences model.ShiftPreferences
	Slot        *model.OpenSlot
	IsApplicant bool

	Existing []model.WorkedShift
	Run      []model.WorkedShift
	Absences []model.Absence

	Policy             model.Policy
	RunExtraMonthHours float64
	Mode               model.ConstraintMode
}

// Evaluator scores candidates with injected weights.
type Evaluator struct {
	weights     scoring.Weights
	affinity    scoring.AffinityMap
	constraints *constraint.Manager
	fixed       FixedPatterns
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithAffinity replaces the role affinity map.
func WithAffinity(a scoring.AffinityMap) Option {
	return func(e *Evaluator) { e.affinity = a }
}

// WithConstraintManager replaces the constraint checks.
func WithConstraintManager(m *constraint.Manager) Option {
	return func(e *Evaluator) { e.constraints = m }
}

// New creates an evaluator.
func New(weights scoring.Weights, fixed FixedPatterns, opts ...Option) *Evaluator {
	e := &Evaluator{
		weights:     weights,
		affinity:    scoring.DefaultAffinity(),
		constraints: constraint.NewDefaultManager(),
		fixed:       fixed,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate checks every constraint and computes the score breakdown.
// A blocked candidate keeps its breakdown but scores 0.
func (e *Evaluator) Evaluate(in *Input) Evaluation {
	emp := in.Employee
	w := e.weights
	ctx := &constraint.Context{
		Employee:           emp,
		Rule:               in.Rule,
		Slot:               in.Slot.Worked(),
		Policy:             in.Policy,
		Existing:           in.Existing,
		Run:                in.Run,
		Absences:           in.Absences,
		RunExtraMonthHours: in.RunExtraMonthHours,
	}

	reasons := e.constraints.Check(ctx)
	prefScore, prefViolations := scoring.EvaluatePreferences(in.Preferences, in.Slot, w.PreferenceOptions())
	reasons = append(reasons, prefViolations...)
	blockedReasons, softViolations := constraint.Partition(reasons, in.Mode)
	blocked := len(blockedReasons) > 0

	existingMonth := ctx.ExistingMonthHours()
	runMonth := ctx.RunMonthHours()
	weekShifts := constraint.ShiftsInWeek(ctx.AllShifts(), model.WeekKey(in.Slot.Date))

	var detail model.ScoreDetail

	target, hasTarget := constraint.TargetHours(emp, in.Rule)
	if hasTarget && target > 0 {
		remaining := math.Max(target-(existingMonth+runMonth), 0)
		detail.Rest = math.Min(remaining/target*w.RestMax, w.RestMax)
	} else {
		detail.Rest = w.RestMax * w.RestFallbackRatio
	}

	detail.Fairness = math.Max(w.FairnessMax-w.FairnessStep*float64(weekShifts), 0)
	detail.Role = scoring.RoleMatchScore(emp.Role, in.Slot.ShiftType, e.affinity, w)
	detail.Skill = e.skillScore(emp, in.Slot, in.Rule)
	if e.fixed.Matches(emp.ID, in.Slot) {
		detail.Fixed = w.FixedBonus
	}
	if in.IsApplicant {
		detail.Applicant = w.ApplicantBonus
	}

	var projectedSalary *float64
	if projected, ok := constraint.ProjectSalary(emp, ctx.ProjectedMonthHours()); ok {
		v, _ := projected.Float64()
		projectedSalary = model.Float(model.Round2(v))
		if limit, _ := emp.SalaryCap(); v > 0 && v > w.SalaryWarningRatio*limit {
			detail.Salary = w.SalaryWarningPenalty
		}
	}

	if matchesPreferredType(in.Rule.PreferredShiftTypes, in.Slot.ShiftType) {
		prefScore += w.PreferenceBonus * w.PreferredTypeRatio
	}
	detail.Preference = prefScore
	detail = detail.Rounded()

	score := 0.0
	if !blocked {
		score = model.Round2(detail.Total())
	}

	var targetHours *float64
	if hasTarget {
		targetHours = model.Float(model.Round2(target))
	}

	return Evaluation{
		EmployeeID:         emp.ID,
		EmployeeName:       emp.DisplayName(),
		Score:              score,
		Blocked:            blocked,
		IsApplicant:        in.IsApplicant,
		Reasons:            reasonLabels(detail),
		BlockedReasons:     blockedReasons,
		SoftViolations:     softViolations,
		ScoreDetail:        detail,
		HoursExistingMonth: model.Round2(existingMonth),
		HoursRunMonth:      model.Round2(runMonth),
		TargetHours:        targetHours,
		WeekShifts:         weekShifts,
		ProjectedSalary:    projectedSalary,
	}
}

// skillScore rewards a match between the slot's type or area and the
// employee's skills or preferred working areas.
func (e *Evaluator) skillScore(emp *model.Employee, slot *model.OpenSlot, rule model.EmployeeRule) float64 {
	tags := canonicalSet([]string{slot.ShiftType, slot.WorkingArea})
	if intersects(tags, canonicalSet(emp.Skills)) || intersects(tags, canonicalSet(rule.PreferredWorkingAreas)) {
		return e.weights.SkillBonus
	}
	return 0
}

func matchesPreferredType(preferred []string, shiftType string) bool {
	st := model.CanonicalName(shiftType)
	return st != "" && canonicalSet(preferred)[st]
}

func canonicalSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		if c := model.CanonicalName(v); c != "" {
			out[c] = true
		}
	}
	return out
}

func intersects(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

var componentLabels = map[string]model.ScoreReason{
	"applicant":  model.ScoreAppliedForShift,
	"rest":       model.ScoreRemainingTarget,
	"fairness":   model.ScoreFairDistribution,
	"role":       model.ScoreRoleMatch,
	"skill":      model.ScoreSkillAreaMatch,
	"fixed":      model.ScoreFixedPattern,
	"preference": model.ScorePreferenceMatch,
}

// reasonLabels names up to three of the largest components by absolute
// value. Positive components get their label, the salary component only
// when it is a penalty.
func reasonLabels(detail model.ScoreDetail) []model.ScoreReason {
	components := detail.Components()
	sort.SliceStable(components, func(i, j int) bool {
		return math.Abs(components[i].Value) > math.Abs(components[j].Value)
	})

	labels := make([]model.ScoreReason, 0, maxReasonLabels)
	for _, c := range components {
		if c.Value == 0 {
			continue
		}
		switch {
		case c.Name == "salary" && c.Value < 0:
			labels = append(labels, model.ScoreNearSalaryLimit)
		case c.Name != "salary" && c.Value > 0:
			labels = append(labels, componentLabels[c.Name])
		}
		if len(labels) >= maxReasonLabels {
			break
		}
	}
	return labels
}

// Rank orders evaluations: unblocked first, then by descending score,
// canonical name and id.
func Rank(evals []Evaluation) {
	sort.SliceStable(evals, func(i, j int) bool {
		a, b := evals[i], evals[j]
		if a.Blocked != b.Blocked {
			return !a.Blocked
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		an, bn := model.CanonicalName(a.EmployeeName), model.CanonicalName(b.EmployeeName)
		if an != bn {
			return an < bn
		}
		return a.EmployeeID < b.EmployeeID
	})
}
