package solver

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiftplan/shiftplan/pkg/logger"
	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/evaluator"
	"github.com/shiftplan/shiftplan/pkg/scheduler/scoring"
	"github.com/shiftplan/shiftplan/pkg/stats"
)

const (
	maxAlternatives  = 8
	maxTopCandidates = 5
)

var planNotes = []string{
	"Allocation is deterministic and read-only. No write-back to the source system is performed.",
	"Candidates blocked by legal, contract or profile constraints are never assigned.",
}

const looseModeNote = "Loose mode: soft constraint violations were accepted and are listed under soft_violations."

// GreedySolver fills slots one at a time with the best ranked candidate.
type GreedySolver struct {
	name          string
	mode          model.ConstraintMode
	weights       scoring.Weights
	clock         func() time.Time
	newID         func() string
	logger        *logger.PlannerLogger
	includeMatrix bool
	workers       int
}

// GreedyOption customizes a GreedySolver.
type GreedyOption func(*GreedySolver)

// WithName sets the mechanism name recorded on plans.
func WithName(name string) GreedyOption {
	return func(s *GreedySolver) { s.name = name }
}

// WithMode sets the constraint mode used when the request leaves it empty.
func WithMode(mode model.ConstraintMode) GreedyOption {
	return func(s *GreedySolver) { s.mode = mode }
}

// WithWeights sets the scoring weights used when the request has none.
func WithWeights(w scoring.Weights) GreedyOption {
	return func(s *GreedySolver) { s.weights = w }
}

// WithClock replaces the clock stamping generated_at.
func WithClock(clock func() time.Time) GreedyOption {
	return func(s *GreedySolver) { s.clock = clock }
}

// WithIDGenerator replaces the plan id generator.
func WithIDGenerator(gen func() string) GreedyOption {
	return func(s *GreedySolver) { s.newID = gen }
}

// WithLogger replaces the planner logger.
func WithLogger(l *logger.PlannerLogger) GreedyOption {
	return func(s *GreedySolver) { s.logger = l }
}

// WithEvaluationMatrix toggles the per-slot evaluation matrix on plans.
func WithEvaluationMatrix(enabled bool) GreedyOption {
	return func(s *GreedySolver) { s.includeMatrix = enabled }
}

// WithWorkers sets how many goroutines score the candidates of one slot.
// Slots are always filled one after another.
func WithWorkers(n int) GreedyOption {
	return func(s *GreedySolver) { s.workers = n }
}

// NewGreedySolver creates the deterministic greedy solver.
func NewGreedySolver(opts ...GreedyOption) *GreedySolver {
	s := &GreedySolver{
		name:          MechanismAlgo,
		mode:          model.ModeStrict,
		weights:       scoring.DefaultWeights(),
		clock:         time.Now,
		newID:         NewPlanID,
		logger:        logger.NewPlannerLogger(),
		includeMatrix: true,
		workers:       1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewPlanID returns "plan-" followed by 12 hex characters.
func NewPlanID() string {
	return "plan-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Name returns the mechanism name.
func (s *GreedySolver) Name() string {
	return s.name
}

// Mode returns the constraint mode the solver runs in by default.
func (s *GreedySolver) Mode() model.ConstraintMode {
	return s.mode
}

type candidate struct {
	employee    *model.Employee
	rule        model.EmployeeRule
	preferences model.ShiftPreferences
	existing    []model.WorkedShift
	absences    []model.Absence
}

// Solve runs the allocation over every open slot in the request range.
func (s *GreedySolver) Solve(ctx context.Context, req *Request) (*model.Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	startTime := time.Now()

	snapshot := req.Snapshot
	profile := req.profile()
	rng := req.dateRange()
	mode := req.Mode
	if mode == "" {
		mode = s.mode
	}
	weights := s.weights
	if req.Weights != nil {
		weights = *req.Weights
	}

	candidates := s.candidates(snapshot, profile)
	slots := openSlotsInRange(snapshot.OpenSlots, rng)

	plan := &model.Plan{
		PlanID:             s.newID(),
		GeneratedAt:        s.clock().UTC().Truncate(time.Second),
		SnapshotID:         snapshot.SnapshotID,
		Venue:              snapshot.Venue,
		Range:              rng,
		Profile:            profile.Name,
		ProfileDescription: profile.Description,
		Mechanism:          s.name,
		ConstraintMode:     mode,
		Assignments:        make([]model.Assignment, 0),
		Unassigned:         make([]model.Unassigned, 0),
		Explanation: model.PlanExplanation{
			ConstraintPolicy: profile.Policy,
			Notes:            append([]string(nil), planNotes...),
		},
	}
	if mode == model.ModeLoose {
		plan.Explanation.Notes = append(plan.Explanation.Notes, looseModeNote)
	}
	if s.includeMatrix {
		plan.EvaluationMatrix = make(map[string][]model.MatrixEntry, len(slots))
	}

	s.logger.StartPlan(plan.PlanID, string(mode), len(candidates), len(slots))

	ev := evaluator.New(weights, evaluator.DeriveFixedPatterns(snapshot.ExistingShifts))
	state := NewRunState()

	for i := range slots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slot := &slots[i]

		inputs := make([]*evaluator.Input, len(candidates))
		for j, c := range candidates {
			inputs[j] = &evaluator.Input{
				Employee:           c.employee,
				Rule:               c.rule,
				Preferences:        c.preferences,
				Slot:               slot,
				IsApplicant:        slot.IsApplicant(c.employee.ID),
				Existing:           c.existing,
				Run:                state.Shifts(c.employee.ID),
				Absences:           c.absences,
				Policy:             profile.Policy,
				RunExtraMonthHours: state.MonthHours(c.employee.ID, slot.Date),
				Mode:               mode,
			}
		}
		evals, err := ev.EvaluateAll(ctx, inputs, s.workers)
		if err != nil {
			return nil, err
		}
		evaluator.Rank(evals)

		if s.includeMatrix {
			plan.EvaluationMatrix[slot.SlotID] = matrixEntries(evals)
		}

		pool := selectPool(evals, slot, profile.Policy)
		if len(pool) == 0 {
			u := unassigned(slot, evals)
			s.logger.SlotUnassigned(slot.SlotID, string(u.Reason))
			plan.Unassigned = append(plan.Unassigned, u)
			continue
		}

		best := pool[0]
		state.RecordAssignment(best.EmployeeID, slot.Worked())
		plan.Assignments = append(plan.Assignments, assignment(slot, best, evals))
	}

	plan.Metrics = planMetrics(plan)
	plan.Fairness = stats.FairnessOverview(plan.Assignments)
	if mode == model.ModeLoose {
		plan.SoftViolations = collectSoftViolations(plan.Assignments)
	}

	s.logger.PlanComplete(plan.PlanID, time.Since(startTime), plan.Metrics.FillRate)
	return plan, nil
}

// candidates resolves rules, preferences and history once per employee.
// Employees are ordered by id; the ranking does not depend on it.
func (s *GreedySolver) candidates(snapshot *model.Snapshot, profile *model.Profile) []candidate {
	byID := snapshot.EmployeeByID()
	ids := make([]string, 0, len(byID))
	for id := range byID {
		if id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	rules := profile.RuleIndex()
	existing := snapshot.ExistingByEmployee()
	absences := snapshot.AbsencesByEmployee()

	out := make([]candidate, 0, len(ids))
	for _, id := range ids {
		emp := byID[id]
		rule := rules.RuleFor(emp)
		out = append(out, candidate{
			employee:    emp,
			rule:        rule,
			preferences: scoring.ResolvePreferences(rule),
			existing:    existing[id],
			absences:    absences[id],
		})
	}
	return out
}

// openSlotsInRange copies the slots inside rng with hours resolved, in
// allocation order: slots with applicants first, then date, start and id.
func openSlotsInRange(all []model.OpenSlot, rng model.DateRange) []model.OpenSlot {
	slots := make([]model.OpenSlot, 0, len(all))
	for _, slot := range all {
		if !rng.Contains(slot.Date) {
			continue
		}
		slot.Hours = slot.Worked().Hours
		slots = append(slots, slot)
	}

	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.HasApplicants() != b.HasApplicants() {
			return a.HasApplicants()
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.SlotID < b.SlotID
	})
	return slots
}

// selectPool returns the unblocked evaluations, restricted to applicants
// when the policy prefers them and at least one applicant is unblocked.
func selectPool(evals []evaluator.Evaluation, slot *model.OpenSlot, policy model.Policy) []evaluator.Evaluation {
	var valid, applicants []evaluator.Evaluation
	for _, e := range evals {
		if e.Blocked {
			continue
		}
		valid = append(valid, e)
		if e.IsApplicant {
			applicants = append(applicants, e)
		}
	}
	if slot.HasApplicants() && policy.ApplicantsPreferred() && len(applicants) > 0 {
		return applicants
	}
	return valid
}

func unassignedReason(evals []evaluator.Evaluation, slot *model.OpenSlot) model.UnassignedReason {
	if len(evals) == 0 {
		return model.UnassignedNoCandidates
	}
	allBlocked := true
	for _, e := range evals {
		if !e.Blocked {
			allBlocked = false
			break
		}
	}
	switch {
	case allBlocked:
		return model.UnassignedAllBlocked
	case slot.HasApplicants():
		return model.UnassignedApplicantsBlocked
	}
	return model.UnassignedNoValidCandidate
}

func unassigned(slot *model.OpenSlot, evals []evaluator.Evaluation) model.Unassigned {
	top := evals
	if len(top) > maxTopCandidates {
		top = top[:maxTopCandidates]
	}
	summaries := make([]model.CandidateSummary, 0, len(top))
	for _, e := range top {
		summaries = append(summaries, model.CandidateSummary{
			EmployeeID:     e.EmployeeID,
			EmployeeName:   e.EmployeeName,
			BlockedReasons: e.BlockedReasons,
			Score:          e.Score,
			IsApplicant:    e.IsApplicant,
		})
	}

	return model.Unassigned{
		SlotID:          slot.SlotID,
		ExternalShiftID: slot.ExternalShiftID,
		Date:            slot.Date,
		Start:           slot.Start,
		End:             slot.End,
		ShiftType:       slot.ShiftType,
		WorkingArea:     slot.WorkingArea,
		Reason:          unassignedReason(evals, slot),
		TopCandidates:   summaries,
	}
}

func assignment(slot *model.OpenSlot, best evaluator.Evaluation, evals []evaluator.Evaluation) model.Assignment {
	head := evals
	if len(head) > maxAlternatives {
		head = head[:maxAlternatives]
	}
	alternatives := make([]model.Alternative, 0, len(head))
	for _, e := range head {
		if e.EmployeeID == best.EmployeeID {
			continue
		}
		alternatives = append(alternatives, model.Alternative{
			EmployeeID:     e.EmployeeID,
			EmployeeName:   e.EmployeeName,
			Score:          e.Score,
			Blocked:        e.Blocked,
			IsApplicant:    e.IsApplicant,
			Reasons:        e.Reasons,
			BlockedReasons: e.BlockedReasons,
			ScoreDetail:    e.ScoreDetail,
		})
	}

	return model.Assignment{
		AssignmentID:        model.AssignmentID(slot.SlotID, best.EmployeeID),
		SlotID:              slot.SlotID,
		ExternalShiftID:     slot.ExternalShiftID,
		Date:                slot.Date,
		Start:               slot.Start,
		End:                 slot.End,
		Hours:               model.Round2(slot.Hours),
		ShiftType:           slot.ShiftType,
		WorkingArea:         slot.WorkingArea,
		Note:                slot.Note,
		EmployeeID:          best.EmployeeID,
		EmployeeName:        best.EmployeeName,
		Score:               best.Score,
		IsApplicant:         best.IsApplicant,
		AssignmentKind:      model.ClassifyAssignment(best.IsApplicant, slot.HasApplicants()),
		Reasons:             best.Reasons,
		BlockedReasons:      best.BlockedReasons,
		ScoreDetail:         best.ScoreDetail,
		WeekShifts:          best.WeekShifts,
		ExistingMonthHours:  best.HoursExistingMonth,
		RunMonthHoursBefore: best.HoursRunMonth,
		TargetHours:         best.TargetHours,
		ProjectedSalary:     best.ProjectedSalary,
		Alternatives:        alternatives,
		SoftViolations:      best.SoftViolations,
	}
}

func matrixEntries(evals []evaluator.Evaluation) []model.MatrixEntry {
	out := make([]model.MatrixEntry, 0, len(evals))
	for _, e := range evals {
		out = append(out, model.MatrixEntry{
			EmployeeID:       e.EmployeeID,
			EmployeeName:     e.EmployeeName,
			Score:            e.Score,
			Blocked:          e.Blocked,
			IsApplicant:      e.IsApplicant,
			BlockedReasons:   e.BlockedReasons,
			ScoreDetail:      e.ScoreDetail,
			TargetHours:      e.TargetHours,
			MonthHoursBefore: e.HoursRunMonth,
			SoftViolations:   e.SoftViolations,
		})
	}
	return out
}

func planMetrics(plan *model.Plan) model.PlanMetrics {
	assigned, open := len(plan.Assignments), len(plan.Unassigned)
	total := assigned + open

	kinds := make(map[model.AssignmentKind]int)
	for _, a := range plan.Assignments {
		kinds[a.AssignmentKind]++
	}

	fillRate := 0.0
	if total > 0 {
		fillRate = model.Round1(float64(assigned) / float64(total) * 100)
	}
	return model.PlanMetrics{
		AssignedSlots:        assigned,
		UnassignedSlots:      open,
		TotalSlots:           total,
		FillRate:             fillRate,
		AssignmentKindCounts: kinds,
	}
}

func collectSoftViolations(assignments []model.Assignment) []model.SoftViolationRecord {
	out := make([]model.SoftViolationRecord, 0)
	for _, a := range assignments {
		for _, v := range a.SoftViolations {
			out = append(out, model.SoftViolationRecord{SlotID: a.SlotID, EmployeeID: a.EmployeeID, Violation: v})
		}
	}
	return out
}
