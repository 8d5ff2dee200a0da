package model

import "time"

// ScoreDetail is the per-component breakdown of a candidate's score.
type ScoreDetail struct {
	Rest       float64 `json:"rest"`
	Fairness   float64 `json:"fairness"`
	Role       float64 `json:"role"`
	Skill      float64 `json:"skill"`
	Fixed      float64 `json:"fixed"`
	Preference float64 `json:"preference"`
	Applicant  float64 `json:"applicant"`
	Salary     float64 `json:"salary"`
}

// ScoreComponent is one named entry of a ScoreDetail.
type ScoreComponent struct {
	Name  string
	Value float64
}

// Components lists the components in their canonical order.
func (d ScoreDetail) Components() []ScoreComponent {
	return []ScoreComponent{
		{"rest", d.Rest},
		{"fairness", d.Fairness},
		{"role", d.Role},
		{"skill", d.Skill},
		{"fixed", d.Fixed},
		{"preference", d.Preference},
		{"applicant", d.Applicant},
		{"salary", d.Salary},
	}
}

// Total sums all components.
func (d ScoreDetail) Total() float64 {
	var sum float64
	for _, c := range d.Components() {
		sum += c.Value
	}
	return sum
}

// Rounded rounds every component to two places.
func (d ScoreDetail) Rounded() ScoreDetail {
	return ScoreDetail{
		Rest:       Round2(d.Rest),
		Fairness:   Round2(d.Fairness),
		Role:       Round2(d.Role),
		Skill:      Round2(d.Skill),
		Fixed:      Round2(d.Fixed),
		Preference: Round2(d.Preference),
		Applicant:  Round2(d.Applicant),
		Salary:     Round2(d.Salary),
	}
}

// Alternative is a near-miss candidate recorded next to a winner.
type Alternative struct {
	EmployeeID     string        `json:"employee_id"`
	EmployeeName   string        `json:"employee_name"`
	Score          float64       `json:"score"`
	Blocked        bool          `json:"blocked"`
	IsApplicant    bool          `json:"is_applicant"`
	Reasons        []ScoreReason `json:"reasons"`
	BlockedReasons []BlockReason `json:"blocked_reasons"`
	ScoreDetail    ScoreDetail   `json:"score_detail"`
}

// Assignment is a filled slot.
type Assignment struct {
	AssignmentID        string         `json:"assignment_id"`
	SlotID              string         `json:"slot_id"`
	ExternalShiftID     string         `json:"external_shift_id,omitempty"`
	Date                string         `json:"date"`
	Start               string         `json:"start"`
	End                 string         `json:"end"`
	Hours               float64        `json:"hours"`
	ShiftType           string         `json:"shift_type,omitempty"`
	WorkingArea         string         `json:"working_area,omitempty"`
	Note                string         `json:"note,omitempty"`
	EmployeeID          string         `json:"employee_id"`
	EmployeeName        string         `json:"employee_name"`
	Score               float64        `json:"score"`
	IsApplicant         bool           `json:"is_applicant"`
	AssignmentKind      AssignmentKind `json:"assignment_kind"`
	Reasons             []ScoreReason  `json:"reasons"`
	BlockedReasons      []BlockReason  `json:"blocked_reasons"`
	ScoreDetail         ScoreDetail    `json:"score_detail"`
	WeekShifts          int            `json:"week_shifts"`
	ExistingMonthHours  float64        `json:"existing_month_hours"`
	RunMonthHoursBefore float64        `json:"run_month_hours_before"`
	TargetHours         *float64       `json:"target_hours"`
	ProjectedSalary     *float64       `json:"projected_salary"`
	Alternatives        []Alternative  `json:"alternatives"`
	SoftViolations      []BlockReason  `json:"soft_violations,omitempty"`
}

// Worked returns the assignment as a worked shift.
func (a *Assignment) Worked() WorkedShift {
	return WorkedShift{Date: a.Date, Start: a.Start, End: a.End, Hours: a.Hours}
}

// CandidateSummary is a rejected candidate listed on an unassigned slot.
type CandidateSummary struct {
	EmployeeID     string        `json:"employee_id"`
	EmployeeName   string        `json:"employee_name"`
	BlockedReasons []BlockReason `json:"blocked_reasons"`
	Score          float64       `json:"score"`
	IsApplicant    bool          `json:"is_applicant"`
}

// Unassigned is a slot left open.
type Unassigned struct {
	SlotID          string             `json:"slot_id"`
	ExternalShiftID string             `json:"external_shift_id,omitempty"`
	Date            string             `json:"date"`
	Start           string             `json:"start"`
	End             string             `json:"end"`
	ShiftType       string             `json:"shift_type,omitempty"`
	WorkingArea     string             `json:"working_area,omitempty"`
	Reason          UnassignedReason   `json:"reason"`
	TopCandidates   []CandidateSummary `json:"top_candidates"`
}

// MatrixEntry is one evaluation row of the evaluation matrix.
type MatrixEntry struct {
	EmployeeID       string        `json:"employee_id"`
	EmployeeName     string        `json:"employee_name"`
	Score            float64       `json:"score"`
	Blocked          bool          `json:"blocked"`
	IsApplicant      bool          `json:"is_applicant"`
	BlockedReasons   []BlockReason `json:"blocked_reasons"`
	ScoreDetail      ScoreDetail   `json:"score_detail"`
	TargetHours      *float64      `json:"target_hours"`
	MonthHoursBefore float64       `json:"month_hours_before"`
	SoftViolations   []BlockReason `json:"soft_violations,omitempty"`
}

// PlanMetrics are aggregate counts of a plan.
type PlanMetrics struct {
	AssignedSlots        int                    `json:"assigned_slots"`
	UnassignedSlots      int                    `json:"unassigned_slots"`
	TotalSlots           int                    `json:"total_slots"`
	FillRate             float64                `json:"fill_rate"`
	AssignmentKindCounts map[AssignmentKind]int `json:"assignment_kind_counts"`
}

// FairnessRow summarizes one employee's share of a plan.
type FairnessRow struct {
	EmployeeID    string   `json:"employee_id"`
	EmployeeName  string   `json:"employee_name"`
	AssignedHours float64  `json:"assigned_hours"`
	AssignedSlots int      `json:"assigned_slots"`
	TargetHours   *float64 `json:"target_hours"`
	DeltaToTarget *float64 `json:"delta_to_target"`
}

// PlanExplanation echoes the policy and fixed notes.
type PlanExplanation struct {
	ConstraintPolicy Policy   `json:"constraint_policy"`
	Notes            []string `json:"notes"`
}

// SoftViolationRecord is a soft violation accepted in loose mode.
type SoftViolationRecord struct {
	SlotID     string      `json:"slot_id"`
	EmployeeID string      `json:"employee_id"`
	Violation  BlockReason `json:"violation"`
}

// HardViolation is an obligatory violation found by post-hoc validation.
type HardViolation struct {
	SlotID       string      `json:"slot_id"`
	EmployeeID   string      `json:"employee_id"`
	EmployeeName string      `json:"employee_name"`
	Violation    BlockReason `json:"violation"`
	Detail       string      `json:"detail"`
}

// Plan is the immutable result of an allocation run.
type Plan struct {
	PlanID             string                   `json:"plan_id"`
	GeneratedAt        time.Time                `json:"generated_at"`
	SnapshotID         string                   `json:"snapshot_id"`
	Venue              string                   `json:"venue,omitempty"`
	Range              DateRange                `json:"range"`
	Profile            string                   `json:"profile"`
	ProfileDescription string                   `json:"profile_description"`
	Mechanism          string                   `json:"mechanism"`
	ConstraintMode     ConstraintMode           `json:"constraint_mode"`
	Assignments        []Assignment             `json:"assignments"`
	Unassigned         []Unassigned             `json:"unassigned"`
	Metrics            PlanMetrics              `json:"metrics"`
	Fairness           []FairnessRow            `json:"fairness"`
	Explanation        PlanExplanation          `json:"explanation"`
	EvaluationMatrix   map[string][]MatrixEntry `json:"evaluation_matrix,omitempty"`
	SoftViolations     []SoftViolationRecord    `json:"soft_violations,omitempty"`
	HardViolations     []HardViolation          `json:"hard_violations,omitempty"`
}

// FindAssignment returns the assignment with the given id.
func (p *Plan) FindAssignment(id string) (*Assignment, bool) {
	for i := range p.Assignments {
		if p.Assignments[i].AssignmentID == id {
			return &p.Assignments[i], true
		}
	}
	return nil, false
}

// AssignmentsBySlot indexes assignments by slot id.
func (p *Plan) AssignmentsBySlot() map[string]*Assignment {
	out := make(map[string]*Assignment, len(p.Assignments))
	for i := range p.Assignments {
		out[p.Assignments[i].SlotID] = &p.Assignments[i]
	}
	return out
}

// AssignmentID builds the id of the assignment of employeeID to slotID.
func AssignmentID(slotID, employeeID string) string {
	return slotID + "::" + employeeID
}
