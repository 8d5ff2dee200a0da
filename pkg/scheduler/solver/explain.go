package solver

import (
	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/model"
)

const maxExplainedAlternatives = 5

// ExplainedSlot is the slot part of an explanation.
type ExplainedSlot struct {
	Date        string `json:"date"`
	Start       string `json:"start"`
	End         string `json:"end"`
	ShiftType   string `json:"shift_type,omitempty"`
	WorkingArea string `json:"working_area,omitempty"`
}

// Explanation describes why an assignment was made.
type Explanation struct {
	AssignmentID   string               `json:"assignment_id"`
	EmployeeID     string               `json:"employee_id"`
	Employee       string               `json:"employee"`
	AssignmentKind model.AssignmentKind `json:"assignment_kind"`
	Slot           ExplainedSlot        `json:"slot"`
	Score          float64              `json:"score"`
	Reasons        []model.ScoreReason  `json:"reasons"`
	ScoreDetail    model.ScoreDetail    `json:"score_detail"`
	SoftViolations []model.BlockReason  `json:"soft_violations,omitempty"`
	Alternatives   []model.Alternative  `json:"alternatives"`
}

// ExplainAssignment looks up one assignment of plan. It returns a
// NOT_FOUND error when the id is not part of the plan.
func ExplainAssignment(plan *model.Plan, assignmentID string) (*Explanation, error) {
	if plan == nil {
		return nil, apperrors.InvalidInput("plan", "is required")
	}
	a, ok := plan.FindAssignment(assignmentID)
	if !ok {
		return nil, apperrors.NotFound("assignment", assignmentID)
	}

	alternatives := a.Alternatives
	if len(alternatives) > maxExplainedAlternatives {
		alternatives = alternatives[:maxExplainedAlternatives]
	}
	if alternatives == nil {
		alternatives = []model.Alternative{}
	}

	return &Explanation{
		AssignmentID:   a.AssignmentID,
		EmployeeID:     a.EmployeeID,
		Employee:       a.EmployeeName,
		AssignmentKind: a.AssignmentKind,
		Slot: ExplainedSlot{
			Date:        a.Date,
			Start:       a.Start,
			End:         a.End,
			ShiftType:   a.ShiftType,
			WorkingArea: a.WorkingArea,
		},
		Score:          a.Score,
		Reasons:        a.Reasons,
		ScoreDetail:    a.ScoreDetail,
		SoftViolations: a.SoftViolations,
		Alternatives:   alternatives,
	}, nil
}
