package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/model"
)

// PlanRun is a persisted plan header.
type PlanRun struct {
	ID             uuid.UUID            `json:"id"`
	PlanID         string               `json:"plan_id"`
	SnapshotID     string               `json:"snapshot_id"`
	Venue          string               `json:"venue,omitempty"`
	Profile        string               `json:"profile"`
	Mechanism      string               `json:"mechanism"`
	ConstraintMode model.ConstraintMode `json:"constraint_mode"`
	RangeFrom      string               `json:"range_from"`
	RangeTo        string               `json:"range_to"`
	TotalSlots     int                  `json:"total_slots"`
	AssignedSlots  int                  `json:"assigned_slots"`
	FillRate       float64              `json:"fill_rate"`
	Metadata       RunMetadata          `json:"metadata"`
	GeneratedAt    time.Time            `json:"generated_at"`
	CreatedAt      time.Time            `json:"created_at"`
}

// RunMetadata is stored as JSONB next to a run.
type RunMetadata struct {
	AssignmentKindCounts map[model.AssignmentKind]int `json:"assignment_kind_counts,omitempty"`
	Fairness             []model.FairnessRow          `json:"fairness,omitempty"`
	Unassigned           []UnassignedSlot             `json:"unassigned,omitempty"`
	SoftViolations       int                          `json:"soft_violations"`
	HardViolations       int                          `json:"hard_violations"`
}

// UnassignedSlot is the stored summary of a slot left open.
type UnassignedSlot struct {
	SlotID string                 `json:"slot_id"`
	Date   string                 `json:"date"`
	Reason model.UnassignedReason `json:"reason"`
}

// PlanAssignment is one persisted assignment of a run.
type PlanAssignment struct {
	ID             uuid.UUID            `json:"id"`
	RunID          uuid.UUID            `json:"run_id"`
	Rank           int                  `json:"rank"`
	AssignmentID   string               `json:"assignment_id"`
	SlotID         string               `json:"slot_id"`
	EmployeeID     string               `json:"employee_id"`
	EmployeeName   string               `json:"employee_name"`
	Date           string               `json:"date"`
	Start          string               `json:"start"`
	End            string               `json:"end"`
	Hours          float64              `json:"hours"`
	Score          float64              `json:"score"`
	AssignmentKind model.AssignmentKind `json:"assignment_kind"`
	IsApplicant    bool                 `json:"is_applicant"`
	ScoreDetail    model.ScoreDetail    `json:"score_detail"`
	Reasons        []model.ScoreReason  `json:"reasons"`
	Alternatives   []model.Alternative  `json:"alternatives"`
}

// PlanRepository stores plan runs and their assignments.
type PlanRepository struct {
	db    TxDB
	newID func() uuid.UUID
	now   func() time.Time
}

// NewPlanRepository creates a plan repository.
func NewPlanRepository(db TxDB) *PlanRepository {
	return &PlanRepository{db: db, newID: uuid.New, now: time.Now}
}

const runColumns = `id, plan_id, snapshot_id, venue, profile, mechanism, constraint_mode,
	range_from, range_to, total_slots, assigned_slots, fill_rate, metadata,
	generated_at, created_at`

// Save persists a plan header and one row per assignment in one transaction.
func (r *PlanRepository) Save(ctx context.Context, plan *model.Plan) (*PlanRun, error) {
	run := r.newRun(plan)
	rows := r.assignmentRows(run.ID, plan.Assignments)

	metadataJSON, err := json.Marshal(run.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode run metadata: %w", err)
	}

	err = r.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO plan_runs (`+runColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			run.ID, run.PlanID, run.SnapshotID, run.Venue, run.Profile, run.Mechanism, run.ConstraintMode,
			run.RangeFrom, run.RangeTo, run.TotalSlots, run.AssignedSlots, run.FillRate, metadataJSON,
			run.GeneratedAt, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert plan run: %w", err)
		}
		for _, a := range rows {
			if err := insertAssignment(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "save plan run")
	}
	return run, nil
}

func insertAssignment(ctx context.Context, db DB, a *PlanAssignment) error {
	detailJSON, err := json.Marshal(a.ScoreDetail)
	if err != nil {
		return err
	}
	reasonsJSON, err := json.Marshal(a.Reasons)
	if err != nil {
		return err
	}
	alternativesJSON, err := json.Marshal(a.Alternatives)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO plan_assignments (
			id, run_id, rank, assignment_id, slot_id, employee_id, employee_name,
			date, start_time, end_time, hours, score, assignment_kind, is_applicant,
			score_detail, reasons, alternatives
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		a.ID, a.RunID, a.Rank, a.AssignmentID, a.SlotID, a.EmployeeID, a.EmployeeName,
		a.Date, a.Start, a.End, a.Hours, a.Score, a.AssignmentKind, a.IsApplicant,
		detailJSON, reasonsJSON, alternativesJSON,
	)
	if err != nil {
		return fmt.Errorf("insert plan assignment %s: %w", a.AssignmentID, err)
	}
	return nil
}

// GetByPlanID returns the run of a plan id.
func (r *PlanRepository) GetByPlanID(ctx context.Context, planID string) (*PlanRun, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM plan_runs WHERE plan_id = $1`, planID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("plan run", planID)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "get plan run")
	}
	return run, nil
}

// List returns a page of runs and the total count matching filter.
func (r *PlanRepository) List(ctx context.Context, filter ListFilter) ([]*PlanRun, int, error) {
	where, args := filter.where()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM plan_runs "+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "count plan runs")
	}

	col, dir := filter.orderClause("generated_at", "fill_rate", "created_at")
	query := fmt.Sprintf(`SELECT %s FROM plan_runs %s ORDER BY %s %s, plan_id LIMIT $%d OFFSET $%d`,
		runColumns, where, col, dir, len(args)+1, len(args)+2)
	args = append(args, filter.limit(), filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "list plan runs")
	}
	defer rows.Close()

	var runs []*PlanRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "scan plan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeDatabaseError, "list plan runs")
	}
	return runs, total, nil
}

// Assignments returns the assignments of a run in rank order.
func (r *PlanRepository) Assignments(ctx context.Context, runID uuid.UUID) ([]*PlanAssignment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, rank, assignment_id, slot_id, employee_id, employee_name,
			to_char(date, 'YYYY-MM-DD'), start_time, end_time, hours, score, assignment_kind,
			is_applicant, score_detail, reasons, alternatives
		FROM plan_assignments
		WHERE run_id = $1
		ORDER BY rank`, runID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "query plan assignments")
	}
	defer rows.Close()

	var out []*PlanAssignment
	for rows.Next() {
		a := &PlanAssignment{}
		var detailJSON, reasonsJSON, alternativesJSON []byte
		if err := rows.Scan(
			&a.ID, &a.RunID, &a.Rank, &a.AssignmentID, &a.SlotID, &a.EmployeeID, &a.EmployeeName,
			&a.Date, &a.Start, &a.End, &a.Hours, &a.Score, &a.AssignmentKind,
			&a.IsApplicant, &detailJSON, &reasonsJSON, &alternativesJSON,
		); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "scan plan assignment")
		}
		if err := decodeJSON(detailJSON, &a.ScoreDetail); err != nil {
			return nil, err
		}
		if err := decodeJSON(reasonsJSON, &a.Reasons); err != nil {
			return nil, err
		}
		if err := decodeJSON(alternativesJSON, &a.Alternatives); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete removes a run; its assignments cascade.
func (r *PlanRepository) Delete(ctx context.Context, planID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM plan_runs WHERE plan_id = $1", planID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "delete plan run")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NotFound("plan run", planID)
	}
	return nil
}

func (r *PlanRepository) newRun(plan *model.Plan) *PlanRun {
	meta := RunMetadata{
		AssignmentKindCounts: plan.Metrics.AssignmentKindCounts,
		Fairness:             plan.Fairness,
		SoftViolations:       len(plan.SoftViolations),
		HardViolations:       len(plan.HardViolations),
	}
	for _, u := range plan.Unassigned {
		meta.Unassigned = append(meta.Unassigned, UnassignedSlot{SlotID: u.SlotID, Date: u.Date, Reason: u.Reason})
	}

	return &PlanRun{
		ID:             r.newID(),
		PlanID:         plan.PlanID,
		SnapshotID:     plan.SnapshotID,
		Venue:          plan.Venue,
		Profile:        plan.Profile,
		Mechanism:      plan.Mechanism,
		ConstraintMode: plan.ConstraintMode,
		RangeFrom:      plan.Range.From,
		RangeTo:        plan.Range.To,
		TotalSlots:     plan.Metrics.TotalSlots,
		AssignedSlots:  plan.Metrics.AssignedSlots,
		FillRate:       plan.Metrics.FillRate,
		Metadata:       meta,
		GeneratedAt:    plan.GeneratedAt,
		CreatedAt:      r.now().UTC(),
	}
}

// assignmentRows numbers assignments by allocation order, starting at 1.
func (r *PlanRepository) assignmentRows(runID uuid.UUID, assignments []model.Assignment) []*PlanAssignment {
	out := make([]*PlanAssignment, 0, len(assignments))
	for i, a := range assignments {
		out = append(out, &PlanAssignment{
			ID:             r.newID(),
			RunID:          runID,
			Rank:           i + 1,
			AssignmentID:   a.AssignmentID,
			SlotID:         a.SlotID,
			EmployeeID:     a.EmployeeID,
			EmployeeName:   a.EmployeeName,
			Date:           a.Date,
			Start:          a.Start,
			End:            a.End,
			Hours:          a.Hours,
			Score:          a.Score,
			AssignmentKind: a.AssignmentKind,
			IsApplicant:    a.IsApplicant,
			ScoreDetail:    a.ScoreDetail,
			Reasons:        nonNil(a.Reasons),
			Alternatives:   nonNil(a.Alternatives),
		})
	}
	return out
}

func (f ListFilter) where() (string, []interface{}) {
	var conditions []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if f.SnapshotID != "" {
		add("snapshot_id = $%d", f.SnapshotID)
	}
	if f.Mechanism != "" {
		add("mechanism = $%d", f.Mechanism)
	}
	if f.Profile != "" {
		add("profile = $%d", f.Profile)
	}
	if f.From != "" {
		add("range_from >= $%d", f.From)
	}
	if f.To != "" {
		add("range_to <= $%d", f.To)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func scanRun(s Scanner) (*PlanRun, error) {
	run := &PlanRun{}
	var from, to time.Time
	var metadataJSON []byte
	err := s.Scan(
		&run.ID, &run.PlanID, &run.SnapshotID, &run.Venue, &run.Profile, &run.Mechanism, &run.ConstraintMode,
		&from, &to, &run.TotalSlots, &run.AssignedSlots, &run.FillRate, &metadataJSON,
		&run.GeneratedAt, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.RangeFrom = from.Format(model.DateLayout)
	run.RangeTo = to.Format(model.DateLayout)
	if err := decodeJSON(metadataJSON, &run.Metadata); err != nil {
		return nil, err
	}
	return run, nil
}

func decodeJSON(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "decode JSON column")
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
