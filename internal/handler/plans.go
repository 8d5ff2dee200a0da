package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shiftplan/shiftplan/internal/constraints"
	"github.com/shiftplan/shiftplan/internal/ingest"
	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/logger"
	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/solver"
	"github.com/shiftplan/shiftplan/pkg/stats"
	"github.com/shiftplan/shiftplan/pkg/validator"
)

// GenerateRequest asks for a new plan. The snapshot is sent inline or
// referenced by the id of a stored snapshot.
type GenerateRequest struct {
	Snapshot   *model.Snapshot      `json:"snapshot,omitempty"`
	SnapshotID string               `json:"snapshot_id,omitempty"`
	Profile    string               `json:"profile,omitempty"`
	Mechanism  string               `json:"mechanism,omitempty"`
	Mode       model.ConstraintMode `json:"constraint_mode,omitempty"`
	Range      *model.DateRange     `json:"range,omitempty"`
}

// GenerateResponse carries the generated plan.
type GenerateResponse struct {
	Success  bool        `json:"success"`
	Partial  bool        `json:"partial"`
	Message  string      `json:"message,omitempty"`
	Stored   bool        `json:"stored"`
	Duration string      `json:"duration"`
	Plan     *model.Plan `json:"plan"`
}

// Generate runs one planning mechanism over a snapshot.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	snapshot, err := h.loadSnapshot(req.Snapshot, req.SnapshotID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := ingest.ValidateSnapshot(snapshot); err != nil {
		respondError(w, r, err)
		return
	}
	profile, err := h.resolveProfile(req.Profile)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.Mode != "" && !req.Mode.Valid() {
		respondError(w, r, apperrors.InvalidInput("constraint_mode", "must be strict or loose"))
		return
	}

	mechanism := req.Mechanism
	if mechanism == "" {
		mode := req.Mode
		if mode == "" {
			mode = h.defaultMode
		}
		mechanism = solver.MechanismFor(mode)
	}

	solveReq := &solver.Request{
		Snapshot: snapshot,
		Profile:  &profile.Profile,
		Mode:     req.Mode,
		Weights:  profile.Weights,
	}
	if req.Range != nil {
		solveReq.Range = *req.Range
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	start := time.Now()
	plan, err := h.registry.Run(ctx, mechanism, solveReq)
	duration := time.Since(start)
	h.metrics.RecordPlanGeneration(mechanism, err == nil, duration)
	if err != nil {
		respondError(w, r, runError(err))
		return
	}
	h.metrics.RecordPlan(plan, stats.NewFairnessAnalyzer().Analyze(plan).WorkloadGini)

	stored, err := h.persist(ctx, snapshot, req.Snapshot != nil, plan)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := GenerateResponse{
		Success:  true,
		Partial:  len(plan.Unassigned) > 0 && len(plan.Assignments) > 0,
		Stored:   stored,
		Duration: duration.String(),
		Plan:     plan,
	}
	if len(plan.Unassigned) > 0 {
		resp.Message = fmt.Sprintf("%d of %d slots left unassigned", len(plan.Unassigned), plan.Metrics.TotalSlots)
	}
	respondJSON(w, http.StatusOK, resp)
}

func runError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.CodeTimeout, "plan generation timed out")
	case errors.Is(err, context.Canceled):
		return apperrors.Wrap(err, apperrors.CodeInternal, "plan generation canceled")
	default:
		return err
	}
}

// persist stores the plan, and an inline snapshot, when a store or
// recorder is configured.
func (h *Handler) persist(ctx context.Context, snapshot *model.Snapshot, inline bool, plan *model.Plan) (bool, error) {
	stored := false
	if h.store != nil {
		if inline {
			if _, err := h.store.SaveSnapshot(snapshot); err != nil {
				return false, err
			}
		}
		if _, err := h.store.SavePlan(plan); err != nil {
			return false, err
		}
		stored = true
	}
	if h.recorder != nil {
		run, err := h.recorder.Save(ctx, plan)
		if err != nil {
			return stored, err
		}
		logger.WithContext(ctx).Debug().
			Str("plan_id", plan.PlanID).
			Str("run_id", run.ID.String()).
			Msg("plan run recorded")
		stored = true
	}
	return stored, nil
}

// ExplainRequest asks why an assignment was made.
type ExplainRequest struct {
	Plan         *model.Plan `json:"plan,omitempty"`
	PlanID       string      `json:"plan_id,omitempty"`
	AssignmentID string      `json:"assignment_id"`
}

// Explain returns the score breakdown and alternatives of one assignment.
func (h *Handler) Explain(w http.ResponseWriter, r *http.Request) {
	var req ExplainRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.AssignmentID == "" {
		respondError(w, r, apperrors.InvalidInput("assignment_id", "is required"))
		return
	}

	plan, err := h.loadPlan("plan", req.Plan, req.PlanID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	explanation, err := solver.ExplainAssignment(plan, req.AssignmentID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, explanation)
}

// ValidateRequest asks for an audit of a plan against the obligatory
// constraints. The snapshot defaults to the plan's snapshot and the
// profile to the plan's profile.
type ValidateRequest struct {
	Plan       *model.Plan     `json:"plan,omitempty"`
	PlanID     string          `json:"plan_id,omitempty"`
	Snapshot   *model.Snapshot `json:"snapshot,omitempty"`
	SnapshotID string          `json:"snapshot_id,omitempty"`
	Profile    string          `json:"profile,omitempty"`
}

// ValidateResponse lists the obligatory violations found.
type ValidateResponse struct {
	IsValid    bool                  `json:"is_valid"`
	PlanID     string                `json:"plan_id"`
	Checked    int                   `json:"checked_assignments"`
	Violations []model.HardViolation `json:"violations"`
}

// Validate audits a plan against the obligatory constraints.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !h.decode(w, r, &req) {
		return
	}

	plan, err := h.loadPlan("plan", req.Plan, req.PlanID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	snapshotID := req.SnapshotID
	if snapshotID == "" && req.Snapshot == nil {
		snapshotID = plan.SnapshotID
	}
	snapshot, err := h.loadSnapshot(req.Snapshot, snapshotID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	profileName := req.Profile
	if profileName == "" {
		profileName = plan.Profile
	}
	profile, err := h.resolveProfile(profileName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	violations := validator.ValidateHardConstraints(plan, snapshot, &profile.Profile)
	if violations == nil {
		violations = []model.HardViolation{}
	}
	respondJSON(w, http.StatusOK, ValidateResponse{
		IsValid:    len(violations) == 0,
		PlanID:     plan.PlanID,
		Checked:    len(plan.Assignments),
		Violations: violations,
	})
}

// CompareRequest names two plans, inline or by id.
type CompareRequest struct {
	PlanA   *model.Plan `json:"plan_a,omitempty"`
	PlanAID string      `json:"plan_a_id,omitempty"`
	PlanB   *model.Plan `json:"plan_b,omitempty"`
	PlanBID string      `json:"plan_b_id,omitempty"`
}

// Compare diffs two plans.
func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if !h.decode(w, r, &req) {
		return
	}

	a, err := h.loadPlan("plan_a", req.PlanA, req.PlanAID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	b, err := h.loadPlan("plan_b", req.PlanB, req.PlanBID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats.ComparePlans(a, b))
}

// ListPlans returns the stored plan manifests, newest first.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, r, methodNotAllowed(http.MethodGet))
		return
	}
	if h.store == nil {
		respondError(w, r, apperrors.New(apperrors.CodeNotFound, "artifact store is not configured"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, r, apperrors.InvalidInput("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}

	plans, err := h.store.ListPlans(limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

// Profiles lists the constraint profile names.
func (h *Handler) Profiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, r, methodNotAllowed(http.MethodGet))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"profiles": h.profiles.Names(),
		"default":  h.defaultProfile,
	})
}

// Mechanisms lists the registered allocation mechanisms.
func (h *Handler) Mechanisms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, r, methodNotAllowed(http.MethodGet))
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"mechanisms": h.registry.Names()})
}

// Constraints lists the checks applied to candidates, optionally filtered
// by ?type=hard or ?type=soft.
func (h *Handler) Constraints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, r, methodNotAllowed(http.MethodGet))
		return
	}

	library := constraints.GetLibrary()
	switch t := model.ConstraintCategory(r.URL.Query().Get("type")); t {
	case "":
	case model.ConstraintHard, model.ConstraintSoft:
		library = constraints.ByType(t)
	default:
		respondError(w, r, apperrors.InvalidInput("type", "must be hard or soft"))
		return
	}
	respondJSON(w, http.StatusOK, constraints.LibraryResponse{Library: library})
}
