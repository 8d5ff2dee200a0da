package handler

import (
	"net/http"

	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/stats"
)

// StatsRequest names the plan to analyze, inline or by id.
type StatsRequest struct {
	Plan   *model.Plan `json:"plan,omitempty"`
	PlanID string      `json:"plan_id,omitempty"`

	// WeeklyHours is the reference for workload overtime; 0 means 40.
	WeeklyHours float64 `json:"weekly_hours,omitempty"`
}

// FairnessResponse carries the fairness figures of a plan.
type FairnessResponse struct {
	Success  bool                   `json:"success"`
	PlanID   string                 `json:"plan_id"`
	Data     *stats.FairnessMetrics `json:"data"`
	Overview []model.FairnessRow    `json:"overview"`
}

// CoverageResponse carries the coverage figures of a plan.
type CoverageResponse struct {
	Success bool                   `json:"success"`
	PlanID  string                 `json:"plan_id"`
	Data    *stats.CoverageMetrics `json:"data"`
}

// WorkloadResponse carries the workload summary of a plan.
type WorkloadResponse struct {
	Success bool                   `json:"success"`
	PlanID  string                 `json:"plan_id"`
	Data    *stats.WorkloadSummary `json:"data"`
}

// EvaluationResponse carries the scoring quality metrics of a plan.
type EvaluationResponse struct {
	Success bool                  `json:"success"`
	PlanID  string                `json:"plan_id"`
	Data    *stats.PlanEvaluation `json:"data"`
}

func (h *Handler) statsPlan(w http.ResponseWriter, r *http.Request) (*model.Plan, *StatsRequest, bool) {
	var req StatsRequest
	if !h.decode(w, r, &req) {
		return nil, nil, false
	}
	plan, err := h.loadPlan("plan", req.Plan, req.PlanID)
	if err != nil {
		respondError(w, r, err)
		return nil, nil, false
	}
	return plan, &req, true
}

// Fairness analyzes how evenly a plan spreads work.
func (h *Handler) Fairness(w http.ResponseWriter, r *http.Request) {
	plan, _, ok := h.statsPlan(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, FairnessResponse{
		Success:  true,
		PlanID:   plan.PlanID,
		Data:     stats.NewFairnessAnalyzer().Analyze(plan),
		Overview: stats.FairnessOverview(plan.Assignments),
	})
}

// Coverage analyzes which slots a plan fills. With ?format=text the
// plain text report is returned instead of JSON.
func (h *Handler) Coverage(w http.ResponseWriter, r *http.Request) {
	plan, _, ok := h.statsPlan(w, r)
	if !ok {
		return
	}

	analyzer := stats.NewCoverageAnalyzer()
	metrics := analyzer.Analyze(plan)
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(analyzer.GenerateCoverageReport(metrics)))
		return
	}
	respondJSON(w, http.StatusOK, CoverageResponse{
		Success: true,
		PlanID:  plan.PlanID,
		Data:    metrics,
	})
}

// Workload sums plan hours per employee, day and shift type.
func (h *Handler) Workload(w http.ResponseWriter, r *http.Request) {
	plan, req, ok := h.statsPlan(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, WorkloadResponse{
		Success: true,
		PlanID:  plan.PlanID,
		Data:    stats.SummarizeWorkload(plan, req.WeeklyHours),
	})
}

// Evaluation reports how the plan's scores were formed.
func (h *Handler) Evaluation(w http.ResponseWriter, r *http.Request) {
	plan, _, ok := h.statsPlan(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, EvaluationResponse{
		Success: true,
		PlanID:  plan.PlanID,
		Data:    stats.EvaluatePlan(plan),
	})
}
