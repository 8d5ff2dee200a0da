package stats

import (
	"math"
	"sort"

	"github.com/shiftplan/shiftplan/pkg/model"
)

const (
	maxDivergentSlots = 10
	maxEmployeeDeltas = 15
	unknownKind       = "unknown"
)

// PlanSummary holds the aggregate figures of one plan.
type PlanSummary struct {
	PlanID          string         `json:"plan_id"`
	Profile         string         `json:"profile"`
	Mechanism       string         `json:"mechanism"`
	TotalSlots      int            `json:"total_slots"`
	Assigned        int            `json:"assigned"`
	Unassigned      int            `json:"unassigned"`
	FillRate        float64        `json:"fill_rate"`
	MeanScore       float64        `json:"mean_score"`
	Gini            float64        `json:"gini"`
	EmployeesUsed   int            `json:"employees_used"`
	AssignmentKinds map[string]int `json:"assignment_kinds"`
}

// DivergentSlot is a slot both plans filled with different employees.
type DivergentSlot struct {
	SlotID        string  `json:"slot_id"`
	Date          string  `json:"date"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	ShiftType     string  `json:"shift_type,omitempty"`
	PlanAEmployee string  `json:"plan_a_employee"`
	PlanAScore    float64 `json:"plan_a_score"`
	PlanBEmployee string  `json:"plan_b_employee"`
	PlanBScore    float64 `json:"plan_b_score"`
	ScoreDelta    float64 `json:"score_delta"`
}

// SlotDivergence counts slot-level agreement between two plans.
type SlotDivergence struct {
	TotalSlots        int             `json:"total_slots"`
	SameEmployee      int             `json:"same_employee"`
	DifferentEmployee int             `json:"different_employee"`
	AOnlyAssigned     int             `json:"a_only_assigned"`
	BOnlyAssigned     int             `json:"b_only_assigned"`
	BothUnassigned    int             `json:"both_unassigned"`
	AgreementRate     float64         `json:"agreement_rate"`
	TopDivergentSlots []DivergentSlot `json:"top_divergent_slots"`
}

// EmployeeDelta compares one employee's hours across two plans.
type EmployeeDelta struct {
	Employee   string  `json:"employee"`
	PlanAHours float64 `json:"plan_a_hours"`
	PlanBHours float64 `json:"plan_b_hours"`
	Delta      float64 `json:"delta"`
}

// SummaryDeltas are plan A minus plan B.
type SummaryDeltas struct {
	FillRate  float64 `json:"fill_rate"`
	MeanScore float64 `json:"mean_score"`
	Gini      float64 `json:"gini"`
	Assigned  int     `json:"assigned"`
}

// Comparison is the side-by-side diff of two plans.
type Comparison struct {
	PlanA              PlanSummary     `json:"plan_a"`
	PlanB              PlanSummary     `json:"plan_b"`
	Deltas             SummaryDeltas   `json:"deltas"`
	SlotDivergence     SlotDivergence  `json:"slot_divergence"`
	EmployeeComparison []EmployeeDelta `json:"employee_comparison"`
}

// ComparePlans compares two finished plans. Neither plan is modified.
func ComparePlans(a, b *model.Plan) *Comparison {
	summaryA, hoursA := summarize(a)
	summaryB, hoursB := summarize(b)

	return &Comparison{
		PlanA: summaryA,
		PlanB: summaryB,
		Deltas: SummaryDeltas{
			FillRate:  model.Round1(summaryA.FillRate - summaryB.FillRate),
			MeanScore: model.Round2(summaryA.MeanScore - summaryB.MeanScore),
			Gini:      model.Round4(summaryA.Gini - summaryB.Gini),
			Assigned:  summaryA.Assigned - summaryB.Assigned,
		},
		SlotDivergence:     slotDivergence(a, b),
		EmployeeComparison: employeeDeltas(hoursA, hoursB),
	}
}

// employeeKey groups hours by name so plans from different mechanisms
// line up even when one of them lacks ids.
func employeeKey(a *model.Assignment) string {
	if a.EmployeeName != "" {
		return a.EmployeeName
	}
	return a.EmployeeID
}

func summarize(p *model.Plan) (PlanSummary, map[string]float64) {
	hours := make(map[string]float64)
	summary := PlanSummary{AssignmentKinds: make(map[string]int)}
	if p == nil {
		return summary, hours
	}

	summary.PlanID = p.PlanID
	summary.Profile = p.Profile
	summary.Mechanism = p.Mechanism
	summary.Assigned = len(p.Assignments)
	summary.Unassigned = len(p.Unassigned)

	summary.TotalSlots = p.Metrics.TotalSlots
	if summary.TotalSlots == 0 {
		summary.TotalSlots = summary.Assigned + summary.Unassigned
	}
	summary.FillRate = p.Metrics.FillRate
	if p.Metrics.TotalSlots == 0 && summary.TotalSlots > 0 {
		summary.FillRate = model.Round1(float64(summary.Assigned) / float64(summary.TotalSlots) * 100)
	}

	var scoreSum float64
	for i := range p.Assignments {
		a := &p.Assignments[i]
		scoreSum += a.Score
		hours[employeeKey(a)] += a.Worked().DurationHours()

		kind := string(a.AssignmentKind)
		if kind == "" {
			kind = unknownKind
		}
		summary.AssignmentKinds[kind]++
	}
	if summary.Assigned > 0 {
		summary.MeanScore = model.Round2(scoreSum / float64(summary.Assigned))
	}

	values := make([]float64, 0, len(hours))
	for _, h := range hours {
		values = append(values, h)
	}
	summary.Gini = model.Round4(Gini(values))
	summary.EmployeesUsed = len(hours)

	return summary, hours
}

func slotDivergence(a, b *model.Plan) SlotDivergence {
	aBySlot, aOpen := slotIndex(a)
	bBySlot, bOpen := slotIndex(b)

	all := make(map[string]bool)
	for _, m := range []map[string]*model.Assignment{aBySlot, bBySlot} {
		for id := range m {
			all[id] = true
		}
	}
	for _, m := range []map[string]bool{aOpen, bOpen} {
		for id := range m {
			all[id] = true
		}
	}
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	d := SlotDivergence{TotalSlots: len(ids)}
	divergent := make([]DivergentSlot, 0)
	for _, id := range ids {
		aa, bb := aBySlot[id], bBySlot[id]
		switch {
		case aa != nil && bb != nil:
			if aa.EmployeeID == bb.EmployeeID {
				d.SameEmployee++
				continue
			}
			d.DifferentEmployee++
			divergent = append(divergent, DivergentSlot{
				SlotID:        id,
				Date:          aa.Date,
				Start:         aa.Start,
				End:           aa.End,
				ShiftType:     aa.ShiftType,
				PlanAEmployee: aa.EmployeeName,
				PlanAScore:    aa.Score,
				PlanBEmployee: bb.EmployeeName,
				PlanBScore:    bb.Score,
				ScoreDelta:    model.Round2(aa.Score - bb.Score),
			})
		case aa != nil:
			d.AOnlyAssigned++
		case bb != nil:
			d.BOnlyAssigned++
		default:
			d.BothUnassigned++
		}
	}

	sort.SliceStable(divergent, func(i, j int) bool {
		return math.Abs(divergent[i].ScoreDelta) > math.Abs(divergent[j].ScoreDelta)
	})
	if len(divergent) > maxDivergentSlots {
		divergent = divergent[:maxDivergentSlots]
	}
	d.TopDivergentSlots = divergent

	if n := d.SameEmployee + d.DifferentEmployee; n > 0 {
		d.AgreementRate = model.Round1(float64(d.SameEmployee) / float64(n) * 100)
	}
	return d
}

func slotIndex(p *model.Plan) (map[string]*model.Assignment, map[string]bool) {
	assigned := make(map[string]*model.Assignment)
	open := make(map[string]bool)
	if p == nil {
		return assigned, open
	}
	for i := range p.Assignments {
		if id := p.Assignments[i].SlotID; id != "" {
			assigned[id] = &p.Assignments[i]
		}
	}
	for _, u := range p.Unassigned {
		if u.SlotID != "" {
			open[u.SlotID] = true
		}
	}
	return assigned, open
}

func employeeDeltas(a, b map[string]float64) []EmployeeDelta {
	names := make(map[string]bool, len(a)+len(b))
	for n := range a {
		names[n] = true
	}
	for n := range b {
		names[n] = true
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	deltas := make([]EmployeeDelta, 0, len(sorted))
	for _, n := range sorted {
		ah, bh := model.Round2(a[n]), model.Round2(b[n])
		deltas = append(deltas, EmployeeDelta{Employee: n, PlanAHours: ah, PlanBHours: bh, Delta: model.Round2(ah - bh)})
	}
	sort.SliceStable(deltas, func(i, j int) bool {
		return math.Abs(deltas[i].Delta) > math.Abs(deltas[j].Delta)
	})
	if len(deltas) > maxEmployeeDeltas {
		deltas = deltas[:maxEmployeeDeltas]
	}
	return deltas
}
