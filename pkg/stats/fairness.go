// Package stats derives fairness, coverage and comparison figures from plans.
package stats

import (
	"math"
	"sort"

	"github.com/shiftplan/shiftplan/pkg/model"
)

// FairnessMetrics describes how evenly a plan spreads work.
type FairnessMetrics struct {
	// workload
	WorkloadGini        float64 `json:"workload_gini"` // 0 = even, 1 = one employee takes all
	WorkloadVariance    float64 `json:"workload_variance"`
	WorkloadStdDev      float64 `json:"workload_std_dev"`
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"`
	MaxHours            float64 `json:"max_hours"`
	MinHours            float64 `json:"min_hours"`
	HoursRange          float64 `json:"hours_range"`
	AvgAbsDeltaToTarget float64 `json:"avg_abs_delta_to_target"`

	// shift kinds
	ShiftLabelDistribution map[string]float64 `json:"shift_label_distribution"`
	LateShiftGini          float64            `json:"late_shift_gini"`
	WeekendShiftGini       float64            `json:"weekend_shift_gini"`

	EmployeeStats []EmployeeStat `json:"employee_stats"`

	OverallFairnessScore float64 `json:"overall_fairness_score"` // 0-100
}

// EmployeeStat is one employee's share of a plan.
type EmployeeStat struct {
	EmployeeID    string   `json:"employee_id"`
	EmployeeName  string   `json:"employee_name"`
	TotalHours    float64  `json:"total_hours"`
	ShiftCount    int      `json:"shift_count"`
	LateShifts    int      `json:"late_shifts"`
	WeekendShifts int      `json:"weekend_shifts"`
	TargetHours   *float64 `json:"target_hours"`
	DeltaToTarget *float64 `json:"delta_to_target"`
	Deviation     float64  `json:"deviation"` // percent from the mean
}

// FairnessAnalyzer computes FairnessMetrics for plans.
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer creates a fairness analyzer.
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze computes the fairness metrics of plan's assignments.
func (f *FairnessAnalyzer) Analyze(plan *model.Plan) *FairnessMetrics {
	if plan == nil || len(plan.Assignments) == 0 {
		return &FairnessMetrics{
			ShiftLabelDistribution: make(map[string]float64),
			EmployeeStats:          make([]EmployeeStat, 0),
			OverallFairnessScore:   100,
		}
	}

	employeeStats := f.employeeStats(plan.Assignments)

	hours := make([]float64, len(employeeStats))
	lateShifts := make([]float64, len(employeeStats))
	weekendShifts := make([]float64, len(employeeStats))
	for i, stat := range employeeStats {
		hours[i] = stat.TotalHours
		lateShifts[i] = float64(stat.LateShifts)
		weekendShifts[i] = float64(stat.WeekendShifts)
	}

	avgHours := mean(hours)
	variance := populationVariance(hours, avgHours)
	stdDev := math.Sqrt(variance)
	maxHours, minHours := valueRange(hours)

	var absDelta float64
	var withTarget int
	for i := range employeeStats {
		if avgHours > 0 {
			employeeStats[i].Deviation = model.Round2((employeeStats[i].TotalHours - avgHours) / avgHours * 100)
		}
		if d := employeeStats[i].DeltaToTarget; d != nil {
			absDelta += math.Abs(*d)
			withTarget++
		}
	}
	if withTarget > 0 {
		absDelta /= float64(withTarget)
	}

	workloadGini := Gini(hours)
	lateGini := Gini(lateShifts)
	weekendGini := Gini(weekendShifts)

	return &FairnessMetrics{
		WorkloadGini:           model.Round4(workloadGini),
		WorkloadVariance:       model.Round2(variance),
		WorkloadStdDev:         model.Round2(stdDev),
		AvgHoursPerEmployee:    model.Round2(avgHours),
		MaxHours:               model.Round2(maxHours),
		MinHours:               model.Round2(minHours),
		HoursRange:             model.Round2(maxHours - minHours),
		AvgAbsDeltaToTarget:    model.Round2(absDelta),
		ShiftLabelDistribution: f.labelDistribution(plan.Assignments),
		LateShiftGini:          model.Round4(lateGini),
		WeekendShiftGini:       model.Round4(weekendGini),
		EmployeeStats:          employeeStats,
		OverallFairnessScore:   model.Round2(f.overallScore(workloadGini, lateGini, weekendGini, stdDev, avgHours)),
	}
}

func (f *FairnessAnalyzer) employeeStats(assignments []model.Assignment) []EmployeeStat {
	statMap := make(map[string]*EmployeeStat)
	for _, a := range assignments {
		stat, exists := statMap[a.EmployeeID]
		if !exists {
			stat = &EmployeeStat{EmployeeID: a.EmployeeID, EmployeeName: a.EmployeeName}
			statMap[a.EmployeeID] = stat
		}

		stat.TotalHours += a.Worked().DurationHours()
		stat.ShiftCount++
		if model.ShiftLabels(a.ShiftType, a.Start, a.End)[model.LabelLate] {
			stat.LateShifts++
		}
		if model.IsWeekend(a.Date) {
			stat.WeekendShifts++
		}
		if a.TargetHours != nil {
			stat.TargetHours = model.Float(*a.TargetHours)
		}
	}

	result := make([]EmployeeStat, 0, len(statMap))
	for _, stat := range statMap {
		stat.TotalHours = model.Round2(stat.TotalHours)
		if stat.TargetHours != nil && *stat.TargetHours != 0 {
			stat.DeltaToTarget = model.Float(model.Round2(stat.TotalHours - *stat.TargetHours))
		}
		result = append(result, *stat)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalHours != result[j].TotalHours {
			return result[i].TotalHours > result[j].TotalHours
		}
		return result[i].EmployeeID < result[j].EmployeeID
	})
	return result
}

// labelDistribution returns the percentage of early, late and other shifts.
func (f *FairnessAnalyzer) labelDistribution(assignments []model.Assignment) map[string]float64 {
	counts := make(map[string]int)
	for _, a := range assignments {
		labels := model.ShiftLabels(a.ShiftType, a.Start, a.End)
		switch {
		case labels[model.LabelEarly]:
			counts[string(model.LabelEarly)]++
		case labels[model.LabelLate]:
			counts[string(model.LabelLate)]++
		default:
			counts["other"]++
		}
	}

	distribution := make(map[string]float64, len(counts))
	for label, count := range counts {
		distribution[label] = model.Round2(float64(count) / float64(len(assignments)) * 100)
	}
	return distribution
}

// overallScore blends the Gini coefficients and the coefficient of variation
// into a 0-100 score.
func (f *FairnessAnalyzer) overallScore(workloadGini, lateGini, weekendGini, stdDev, avgHours float64) float64 {
	const (
		workloadWeight = 0.4
		lateWeight     = 0.25
		weekendWeight  = 0.25
		stdDevWeight   = 0.1
	)

	workloadScore := (1 - workloadGini) * 100
	lateScore := (1 - lateGini) * 100
	weekendScore := (1 - weekendGini) * 100

	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore +
		lateWeight*lateScore +
		weekendWeight*weekendScore +
		stdDevWeight*cvScore

	return math.Max(0, math.Min(100, score))
}

// FairnessOverview aggregates assigned hours and slots per employee. The
// target is the last known target of the employee's assignments; the delta
// is null without a target. Rows are sorted by hours descending, then by
// name and id.
func FairnessOverview(assignments []model.Assignment) []model.FairnessRow {
	type acc struct {
		name   string
		hours  float64
		slots  int
		target float64
	}
	byEmployee := make(map[string]*acc)
	for _, a := range assignments {
		item, ok := byEmployee[a.EmployeeID]
		if !ok {
			item = &acc{name: a.EmployeeName}
			if item.name == "" {
				item.name = a.EmployeeID
			}
			byEmployee[a.EmployeeID] = item
		}
		item.hours += a.Worked().DurationHours()
		item.slots++
		if a.TargetHours != nil {
			item.target = *a.TargetHours
		}
	}

	rows := make([]model.FairnessRow, 0, len(byEmployee))
	for id, item := range byEmployee {
		row := model.FairnessRow{
			EmployeeID:    id,
			EmployeeName:  item.name,
			AssignedHours: model.Round2(item.hours),
			AssignedSlots: item.slots,
		}
		if item.target != 0 {
			row.TargetHours = model.Float(model.Round2(item.target))
			row.DeltaToTarget = model.Float(model.Round2(item.hours - item.target))
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.AssignedHours != b.AssignedHours {
			return a.AssignedHours > b.AssignedHours
		}
		an, bn := model.CanonicalName(a.EmployeeName), model.CanonicalName(b.EmployeeName)
		if an != bn {
			return an < bn
		}
		return a.EmployeeID < b.EmployeeID
	})
	return rows
}

// Gini returns the Gini coefficient of non-negative values, clamped to
// [0, 1]. Empty and all-zero inputs yield 0.
func Gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum <= 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}
	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationVariance(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - avg
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

func valueRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}
