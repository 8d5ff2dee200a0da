package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shiftplan/shiftplan/pkg/model"
)

const maxTopBlockedReasons = 10

// CoverageMetrics describes which open slots a plan filled.
type CoverageMetrics struct {
	TotalSlots      int     `json:"total_slots"`
	AssignedSlots   int     `json:"assigned_slots"`
	OverallCoverage float64 `json:"overall_coverage"` // percent

	DailyCoverage       map[string]DayCoverage `json:"daily_coverage"`
	ShiftTypeCoverage   map[string]float64     `json:"shift_type_coverage"`
	WorkingAreaCoverage map[string]float64     `json:"working_area_coverage"`
	HourlyCoverage      map[int]float64        `json:"hourly_coverage"` // 0-23

	UncoveredSlots    []UncoveredSlot                `json:"uncovered_slots"`
	UnassignedReasons map[model.UnassignedReason]int `json:"unassigned_reasons"`
	TopBlockedReasons []ReasonCount                  `json:"top_blocked_reasons"`
	Heatmap           []HeatmapCell                  `json:"heatmap"`
}

// DayCoverage is the coverage of one date.
type DayCoverage struct {
	Date         string  `json:"date"`
	TotalSlots   int     `json:"total_slots"`
	Assigned     int     `json:"assigned"`
	CoverageRate float64 `json:"coverage_rate"`
	StaffCount   int     `json:"staff_count"`
	TotalHours   float64 `json:"total_hours"`
}

// UncoveredSlot is an open slot the plan left unassigned.
type UncoveredSlot struct {
	SlotID      string                 `json:"slot_id"`
	Date        string                 `json:"date"`
	Start       string                 `json:"start"`
	End         string                 `json:"end"`
	ShiftType   string                 `json:"shift_type,omitempty"`
	WorkingArea string                 `json:"working_area,omitempty"`
	Reason      model.UnassignedReason `json:"reason"`
}

// ReasonCount counts a block reason across rejected candidates.
type ReasonCount struct {
	Reason model.BlockReason `json:"reason"`
	Count  int               `json:"count"`
}

// HeatmapCell is the fill status of one (date, shift type) pair. A cell is
// "filled" when at least one of its slots was assigned.
type HeatmapCell struct {
	Date      string `json:"date"`
	ShiftType string `json:"shift_type"`
	Status    string `json:"status"`
}

// CoverageAnalyzer computes CoverageMetrics for plans.
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer creates a coverage analyzer.
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

type slotView struct {
	date       string
	start      string
	end        string
	shiftType  string
	area       string
	employeeID string
	assigned   bool
}

// Analyze computes coverage over the plan's assignments and unassigned slots.
func (c *CoverageAnalyzer) Analyze(plan *model.Plan) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:       make(map[string]DayCoverage),
		ShiftTypeCoverage:   make(map[string]float64),
		WorkingAreaCoverage: make(map[string]float64),
		HourlyCoverage:      make(map[int]float64),
		UncoveredSlots:      make([]UncoveredSlot, 0),
		UnassignedReasons:   make(map[model.UnassignedReason]int),
		TopBlockedReasons:   make([]ReasonCount, 0),
		Heatmap:             make([]HeatmapCell, 0),
		OverallCoverage:     100,
	}
	if plan == nil {
		return metrics
	}

	slots := make([]slotView, 0, len(plan.Assignments)+len(plan.Unassigned))
	for _, a := range plan.Assignments {
		slots = append(slots, slotView{a.Date, a.Start, a.End, a.ShiftType, a.WorkingArea, a.EmployeeID, true})
	}
	blocked := make(map[model.BlockReason]int)
	for _, u := range plan.Unassigned {
		slots = append(slots, slotView{u.Date, u.Start, u.End, u.ShiftType, u.WorkingArea, "", false})
		metrics.UncoveredSlots = append(metrics.UncoveredSlots, UncoveredSlot{
			SlotID:      u.SlotID,
			Date:        u.Date,
			Start:       u.Start,
			End:         u.End,
			ShiftType:   u.ShiftType,
			WorkingArea: u.WorkingArea,
			Reason:      u.Reason,
		})
		metrics.UnassignedReasons[u.Reason]++
		for _, cand := range u.TopCandidates {
			for _, r := range cand.BlockedReasons {
				blocked[r]++
			}
		}
	}
	if len(slots) == 0 {
		return metrics
	}

	dailyStats := make(map[string]*DayCoverage)
	dailyStaff := make(map[string]map[string]bool)
	typeTotals, typeAssigned := make(map[string]int), make(map[string]int)
	areaTotals, areaAssigned := make(map[string]int), make(map[string]int)
	hourlyRequired, hourlyAssigned := make(map[int]int), make(map[int]int)
	heat := make(map[[2]string]bool)

	for _, s := range slots {
		if s.assigned {
			metrics.AssignedSlots++
		}

		day, exists := dailyStats[s.date]
		if !exists {
			day = &DayCoverage{Date: s.date}
			dailyStats[s.date] = day
			dailyStaff[s.date] = make(map[string]bool)
		}
		day.TotalSlots++
		if s.assigned {
			day.Assigned++
			dailyStaff[s.date][s.employeeID] = true
			day.TotalHours += model.ShiftHours(s.start, s.end)
		}

		typeTotals[s.shiftType]++
		areaTotals[s.area]++
		if s.assigned {
			typeAssigned[s.shiftType]++
			areaAssigned[s.area]++
		}

		for _, hour := range coveredHours(s.start, s.end) {
			hourlyRequired[hour]++
			if s.assigned {
				hourlyAssigned[hour]++
			}
		}

		key := [2]string{s.date, s.shiftType}
		heat[key] = heat[key] || s.assigned
	}

	metrics.TotalSlots = len(slots)
	metrics.OverallCoverage = percent(metrics.AssignedSlots, metrics.TotalSlots)

	for date, day := range dailyStats {
		day.CoverageRate = percent(day.Assigned, day.TotalSlots)
		day.StaffCount = len(dailyStaff[date])
		day.TotalHours = model.Round2(day.TotalHours)
		metrics.DailyCoverage[date] = *day
	}
	for t, total := range typeTotals {
		metrics.ShiftTypeCoverage[t] = percent(typeAssigned[t], total)
	}
	for a, total := range areaTotals {
		metrics.WorkingAreaCoverage[a] = percent(areaAssigned[a], total)
	}
	for hour := 0; hour < 24; hour++ {
		if hourlyRequired[hour] > 0 {
			metrics.HourlyCoverage[hour] = percent(hourlyAssigned[hour], hourlyRequired[hour])
		} else {
			metrics.HourlyCoverage[hour] = 100
		}
	}

	for r, n := range blocked {
		metrics.TopBlockedReasons = append(metrics.TopBlockedReasons, ReasonCount{Reason: r, Count: n})
	}
	sort.Slice(metrics.TopBlockedReasons, func(i, j int) bool {
		a, b := metrics.TopBlockedReasons[i], metrics.TopBlockedReasons[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Reason < b.Reason
	})
	if len(metrics.TopBlockedReasons) > maxTopBlockedReasons {
		metrics.TopBlockedReasons = metrics.TopBlockedReasons[:maxTopBlockedReasons]
	}

	for key, filled := range heat {
		status := "unfilled"
		if filled {
			status = "filled"
		}
		metrics.Heatmap = append(metrics.Heatmap, HeatmapCell{Date: key[0], ShiftType: key[1], Status: status})
	}
	sort.Slice(metrics.Heatmap, func(i, j int) bool {
		a, b := metrics.Heatmap[i], metrics.Heatmap[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.ShiftType < b.ShiftType
	})

	sort.Slice(metrics.UncoveredSlots, func(i, j int) bool {
		a, b := metrics.UncoveredSlots[i], metrics.UncoveredSlots[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.SlotID < b.SlotID
	})

	return metrics
}

// coveredHours lists the clock hours a shift touches, wrapping past midnight.
func coveredHours(start, end string) []int {
	s, ok1 := model.ParseClock(start)
	e, ok2 := model.ParseClock(end)
	if !ok1 || !ok2 {
		return nil
	}
	startHour, endHour := s/60, (e+59)/60
	if endHour <= startHour {
		endHour += 24
	}
	hours := make([]int, 0, endHour-startHour)
	for h := startHour; h < endHour; h++ {
		hours = append(hours, h%24)
	}
	return hours
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return model.Round1(float64(part) / float64(total) * 100)
}

// GenerateCoverageReport renders metrics as plain text.
func (c *CoverageAnalyzer) GenerateCoverageReport(metrics *CoverageMetrics) string {
	var b strings.Builder
	b.WriteString("=== Coverage report ===\n\n")
	fmt.Fprintf(&b, "  slots:    %d\n", metrics.TotalSlots)
	fmt.Fprintf(&b, "  assigned: %d\n", metrics.AssignedSlots)
	fmt.Fprintf(&b, "  coverage: %.1f%%\n", metrics.OverallCoverage)

	if len(metrics.UncoveredSlots) > 0 {
		b.WriteString("\nUncovered slots:\n")
		for _, s := range metrics.UncoveredSlots {
			fmt.Fprintf(&b, "  - %s %s %s-%s %s (%s)\n", s.SlotID, s.Date, s.Start, s.End, s.ShiftType, s.Reason)
		}
	}

	if len(metrics.TopBlockedReasons) > 0 {
		b.WriteString("\nMost frequent block reasons:\n")
		for _, rc := range metrics.TopBlockedReasons {
			fmt.Fprintf(&b, "  - %s: %d\n", rc.Reason, rc.Count)
		}
	}
	return b.String()
}
