package stats

import (
	"math"
	"testing"

	"github.com/shiftplan/shiftplan/pkg/model"
)

func assignment(slotID, empID, name, date, start, end string, hours float64, target *float64) model.Assignment {
	return model.Assignment{
		AssignmentID: model.AssignmentID(slotID, empID),
		SlotID:       slotID,
		EmployeeID:   empID,
		EmployeeName: name,
		Date:         date,
		Start:        start,
		End:          end,
		Hours:        hours,
		TargetHours:  target,
	}
}

func TestGini(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"all zero", []float64{0, 0, 0}, 0},
		{"equal", []float64{8, 8, 8, 8}, 0},
		{"one takes all", []float64{0, 0, 0, 40}, 0.75},
		{"two levels", []float64{10, 30}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Gini(tt.values)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Gini(%v) = %f, want %f", tt.values, got, tt.want)
			}
		})
	}
}

func TestGini_Bounds(t *testing.T) {
	inputs := [][]float64{
		{1},
		{0, 1},
		{100, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{3.5, 7.25, 0, 12, 12, 40},
		{1e9, 1e-9},
	}
	for _, values := range inputs {
		g := Gini(values)
		if g < 0 || g > 1 {
			t.Errorf("Gini(%v) = %f out of [0,1]", values, g)
		}
	}
}

func TestFairnessOverview(t *testing.T) {
	assignments := []model.Assignment{
		assignment("s1", "a", "Anna", "2025-03-10", "09:00", "17:00", 8, model.Float(86.6)),
		assignment("s2", "b", "Ben", "2025-03-11", "09:00", "17:00", 8, nil),
		assignment("s3", "a", "Anna", "2025-03-12", "09:00", "15:00", 6, model.Float(86.6)),
		assignment("s4", "c", "Carla", "2025-03-12", "17:00", "23:00", 6, nil),
		assignment("s5", "d", "Bea", "2025-03-13", "17:00", "23:00", 6, nil),
	}

	rows := FairnessOverview(assignments)

	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	wantOrder := []string{"a", "b", "d", "c"}
	for i, id := range wantOrder {
		if rows[i].EmployeeID != id {
			t.Errorf("row %d = %s, want %s", i, rows[i].EmployeeID, id)
		}
	}

	anna := rows[0]
	if anna.AssignedHours != 14 || anna.AssignedSlots != 2 {
		t.Errorf("unexpected totals %+v", anna)
	}
	if anna.TargetHours == nil || *anna.TargetHours != 86.6 {
		t.Fatalf("expected target 86.6, got %v", anna.TargetHours)
	}
	if anna.DeltaToTarget == nil || *anna.DeltaToTarget != -72.6 {
		t.Errorf("expected delta -72.6, got %v", anna.DeltaToTarget)
	}
	if rows[1].TargetHours != nil || rows[1].DeltaToTarget != nil {
		t.Errorf("employee without target should have null target and delta")
	}
}

func TestFairnessAnalyzer_Analyze(t *testing.T) {
	plan := &model.Plan{Assignments: []model.Assignment{
		assignment("s1", "a", "Anna", "2025-03-15", "17:00", "23:00", 6, nil),
		assignment("s2", "a", "Anna", "2025-03-16", "17:00", "23:00", 6, nil),
		assignment("s3", "b", "Ben", "2025-03-12", "08:00", "14:00", 6, model.Float(20)),
	}}

	metrics := NewFairnessAnalyzer().Analyze(plan)

	if metrics.WorkloadGini < 0 || metrics.WorkloadGini > 1 {
		t.Errorf("Gini coefficient should be between 0 and 1, got %f", metrics.WorkloadGini)
	}
	if len(metrics.EmployeeStats) != 2 {
		t.Fatalf("expected 2 employee stats, got %d", len(metrics.EmployeeStats))
	}

	anna := metrics.EmployeeStats[0]
	if anna.EmployeeID != "a" || anna.TotalHours != 12 || anna.WeekendShifts != 2 || anna.LateShifts != 2 {
		t.Errorf("unexpected stats for Anna: %+v", anna)
	}
	if metrics.WeekendShiftGini != 0.5 {
		t.Errorf("expected weekend Gini 0.5, got %f", metrics.WeekendShiftGini)
	}
	if metrics.MaxHours != 12 || metrics.MinHours != 6 || metrics.HoursRange != 6 {
		t.Errorf("unexpected range %f-%f", metrics.MinHours, metrics.MaxHours)
	}
	if metrics.AvgAbsDeltaToTarget != 14 {
		t.Errorf("expected avg abs delta 14, got %f", metrics.AvgAbsDeltaToTarget)
	}
	if metrics.ShiftLabelDistribution["late"] < 66 || metrics.ShiftLabelDistribution["early"] < 33 {
		t.Errorf("unexpected label distribution %v", metrics.ShiftLabelDistribution)
	}
	if metrics.OverallFairnessScore <= 0 || metrics.OverallFairnessScore > 100 {
		t.Errorf("overall score out of range: %f", metrics.OverallFairnessScore)
	}
}

func TestFairnessAnalyzer_EmptyInput(t *testing.T) {
	metrics := NewFairnessAnalyzer().Analyze(nil)

	if metrics == nil {
		t.Fatal("metrics should not be nil")
	}
	if metrics.OverallFairnessScore != 100 {
		t.Errorf("expected score 100 for empty plan, got %f", metrics.OverallFairnessScore)
	}
}
