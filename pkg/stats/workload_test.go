package stats

import (
	"testing"

	"github.com/shiftplan/shiftplan/pkg/model"
)

func TestSummarizeWorkload(t *testing.T) {
	a1 := assignment("s1", "a", "Anna", "2025-03-10", "08:00", "16:00", 8, nil)
	a1.ShiftType = "service"
	a2 := assignment("s2", "a", "Anna", "2025-03-11", "08:00", "16:00", 8, nil)
	a2.ShiftType = "service"
	b1 := assignment("s3", "b", "Ben", "2025-03-10", "10:00", "14:00", 4, nil)

	plan := &model.Plan{
		Range:       model.DateRange{From: "2025-03-10", To: "2025-03-16"},
		Assignments: []model.Assignment{a1, a2, b1},
	}

	got := SummarizeWorkload(plan, 10)

	if got.Period != "2025-03-10 ~ 2025-03-16" {
		t.Errorf("Period = %q", got.Period)
	}
	if got.Weeks != 1 {
		t.Errorf("Weeks = %v, want 1", got.Weeks)
	}
	if got.TotalHours != 20 || got.TotalShifts != 3 || got.EmployeeCount != 2 {
		t.Errorf("totals = %v hours, %d shifts, %d employees", got.TotalHours, got.TotalShifts, got.EmployeeCount)
	}
	if got.AvgHoursPerPerson != 10 {
		t.Errorf("AvgHoursPerPerson = %v, want 10", got.AvgHoursPerPerson)
	}
	if got.OvertimeHours != 6 {
		t.Errorf("OvertimeHours = %v, want 6", got.OvertimeHours)
	}

	if len(got.ByEmployee) != 2 || got.ByEmployee[0].EmployeeID != "a" {
		t.Fatalf("ByEmployee = %+v", got.ByEmployee)
	}
	if got.ByEmployee[0].Utilization != 160 || got.ByEmployee[1].Utilization != 40 {
		t.Errorf("utilization = %v / %v", got.ByEmployee[0].Utilization, got.ByEmployee[1].Utilization)
	}

	day := got.ByDate["2025-03-10"]
	if day.StaffCount != 2 || day.ShiftCount != 2 || day.TotalHours != 12 {
		t.Errorf("ByDate[2025-03-10] = %+v", day)
	}
	if got.ByShiftType["service"] != 16 || got.ByShiftType["frueh"] != 4 {
		t.Errorf("ByShiftType = %v", got.ByShiftType)
	}
}

func TestSummarizeWorkload_Empty(t *testing.T) {
	got := SummarizeWorkload(nil, 0)
	if got.ByEmployee == nil || got.ByDate == nil || got.ByShiftType == nil {
		t.Fatal("collections must not be nil")
	}
	if got.Weeks != 1 {
		t.Errorf("Weeks = %v, want 1", got.Weeks)
	}
}

func TestPeriodWeeks(t *testing.T) {
	tests := []struct {
		name string
		rng  model.DateRange
		want float64
	}{
		{"two weeks", model.DateRange{From: "2025-03-01", To: "2025-03-14"}, 2},
		{"short", model.DateRange{From: "2025-03-01", To: "2025-03-02"}, 1},
		{"reversed", model.DateRange{From: "2025-03-14", To: "2025-03-01"}, 1},
		{"invalid", model.DateRange{From: "x", To: "y"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := periodWeeks(tt.rng); got != tt.want {
				t.Errorf("periodWeeks() = %v, want %v", got, tt.want)
			}
		})
	}
}
