package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shiftplan/shiftplan/pkg/model"
)

func shift(date, start, end string) model.WorkedShift {
	return model.WorkedShift{Date: date, Start: start, End: end, Hours: model.ShiftHours(start, end)}
}

func TestLaborViolations(t *testing.T) {
	tests := []struct {
		name     string
		existing []model.WorkedShift
		run      []model.WorkedShift
		slot     model.WorkedShift
		weekly   float64
		want     []model.BlockReason
	}{
		{
			name:   "clean",
			slot:   shift("2025-03-12", "09:00", "17:00"),
			weekly: 48,
			want:   []model.BlockReason{},
		},
		{
			name:     "rest under 11h after late shift",
			existing: []model.WorkedShift{shift("2025-03-11", "17:00", "23:00")},
			slot:     shift("2025-03-12", "08:00", "14:00"),
			weekly:   48,
			want:     []model.BlockReason{model.ReasonRestUnder11h},
		},
		{
			name:   "rest under 11h before early run shift",
			run:    []model.WorkedShift{shift("2025-03-13", "06:00", "12:00")},
			slot:   shift("2025-03-12", "16:00", "22:00"),
			weekly: 48,
			want:   []model.BlockReason{model.ReasonRestUnder11h},
		},
		{
			name:     "same day overlap and daily total",
			existing: []model.WorkedShift{shift("2025-03-12", "08:00", "14:00")},
			slot:     shift("2025-03-12", "12:00", "18:00"),
			weekly:   48,
			want:     []model.BlockReason{model.ReasonDailyHoursOver10, model.ReasonOverlapSameDay},
		},
		{
			name:     "daily total without overlap",
			existing: []model.WorkedShift{shift("2025-03-12", "06:00", "11:00")},
			slot:     shift("2025-03-12", "12:00", "18:00"),
			weekly:   48,
			want:     []model.BlockReason{model.ReasonDailyHoursOver10},
		},
		{
			name:     "weekly limit",
			existing: []model.WorkedShift{shift("2025-03-10", "08:00", "16:00"), shift("2025-03-11", "08:00", "16:00")},
			slot:     shift("2025-03-13", "08:00", "16:00"),
			weekly:   20,
			want:     []model.BlockReason{model.ReasonWeeklyHoursLimit},
		},
		{
			name: "sixth consecutive day",
			existing: []model.WorkedShift{
				shift("2025-03-03", "10:00", "14:00"),
				shift("2025-03-04", "10:00", "14:00"),
				shift("2025-03-05", "10:00", "14:00"),
			},
			run: []model.WorkedShift{
				shift("2025-03-06", "10:00", "14:00"),
				shift("2025-03-07", "10:00", "14:00"),
			},
			slot:   shift("2025-03-08", "10:00", "14:00"),
			weekly: 48,
			want:   []model.BlockReason{model.ReasonConsecutiveDays},
		},
		{
			name:     "previous week does not count toward weekly limit",
			existing: []model.WorkedShift{shift("2025-03-07", "08:00", "18:00")},
			slot:     shift("2025-03-10", "08:00", "16:00"),
			weekly:   10,
			want:     []model.BlockReason{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LaborViolations(tt.existing, tt.run, tt.slot, tt.weekly, 5)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConsecutiveDays(t *testing.T) {
	shifts := []model.WorkedShift{
		shift("2025-03-09", "10:00", "14:00"),
		shift("2025-03-11", "10:00", "14:00"),
		shift("2025-03-12", "10:00", "14:00"),
	}
	assert.Equal(t, 4, ConsecutiveDays(shifts, "2025-03-10"))
	assert.Equal(t, 1, ConsecutiveDays(shifts, "2025-03-14"))
	assert.Equal(t, 1, ConsecutiveDays(nil, "2025-03-14"))
}

func TestHoursAggregation(t *testing.T) {
	shifts := []model.WorkedShift{
		shift("2025-03-10", "09:00", "15:00"),
		shift("2025-03-16", "22:00", "06:00"),
		shift("2025-03-17", "09:00", "12:00"),
		{Date: "2025-04-01", Start: "09:00", End: "12:00", Hours: 2},
	}

	assert.InDelta(t, 17.0, HoursInMonth(shifts, "2025-03"), 1e-9)
	assert.InDelta(t, 2.0, HoursInMonth(shifts, "2025-04"), 1e-9)
	assert.InDelta(t, 14.0, HoursInWeek(shifts, "2025-03-10"), 1e-9)
	assert.Equal(t, 2, ShiftsInWeek(shifts, "2025-03-10"))
	assert.Equal(t, 1, ShiftsInWeek(shifts, "2025-03-17"))
}
