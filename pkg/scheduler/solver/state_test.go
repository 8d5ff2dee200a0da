package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shiftplan/shiftplan/pkg/model"
)

func TestRunState(t *testing.T) {
	s := NewRunState()
	s.RecordAssignment("a", model.WorkedShift{Date: "2025-03-10", Start: "09:00", End: "17:00"})
	s.RecordAssignment("a", model.WorkedShift{Date: "2025-03-12", Start: "18:00", End: "22:00"})
	s.RecordAssignment("a", model.WorkedShift{Date: "2025-04-01", Start: "09:00", End: "15:00"})
	s.RecordAssignment("b", model.WorkedShift{Date: "2025-03-10", Start: "10:00", End: "12:00", Hours: 1.5})

	assert.Len(t, s.Shifts("a"), 3)
	assert.Equal(t, 6.0, s.Shifts("a")[2].Hours)
	assert.Nil(t, s.Shifts("c"))

	assert.Equal(t, 12.0, s.MonthHours("a", "2025-03-31"))
	assert.Equal(t, 6.0, s.MonthHours("a", "2025-04-15"))
	assert.Equal(t, 12.0, s.WeekHours("a", "2025-03-16"))
	assert.Equal(t, 2, s.WeekShiftCount("a", "2025-03-11"))
	assert.Equal(t, 0, s.WeekShiftCount("a", "2025-03-17"))

	assert.True(t, s.WorksOn("a", "2025-03-12"))
	assert.False(t, s.WorksOn("a", "2025-03-11"))
	assert.False(t, s.WorksOn("c", "2025-03-12"))

	assert.Equal(t, 18.0, s.TotalHours("a"))
	assert.Equal(t, 1.5, s.TotalHours("b"))
}
