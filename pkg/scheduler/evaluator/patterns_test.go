package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shiftplan/shiftplan/pkg/model"
)

func existing(emp, date, start, end string) model.ExistingShift {
	return model.ExistingShift{EmployeeID: emp, WorkedShift: model.WorkedShift{Date: date, Start: start, End: end}}
}

func TestDeriveFixedPatterns(t *testing.T) {
	history := []model.ExistingShift{
		existing("e1", "2025-02-17", "10:00", "18:00"),
		existing("e1", "2025-02-24", "10:00", "18:00"),
		existing("e1", "2025-03-03", "10:00", "18:00"),
		existing("e1", "2025-02-18", "10:00", "18:00"),
		existing("e1", "2025-02-25", "10:00", "18:00"),
		existing("e2", "2025-02-17", "10:00", "18:00"),
		existing("", "2025-02-17", "10:00", "18:00"),
		existing("e3", "not-a-date", "10:00", "18:00"),
	}
	patterns := DeriveFixedPatterns(history)

	assert.Len(t, patterns, 1)

	monday := &model.OpenSlot{Date: "2025-03-10", Start: "10:00", End: "18:00"}
	assert.True(t, patterns.Matches("e1", monday))
	assert.False(t, patterns.Matches("e2", monday))

	tuesday := &model.OpenSlot{Date: "2025-03-11", Start: "10:00", End: "18:00"}
	assert.False(t, patterns.Matches("e1", tuesday), "two occurrences are not a pattern")

	otherTime := &model.OpenSlot{Date: "2025-03-10", Start: "09:00", End: "18:00"}
	assert.False(t, patterns.Matches("e1", otherTime))
}

func TestFixedPatterns_NilIsEmpty(t *testing.T) {
	var patterns FixedPatterns
	assert.False(t, patterns.Matches("e1", &model.OpenSlot{Date: "2025-03-10", Start: "10:00", End: "18:00"}))
}
