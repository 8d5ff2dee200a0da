package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/model"
)

func validSnapshot() *model.Snapshot {
	return &model.Snapshot{
		SnapshotID: "snap-1",
		Range:      model.DateRange{From: "2025-03-10", To: "2025-03-16"},
		Employees:  []model.Employee{{ID: "e1", FullName: "Anna Alt"}, {ID: "e2", FullName: "Ben Berg"}},
		OpenSlots: []model.OpenSlot{
			{SlotID: "s1", Date: "2025-03-11", Start: "09:00", End: "17:00"},
		},
		Absences: []model.Absence{{EmployeeID: "e1", StartDate: "2025-03-12", EndDate: "2025-03-12"}},
	}
}

func TestValidateSnapshot(t *testing.T) {
	require.NoError(t, ValidateSnapshot(validSnapshot()))

	tests := []struct {
		name   string
		mutate func(*model.Snapshot)
		field  string
	}{
		{"missing id", func(s *model.Snapshot) { s.SnapshotID = "" }, "Snapshot.SnapshotID"},
		{"reversed range", func(s *model.Snapshot) { s.Range.From = "2025-03-20" }, "Snapshot.Range"},
		{"duplicate employee", func(s *model.Snapshot) { s.Employees[1].ID = "e1" }, "Snapshot.Employees[1].ID"},
		{"duplicate slot", func(s *model.Snapshot) { s.OpenSlots = append(s.OpenSlots, s.OpenSlots[0]) }, "Snapshot.OpenSlots[1].SlotID"},
		{"bad clock", func(s *model.Snapshot) { s.OpenSlots[0].End = "5pm" }, "Snapshot.OpenSlots[0].End"},
		{"bad slot date", func(s *model.Snapshot) { s.OpenSlots[0].Date = "2025/03/11" }, "Snapshot.OpenSlots[0].Date"},
		{"reversed absence", func(s *model.Snapshot) { s.Absences[0].StartDate = "2025-03-13" }, "Snapshot.Absences[0]"},
		{"negative wage", func(s *model.Snapshot) { s.Employees[0].HourlyWage = -1 }, "Snapshot.Employees[0].HourlyWage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSnapshot()
			tt.mutate(s)
			err := ValidateSnapshot(s)
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.CodeValidationFail, appErr.Code)
			assert.Contains(t, appErr.Fields, tt.field)
		})
	}
}

func TestValidateSnapshot_Nil(t *testing.T) {
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(ValidateSnapshot(nil)))
}
