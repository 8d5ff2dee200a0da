package ingest

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/model"
)

var validate = validator.New()

// ValidateSnapshot checks the struct tags of a snapshot and the rules the
// tags cannot express: unique ids, parseable clock times, ordered ranges.
func ValidateSnapshot(s *model.Snapshot) error {
	if s == nil {
		return apperrors.InvalidInput("snapshot", "is required")
	}

	ve := &apperrors.ValidationErrors{}
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return apperrors.Wrap(err, apperrors.CodeValidationFail, "snapshot validation failed")
		}
		for _, fe := range fieldErrs {
			ve.Add(fe.Namespace(), fieldMessage(fe))
		}
	}

	if s.Range.From != "" && s.Range.To != "" && s.Range.From > s.Range.To {
		ve.Add("Snapshot.Range", "from is after to")
	}

	seenEmployees := make(map[string]bool, len(s.Employees))
	for i, e := range s.Employees {
		if e.ID != "" && seenEmployees[e.ID] {
			ve.Add(fmt.Sprintf("Snapshot.Employees[%d].ID", i), "duplicate employee id "+e.ID)
		}
		seenEmployees[e.ID] = true
	}

	seenSlots := make(map[string]bool, len(s.OpenSlots))
	for i, slot := range s.OpenSlots {
		field := fmt.Sprintf("Snapshot.OpenSlots[%d]", i)
		if slot.SlotID != "" && seenSlots[slot.SlotID] {
			ve.Add(field+".SlotID", "duplicate slot id "+slot.SlotID)
		}
		seenSlots[slot.SlotID] = true
		checkClock(ve, field, slot.Start, slot.End)
	}

	for i, sh := range s.ExistingShifts {
		checkClock(ve, fmt.Sprintf("Snapshot.ExistingShifts[%d]", i), sh.Start, sh.End)
	}

	for i, a := range s.Absences {
		if a.StartDate != "" && a.EndDate != "" && a.StartDate > a.EndDate {
			ve.Add(fmt.Sprintf("Snapshot.Absences[%d]", i), "start_date is after end_date")
		}
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

func checkClock(ve *apperrors.ValidationErrors, field, start, end string) {
	if _, ok := model.ParseClock(start); start != "" && !ok {
		ve.Add(field+".Start", "must be HH:MM")
	}
	if _, ok := model.ParseClock(end); end != "" && !ok {
		ve.Add(field+".End", "must be HH:MM")
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return "must be a date YYYY-MM-DD"
	case "gte":
		return "must be >= " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "failed " + fe.Tag()
}
