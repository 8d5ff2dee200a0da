// Package ingest reads planning input directories and validates snapshots.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shiftplan/shiftplan/internal/config"
	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/model"
)

// Input directory file names.
const (
	MetaFile      = "meta.json"
	ProfileFile   = "profile.json"
	EmployeesFile = "employees.csv"
	ShiftsFile    = "shifts.csv"
	OpenSlotsFile = "open_slots.csv"
	AbsencesFile  = "absences.csv"
)

// Meta is the content of meta.json.
type Meta struct {
	SnapshotID string `json:"snapshot_id"`
	Venue      string `json:"venue"`
	Betrieb    string `json:"betrieb"`
	RangeFrom  string `json:"range_from"`
	RangeTo    string `json:"range_to"`
}

// Input is a loaded input directory.
type Input struct {
	Snapshot *model.Snapshot
	// Profile is nil when the directory ships no profile.json.
	Profile *config.Profile
	Meta    Meta

	// Directives are the rows of directives.csv; DirectiveRules their
	// merged rules by employee name.
	Directives     []Directive
	DirectiveRules map[string]model.EmployeeRule
}

// ResolveProfile returns p with the directory's directive rules applied.
func (in *Input) ResolveProfile(p *config.Profile) *config.Profile {
	return ApplyDirectives(p, in.DirectiveRules)
}

// Reader loads input directories.
type Reader struct {
	now func() time.Time
}

// NewReader creates a reader stamping snapshots with the current time.
func NewReader() *Reader {
	return &Reader{now: time.Now}
}

// LoadDir reads dir. meta.json, employees.csv and open_slots.csv are
// required; shifts.csv, absences.csv, directives.csv and profile.json
// are optional.
func (r *Reader) LoadDir(dir string) (*Input, error) {
	var meta Meta
	if err := readJSON(filepath.Join(dir, MetaFile), &meta); err != nil {
		return nil, err
	}
	if meta.Venue == "" {
		meta.Venue = meta.Betrieb
	}

	employees, err := r.employees(filepath.Join(dir, EmployeesFile))
	if err != nil {
		return nil, err
	}
	slots, err := r.openSlots(filepath.Join(dir, OpenSlotsFile))
	if err != nil {
		return nil, err
	}
	existing, err := r.existingShifts(filepath.Join(dir, ShiftsFile))
	if err != nil {
		return nil, err
	}
	absences, err := r.absences(filepath.Join(dir, AbsencesFile))
	if err != nil {
		return nil, err
	}

	snapshot := &model.Snapshot{
		SnapshotID:     meta.SnapshotID,
		Venue:          meta.Venue,
		Range:          model.DateRange{From: meta.RangeFrom, To: meta.RangeTo},
		GeneratedAt:    r.now().UTC().Format(time.RFC3339),
		Employees:      employees,
		ExistingShifts: existing,
		OpenSlots:      slots,
		Absences:       absences,
	}
	if err := ValidateSnapshot(snapshot); err != nil {
		return nil, err
	}

	directives, rules, err := LoadDirectives(filepath.Join(dir, DirectivesFile))
	if err != nil {
		return nil, err
	}

	in := &Input{Snapshot: snapshot, Meta: meta, Directives: directives, DirectiveRules: rules}
	data, err := os.ReadFile(filepath.Join(dir, ProfileFile))
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, apperrors.Wrap(err, apperrors.CodeStorageError, "read "+ProfileFile)
	default:
		if in.Profile, err = config.ParseProfileJSON(data); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.NotFound("input file", filepath.Base(path))
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorageError, "read "+path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "decode "+filepath.Base(path)).WithDetails(err.Error())
	}
	return nil
}

// loadTable reads a CSV file. Missing optional files yield a nil table.
func loadTable(path string, required bool, cols ...string) (*table, error) {
	t, err := readTable(path)
	if errors.Is(err, fs.ErrNotExist) {
		if required {
			return nil, apperrors.NotFound("input file", filepath.Base(path))
		}
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "read "+filepath.Base(path))
	}
	if len(t.rows) > 0 {
		if err := t.require(cols...); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, err.Error())
		}
	}
	return t, nil
}

func (r *Reader) employees(path string) ([]model.Employee, error) {
	t, err := loadTable(path, true, "employee_id", "name")
	if err != nil {
		return nil, err
	}

	out := make([]model.Employee, 0, len(t.rows))
	for _, row := range t.rows {
		full := t.get(row, "name")
		first, last := splitName(full)
		e := model.Employee{
			ID:                 t.get(row, "employee_id"),
			FirstName:          first,
			LastName:           last,
			FullName:           full,
			Username:           t.get(row, "username"),
			Role:               t.get(row, "role"),
			Employment:         t.get(row, "employment"),
			EmploymentCategory: model.EmploymentCategory(t.get(row, "employment_category")),
			HourlyWage:         toFloat(t.get(row, "hourly_wage")),
			MaxSalary:          toFloatPtr(t.get(row, "max_salary")),
			Skills:             splitList(t.get(row, "skills")),
		}
		if e.EmploymentCategory == "" {
			e.EmploymentCategory = model.ClassifyEmployment(e.Employment)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *Reader) openSlots(path string) ([]model.OpenSlot, error) {
	t, err := loadTable(path, true, "slot_id", "date", "start", "end")
	if err != nil {
		return nil, err
	}

	out := make([]model.OpenSlot, 0, len(t.rows))
	for _, row := range t.rows {
		s := model.OpenSlot{
			SlotID:          t.get(row, "slot_id"),
			ExternalShiftID: t.get(row, "external_shift_id"),
			Date:            t.get(row, "date"),
			Start:           t.get(row, "start"),
			End:             t.get(row, "end"),
			Hours:           toFloat(t.get(row, "hours")),
			ShiftType:       t.get(row, "shift_type"),
			WorkingArea:     t.get(row, "area"),
			Note:            t.get(row, "note"),
			Applicants:      splitList(t.get(row, "applicants")),
		}
		if s.WorkingArea == "" {
			s.WorkingArea = t.get(row, "working_area")
		}
		if s.ShiftType == "" {
			s.ShiftType = model.InferShiftType(s.Start, s.End, s.WorkingArea, s.Note)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Reader) existingShifts(path string) ([]model.ExistingShift, error) {
	t, err := loadTable(path, false, "employee_id", "date", "start", "end")
	if err != nil || t == nil {
		return []model.ExistingShift{}, err
	}

	out := make([]model.ExistingShift, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, model.ExistingShift{
			EmployeeID: t.get(row, "employee_id"),
			WorkedShift: model.WorkedShift{
				Date:  t.get(row, "date"),
				Start: t.get(row, "start"),
				End:   t.get(row, "end"),
				Hours: toFloat(t.get(row, "hours")),
			},
		})
	}
	return out, nil
}

func (r *Reader) absences(path string) ([]model.Absence, error) {
	t, err := loadTable(path, false, "employee_id", "start_date", "end_date")
	if err != nil || t == nil {
		return []model.Absence{}, err
	}

	out := make([]model.Absence, 0, len(t.rows))
	for _, row := range t.rows {
		out = append(out, model.Absence{
			EmployeeID: t.get(row, "employee_id"),
			StartDate:  t.get(row, "start_date"),
			EndDate:    t.get(row, "end_date"),
			Type:       t.get(row, "type"),
		})
	}
	return out, nil
}

// String implements fmt.Stringer for log fields.
func (in *Input) String() string {
	s := in.Snapshot
	return fmt.Sprintf("%s: %d employees, %d open slots, %d existing shifts, %d absences",
		s.SnapshotID, len(s.Employees), len(s.OpenSlots), len(s.ExistingShifts), len(s.Absences))
}
