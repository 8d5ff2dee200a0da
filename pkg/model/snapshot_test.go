package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRuleIndex_RuleFor(t *testing.T) {
	profile := Profile{
		EmployeeRules: map[string]EmployeeRule{
			"Jürgen Müller": {Notes: "full"},
			"anna":          {Notes: "first"},
			"bob_the_user":  {Notes: "username"},
		},
	}
	idx := profile.RuleIndex()

	tests := []struct {
		name     string
		employee Employee
		want     string
	}{
		{"full name", Employee{ID: "1", FullName: "Jurgen Muller", FirstName: "Anna"}, "full"},
		{"first name", Employee{ID: "2", FirstName: "Anna", LastName: "Other"}, "first"},
		{"username", Employee{ID: "3", FirstName: "Robert", Username: "bob-the-user"}, "username"},
		{"no rule", Employee{ID: "4", FullName: "Nobody"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.RuleFor(&tt.employee).Notes)
		})
	}
}

func TestPolicyDefaults(t *testing.T) {
	var p Policy
	assert.True(t, p.ApplicantsPreferred())
	assert.Equal(t, 5, p.ConsecutiveDayLimit())

	no := false
	p = Policy{PreferApplicants: &no, MaxConsecutiveDays: 6}
	assert.False(t, p.ApplicantsPreferred())
	assert.Equal(t, 6, p.ConsecutiveDayLimit())
}

func TestPolicy_ExtraKeys(t *testing.T) {
	const doc = `{"prefer_applicants": false, "max_consecutive_days": 6, "overtime_note": "allowed", "min_staff": 2}`

	var fromJSON Policy
	require.NoError(t, json.Unmarshal([]byte(doc), &fromJSON))
	assert.False(t, fromJSON.ApplicantsPreferred())
	assert.Equal(t, 6, fromJSON.MaxConsecutiveDays)
	assert.Equal(t, map[string]interface{}{"overtime_note": "allowed", "min_staff": 2.0}, fromJSON.Extra)

	var fromYAML Policy
	require.NoError(t, yaml.Unmarshal([]byte(doc), &fromYAML))
	assert.Equal(t, fromJSON.PreferApplicants, fromYAML.PreferApplicants)
	assert.Equal(t, fromJSON.MaxConsecutiveDays, fromYAML.MaxConsecutiveDays)
	require.Len(t, fromYAML.Extra, 2)
	assert.Equal(t, "allowed", fromYAML.Extra["overtime_note"])
	assert.Contains(t, fromYAML.Extra, "min_staff")

	out, err := json.Marshal(fromJSON)
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(out))

	var empty Policy
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.Nil(t, empty.Extra)
	out, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))

	shadow := Policy{MaxConsecutiveDays: 4, Extra: map[string]interface{}{"max_consecutive_days": 9}}
	out, err = json.Marshal(shadow)
	require.NoError(t, err)
	assert.JSONEq(t, `{"max_consecutive_days": 4}`, string(out))
}

func TestSnapshotIndexes(t *testing.T) {
	snap := Snapshot{
		Employees: []Employee{{ID: "a"}, {ID: "b"}},
		ExistingShifts: []ExistingShift{
			{EmployeeID: "a", WorkedShift: WorkedShift{Date: "2025-03-10", Start: "22:00", End: "06:00"}},
			{EmployeeID: "a", WorkedShift: WorkedShift{Date: "2025-03-11", Start: "09:00", End: "12:00", Hours: 2.5}},
		},
		Absences: []Absence{{EmployeeID: "b", StartDate: "2025-03-10", EndDate: "2025-03-12"}},
	}

	byID := snap.EmployeeByID()
	require.Len(t, byID, 2)
	assert.Equal(t, "b", byID["b"].ID)

	existing := snap.ExistingByEmployee()
	require.Len(t, existing["a"], 2)
	assert.Equal(t, 8.0, existing["a"][0].Hours)
	assert.Equal(t, 2.5, existing["a"][1].Hours)

	abs := snap.AbsencesByEmployee()
	require.Len(t, abs["b"], 1)
	assert.True(t, abs["b"][0].Covers("2025-03-12"))
	assert.False(t, abs["b"][0].Covers("2025-03-13"))
}

func TestClassifyAssignment(t *testing.T) {
	assert.Equal(t, KindApplicant, ClassifyAssignment(true, true))
	assert.Equal(t, KindDespiteApplicants, ClassifyAssignment(false, true))
	assert.Equal(t, KindWithoutApplicant, ClassifyAssignment(false, false))
}
