package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftplan/shiftplan/internal/ingest"
	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/solver"
	"github.com/shiftplan/shiftplan/pkg/stats"
)

func inputFiles() map[string]string {
	return map[string]string{
		ingest.MetaFile: `{"snapshot_id": "snap-cli", "betrieb": "Cafe Lindenhof", "range_from": "2025-03-10", "range_to": "2025-03-16"}`,
		ingest.EmployeesFile: "employee_id,name,role\n" +
			"e1,Anna Adler,Service\n" +
			"e2,Ben Brandt,Service\n",
		ingest.OpenSlotsFile: "slot_id,date,start,end,shift_type,area,applicants\n" +
			"s1,2025-03-10,08:00,16:00,service,Saal,e1\n" +
			"s2,2025-03-11,08:00,16:00,service,Saal,\n",
	}
}

func writeInput(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

// setupCLI points the artifact store and profile file at temp dirs.
func setupCLI(t *testing.T) string {
	t.Helper()
	artifacts := t.TempDir()
	t.Setenv("PLANNER_ARTIFACT_DIR", artifacts)
	t.Setenv("PLANNER_PROFILES_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PLANNER_CONSTRAINT_MODE", "strict")
	t.Setenv("APP_LOG_LEVEL", "error")
	return artifacts
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func planJSON(t *testing.T, args ...string) *model.Plan {
	t.Helper()
	out, err := runCLI(t, append([]string{"plan", "--json"}, args...)...)
	require.NoError(t, err, out)

	var plan model.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan), out)
	return &plan
}

func TestPlanCommand(t *testing.T) {
	setupCLI(t)
	input := writeInput(t, inputFiles())

	out, err := runCLI(t, "plan", "--input", input)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Snapshot:   snap-cli")
	assert.Contains(t, out, "Filled:     2/2 (100.0%)")
	assert.Contains(t, out, "Anna Adler")
	assert.Contains(t, out, model.AssignmentID("s1", "e1"))

	out, err = runCLI(t, "plans")
	require.NoError(t, err, out)
	assert.Contains(t, out, "snap-cli")
	assert.Contains(t, out, solver.MechanismAlgo)
}

func TestPlanCommand_JSON(t *testing.T) {
	setupCLI(t)
	input := writeInput(t, inputFiles())

	plan := planJSON(t, "--input", input, "--to", "2025-03-10", "--dry-run")
	assert.Equal(t, "snap-cli", plan.SnapshotID)
	assert.Equal(t, model.DateRange{From: "2025-03-10", To: "2025-03-10"}, plan.Range)
	require.Len(t, plan.Assignments, 1)
	assert.Equal(t, "e1", plan.Assignments[0].EmployeeID)

	out, err := runCLI(t, "plans")
	require.NoError(t, err)
	assert.NotContains(t, out, "snap-cli", "dry runs are not stored")
}

func TestPlanCommand_LooseMode(t *testing.T) {
	setupCLI(t)
	input := writeInput(t, inputFiles())

	plan := planJSON(t, "--input", input, "--mode", "loose")
	assert.Equal(t, model.ModeLoose, plan.ConstraintMode)
	assert.Equal(t, solver.MechanismLoose, plan.Mechanism)
}

func TestPlanCommand_MechanismSetsMode(t *testing.T) {
	setupCLI(t)
	input := writeInput(t, inputFiles())

	plan := planJSON(t, "--input", input, "--dry-run", "--mechanism", "loose")
	assert.Equal(t, solver.MechanismLoose, plan.Mechanism)
	assert.Equal(t, model.ModeLoose, plan.ConstraintMode, "configured strict mode does not override the mechanism")

	_, err := runCLI(t, "plan", "--input", input, "--dry-run", "--mechanism", "loose", "--mode", "strict")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidationFail))
}

func TestPlanCommand_InputProfile(t *testing.T) {
	setupCLI(t)
	files := inputFiles()
	files[ingest.ProfileFile] = `{"name": "bistro", "description": "Bistro rules", "policy": {"prefer_applicants": false}}`
	input := writeInput(t, files)

	plan := planJSON(t, "--input", input, "--dry-run")
	assert.Equal(t, "bistro", plan.Profile)

	plan = planJSON(t, "--input", input, "--dry-run", "--profile", "default")
	assert.Equal(t, "default", plan.Profile)
}

func TestPlanCommand_Errors(t *testing.T) {
	setupCLI(t)
	input := writeInput(t, inputFiles())

	tests := []struct {
		name string
		args []string
	}{
		{"missing input flag", []string{"plan"}},
		{"missing directory", []string{"plan", "--input", filepath.Join(t.TempDir(), "nope")}},
		{"invalid mode", []string{"plan", "--input", input, "--mode", "lenient"}},
		{"unknown mechanism", []string{"plan", "--input", input, "--mechanism", "annealing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestExplainCommand(t *testing.T) {
	setupCLI(t)
	input := writeInput(t, inputFiles())
	_, err := runCLI(t, "plan", "--input", input)
	require.NoError(t, err)

	id := model.AssignmentID("s1", "e1")
	out, err := runCLI(t, "explain", "--assignment", id)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Assignment: "+id)
	assert.Contains(t, out, "Employee:   Anna Adler (e1)")
	assert.Contains(t, out, string(model.ScoreAppliedForShift))

	out, err = runCLI(t, "explain", "--assignment", id, "--json")
	require.NoError(t, err, out)
	var explanation solver.Explanation
	require.NoError(t, json.Unmarshal([]byte(out), &explanation))
	assert.Equal(t, "e1", explanation.EmployeeID)
	assert.Equal(t, "2025-03-10", explanation.Slot.Date)

	_, err = runCLI(t, "explain", "--assignment", "s9::e1")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	setupCLI(t)
	input := writeInput(t, inputFiles())
	_, err := runCLI(t, "plan", "--input", input)
	require.NoError(t, err)

	out, err := runCLI(t, "validate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "no obligatory violations")

	// Anna is absent on the day she was planned.
	files := inputFiles()
	files[ingest.AbsencesFile] = "employee_id,start_date,end_date\ne1,2025-03-10,2025-03-10\n"
	absent := writeInput(t, files)

	out, err = runCLI(t, "validate", "--input", absent)
	require.Error(t, err)
	assert.Contains(t, out, "1 obligatory violations")
	assert.Contains(t, out, "Anna Adler")
}

func TestCompareCommand(t *testing.T) {
	setupCLI(t)
	input := writeInput(t, inputFiles())
	a := planJSON(t, "--input", input)
	b := planJSON(t, "--input", input)
	require.NotEqual(t, a.PlanID, b.PlanID)

	out, err := runCLI(t, "compare", a.PlanID, b.PlanID)
	require.NoError(t, err, out)
	assert.Contains(t, out, solver.MechanismAlgo)
	assert.Contains(t, out, "same employee 2")
	assert.Contains(t, out, "agreement 100.0%")

	out, err = runCLI(t, "compare", a.PlanID, b.PlanID, "--json")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"agreement_rate": 100`)

	_, err = runCLI(t, "compare", a.PlanID)
	assert.Error(t, err, "two plan ids are required")
}

func TestReportCommand(t *testing.T) {
	setupCLI(t)
	input := writeInput(t, inputFiles())
	_, err := runCLI(t, "plan", "--input", input)
	require.NoError(t, err)

	out, err := runCLI(t, "report", "--weekly-hours", "10")
	require.NoError(t, err, out)
	assert.Contains(t, out, "=== Coverage report ===")
	assert.Contains(t, out, "=== Fairness ===")
	assert.Contains(t, out, "=== Workload ===")
	assert.Contains(t, out, "Anna Adler")
	assert.Contains(t, out, "80.0%")

	_, err = runCLI(t, "report", "--plan", "plan-missing")
	assert.Error(t, err)
}

func TestPlanCommand_Directives(t *testing.T) {
	setupCLI(t)
	files := inputFiles()
	files[ingest.DirectivesFile] = "id,text,employees,source\nD-1,Keine weiteren Schichten,Ben Brandt,manager\n"
	input := writeInput(t, files)

	plan := planJSON(t, "--input", input, "--dry-run")
	require.NotEmpty(t, plan.Assignments)
	for _, a := range plan.Assignments {
		assert.NotEqual(t, "e2", a.EmployeeID, "slot %s", a.SlotID)
	}
}

func TestEvaluateCommand(t *testing.T) {
	setupCLI(t)
	input := writeInput(t, inputFiles())
	_, err := runCLI(t, "plan", "--input", input)
	require.NoError(t, err)

	out, err := runCLI(t, "evaluate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Filled:     2/2 (100.0%)")
	assert.Contains(t, out, "=== Scores ===")
	assert.Contains(t, out, "=== Applicant bonus ===")
	assert.Contains(t, out, "=== Consistency ===")

	out, err = runCLI(t, "evaluate", "--json")
	require.NoError(t, err, out)
	var eval stats.PlanEvaluation
	require.NoError(t, json.Unmarshal([]byte(out), &eval), out)
	assert.Equal(t, 2, eval.AssignedSlots)
	assert.Equal(t, 100.0, eval.FillRate)

	_, err = runCLI(t, "evaluate", "--plan", "plan-missing")
	assert.Error(t, err)
}
