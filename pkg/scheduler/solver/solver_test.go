package solver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/model"
)

// stubSolver returns a fixed plan regardless of the request.
type stubSolver struct {
	name string
	plan *model.Plan
}

func (s *stubSolver) Name() string { return s.name }

func (s *stubSolver) Solve(_ context.Context, _ *Request) (*model.Plan, error) {
	return s.plan, nil
}

func TestRequest_Validate(t *testing.T) {
	snap := &model.Snapshot{Range: week()}

	tests := []struct {
		name string
		req  *Request
		code apperrors.Code
	}{
		{"valid", &Request{Snapshot: snap}, ""},
		{"nil request", nil, apperrors.CodeInvalidInput},
		{"missing snapshot", &Request{}, apperrors.CodeInvalidInput},
		{"bad mode", &Request{Snapshot: snap, Mode: "lenient"}, apperrors.CodeInvalidInput},
		{"no range", &Request{Snapshot: &model.Snapshot{}}, apperrors.CodeInvalidTimeRange},
		{"reversed", &Request{Snapshot: snap, Range: model.DateRange{From: "2025-03-16", To: "2025-03-10"}}, apperrors.CodeInvalidTimeRange},
		{"bad date", &Request{Snapshot: snap, Range: model.DateRange{From: "10.03.2025"}}, apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.GetCode(err))
		})
	}
}

func TestRequest_Defaults(t *testing.T) {
	req := &Request{Snapshot: &model.Snapshot{Range: week()}, Range: model.DateRange{To: "2025-03-12"}}
	assert.Equal(t, model.DateRange{From: "2025-03-10", To: "2025-03-12"}, req.dateRange())
	assert.Equal(t, "default", req.profile().Name)
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry(WithClock(func() time.Time { return fixedTime }))
	assert.Equal(t, []string{MechanismAlgo, MechanismLoose}, r.Names())

	s, ok := r.Get(MechanismLoose)
	require.True(t, ok)
	assert.Equal(t, MechanismLoose, s.Name())

	plan, err := r.Run(context.Background(), MechanismLoose, threeEmployeeRequest())
	require.NoError(t, err)
	assert.Equal(t, MechanismLoose, plan.Mechanism)
	assert.Equal(t, model.ModeLoose, plan.ConstraintMode)
	assert.Equal(t, fixedTime, plan.GeneratedAt)
	assert.Nil(t, plan.HardViolations)
}

func TestMechanismFor(t *testing.T) {
	assert.Equal(t, MechanismAlgo, MechanismFor(model.ModeStrict))
	assert.Equal(t, MechanismAlgo, MechanismFor(""))
	assert.Equal(t, MechanismLoose, MechanismFor(model.ModeLoose))
}

func TestRegistry_UnknownMechanism(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.Run(context.Background(), "milp", threeEmployeeRequest())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeUnknownMechanism))
}

func TestRegistry_ModeMustMatchMechanism(t *testing.T) {
	r := NewDefaultRegistry(WithClock(func() time.Time { return fixedTime }))

	tests := []struct {
		name      string
		mechanism string
		mode      model.ConstraintMode
		want      model.ConstraintMode
		code      apperrors.Code
	}{
		{"loose mechanism, strict mode", MechanismLoose, model.ModeStrict, "", apperrors.CodeValidationFail},
		{"algo mechanism, loose mode", MechanismAlgo, model.ModeLoose, "", apperrors.CodeValidationFail},
		{"loose mechanism, loose mode", MechanismLoose, model.ModeLoose, model.ModeLoose, ""},
		{"loose mechanism, no mode", MechanismLoose, "", model.ModeLoose, ""},
		{"algo mechanism, no mode", MechanismAlgo, "", model.ModeStrict, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := threeEmployeeRequest()
			req.Mode = tt.mode

			plan, err := r.Run(context.Background(), tt.mechanism, req)
			if tt.code != "" {
				require.Error(t, err)
				assert.Equal(t, tt.code, apperrors.GetCode(err))
				assert.Nil(t, plan)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mechanism, plan.Mechanism)
			assert.Equal(t, tt.want, plan.ConstraintMode)
		})
	}
}

func TestRegistry_ModeFreeSolverAcceptsAnyMode(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubSolver{name: "custom", plan: &model.Plan{}})

	req := threeEmployeeRequest()
	req.Mode = model.ModeLoose
	_, err := r.Run(context.Background(), "custom", req)
	assert.NoError(t, err)
}

func TestRegistry_ExternalSolverIsAudited(t *testing.T) {
	req := threeEmployeeRequest()
	plan := &model.Plan{
		PlanID: "plan-external",
		Assignments: []model.Assignment{
			{AssignmentID: "s2::ghost", SlotID: "s2", Date: "2025-03-10", Start: "09:00", End: "17:00", EmployeeID: "ghost"},
			{AssignmentID: "s3::a", SlotID: "s3", Date: "2025-03-11", Start: "09:00", End: "17:00", EmployeeID: "a"},
		},
	}

	r := NewRegistry()
	r.RegisterExternal(&stubSolver{name: "milp", plan: plan})

	got, err := r.Run(context.Background(), "milp", req)
	require.NoError(t, err)
	assert.Equal(t, "milp", got.Mechanism)
	require.Len(t, got.HardViolations, 1)
	assert.Equal(t, model.ReasonUnknownEmployee, got.HardViolations[0].Violation)
	assert.Equal(t, "s2", got.HardViolations[0].SlotID)
}

func TestRegistry_TrustedSolverIsNotAudited(t *testing.T) {
	plan := &model.Plan{
		Mechanism:   "custom",
		Assignments: []model.Assignment{{SlotID: "s2", Date: "2025-03-10", Start: "09:00", End: "17:00", EmployeeID: "ghost"}},
	}
	r := NewRegistry()
	r.Register(&stubSolver{name: "custom", plan: plan})

	got, err := r.Run(context.Background(), "custom", threeEmployeeRequest())
	require.NoError(t, err)
	assert.Empty(t, got.HardViolations)
}
