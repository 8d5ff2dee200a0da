package evaluator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/scoring"
)

func batchInputs(n int) []*Input {
	inputs := make([]*Input, n)
	for i := range inputs {
		inputs[i] = &Input{
			Employee:    &model.Employee{ID: fmt.Sprintf("e%02d", i), FullName: fmt.Sprintf("Employee %02d", i), Role: "Service"},
			Rule:        model.EmployeeRule{TargetWeeklyHours: model.Float(float64(10 + i))},
			Slot:        testSlot(),
			IsApplicant: i%3 == 0,
			Mode:        model.ModeStrict,
		}
	}
	return inputs
}

func TestEvaluateAll_MatchesSequential(t *testing.T) {
	ev := New(scoring.DefaultWeights(), nil)
	inputs := batchInputs(25)

	sequential, err := ev.EvaluateAll(context.Background(), inputs, 1)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 64} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			parallel, err := ev.EvaluateAll(context.Background(), inputs, workers)
			require.NoError(t, err)
			assert.Equal(t, sequential, parallel)
		})
	}

	for i, e := range sequential {
		assert.Equal(t, inputs[i].Employee.ID, e.EmployeeID, "input order is kept")
	}
}

func TestEvaluateAll_Empty(t *testing.T) {
	got, err := New(scoring.DefaultWeights(), nil).EvaluateAll(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEvaluateAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(scoring.DefaultWeights(), nil).EvaluateAll(ctx, batchInputs(10), 4)
	assert.ErrorIs(t, err, context.Canceled)
}
