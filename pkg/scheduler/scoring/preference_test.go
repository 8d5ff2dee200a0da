package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftplan/shiftplan/pkg/model"
)

func TestParsePreferences(t *testing.T) {
	p := ParsePreferences("Kein Wochenende, lieber früh. Max 3 Schichten, ab 9 Uhr und bis 17 Uhr")
	assert.True(t, p.NoWeekend)
	assert.False(t, p.OnlyWeekend)
	assert.Equal(t, model.LabelEarly, p.Prefer)
	assert.Equal(t, 3, p.MaxShiftsPerWeek)
	require.NotNil(t, p.EarliestStart)
	assert.Equal(t, 540, *p.EarliestStart)
	require.NotNil(t, p.LatestEnd)
	assert.Equal(t, 1020, *p.LatestEnd)

	p = ParsePreferences("nur Wochenende, bevorzugt spät")
	assert.True(t, p.OnlyWeekend)
	assert.Equal(t, model.LabelLate, p.Prefer)

	p = ParsePreferences("prefers early, not after 20")
	assert.Equal(t, model.LabelEarly, p.Prefer)
	require.NotNil(t, p.LatestEnd)
	assert.Equal(t, 1200, *p.LatestEnd)

	assert.True(t, ParsePreferences("").IsZero())
	assert.True(t, ParsePreferences("arbeitet gerne mit Anna").IsZero())
}

func TestResolvePreferences(t *testing.T) {
	earliest := 600
	rule := model.EmployeeRule{
		Notes: "lieber früh, ab 8 uhr",
		Preferences: &model.ShiftPreferences{
			Prefer:        model.LabelLate,
			EarliestStart: &earliest,
			BlockedDays:   []int{0},
		},
	}

	p := ResolvePreferences(rule)
	assert.Equal(t, model.LabelLate, p.Prefer)
	assert.Equal(t, 600, *p.EarliestStart)
	assert.Equal(t, []int{0}, p.BlockedDays)
}

func TestEvaluatePreferences(t *testing.T) {
	opts := DefaultWeights().PreferenceOptions()
	sumOpts := opts
	sumOpts.Mode = ViolationSum
	sumOpts.TimePenalty = -10

	nine := 9 * 60
	twenty := 20 * 60

	saturdayLate := &model.OpenSlot{Date: "2025-03-15", Start: "17:00", End: "23:00"}
	mondayEarly := &model.OpenSlot{Date: "2025-03-10", Start: "07:00", End: "15:00"}
	mondayMid := &model.OpenSlot{Date: "2025-03-10", Start: "11:00", End: "18:00"}

	tests := []struct {
		name       string
		prefs      model.ShiftPreferences
		slot       *model.OpenSlot
		opts       PreferenceOptions
		wantScore  float64
		wantReason []model.BlockReason
	}{
		{"no preferences", model.ShiftPreferences{}, saturdayLate, opts, 0, nil},
		{"no weekend on saturday", model.ShiftPreferences{NoWeekend: true}, saturdayLate, opts, -35, []model.BlockReason{model.ReasonPrefNoWeekend}},
		{"only weekend on monday", model.ShiftPreferences{OnlyWeekend: true}, mondayEarly, opts, -35, []model.BlockReason{model.ReasonPrefOnlyWeekend}},
		{"allowed days", model.ShiftPreferences{AllowedDays: []int{1, 2}}, mondayEarly, opts, -35, []model.BlockReason{model.ReasonPrefAllowedDays}},
		{"blocked days", model.ShiftPreferences{BlockedDays: []int{5}}, saturdayLate, opts, -35, []model.BlockReason{model.ReasonPrefBlockedDays}},
		{"starts too early", model.ShiftPreferences{EarliestStart: &nine}, mondayEarly, opts, -35, []model.BlockReason{model.ReasonPrefStartsTooEarly}},
		{"early cutoff scoped to weekend", model.ShiftPreferences{EarliestStart: &nine, EarliestScope: model.ScopeWeekend}, mondayEarly, opts, 0, nil},
		{"ends too late", model.ShiftPreferences{LatestEnd: &twenty}, saturdayLate, opts, -35, []model.BlockReason{model.ReasonPrefEndsTooLate}},
		{
			"sum mode",
			model.ShiftPreferences{NoWeekend: true, LatestEnd: &twenty},
			saturdayLate, sumOpts, -45,
			[]model.BlockReason{model.ReasonPrefNoWeekend, model.ReasonPrefEndsTooLate},
		},
		{"prefers early, gets early", model.ShiftPreferences{Prefer: model.LabelEarly}, mondayEarly, opts, 15, nil},
		{"prefers early, gets midday", model.ShiftPreferences{Prefer: model.LabelEarly}, mondayMid, opts, 0, nil},
		{"late on weekends only", model.ShiftPreferences{LateScope: model.ScopeWeekend}, saturdayLate, opts, 15, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reasons := EvaluatePreferences(tt.prefs, tt.slot, tt.opts)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantReason, reasons)
		})
	}
}
