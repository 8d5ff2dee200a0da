package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/logger"
	"github.com/shiftplan/shiftplan/pkg/scheduler/scoring"
)

const profilesYAML = `
default:
  description: Standard rules
  policy:
    prefer_applicants: true
    max_consecutive_days: 6
    overtime_note: allowed
  employee_rules:
    Anna Alt:
      target_weekly_hours: 20
      notes: "nur Wochenende"
    ben:
      no_additional_shifts: true
event:
  description: Event week
  policy:
    prefer_applicants: false
  scoring:
    applicant_bonus: 40
    fairness_step: 3
`

func TestParseProfiles(t *testing.T) {
	store, err := ParseProfiles([]byte(profilesYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "event"}, store.Names())

	def, err := store.Resolve("default")
	require.NoError(t, err)
	assert.Equal(t, "Standard rules", def.Description)
	assert.True(t, def.Policy.ApplicantsPreferred())
	assert.Equal(t, 6, def.Policy.ConsecutiveDayLimit())
	assert.Equal(t, "allowed", def.Policy.Extra["overtime_note"])
	require.Contains(t, def.EmployeeRules, "Anna Alt")
	assert.Equal(t, 20.0, *def.EmployeeRules["Anna Alt"].TargetWeeklyHours)
	assert.True(t, def.EmployeeRules["ben"].NoAdditionalShifts)
	assert.Nil(t, def.Weights)

	event, err := store.Resolve("event")
	require.NoError(t, err)
	assert.False(t, event.Policy.ApplicantsPreferred())
	require.NotNil(t, event.Weights)
	want := scoring.DefaultWeights()
	want.ApplicantBonus = 40
	want.FairnessStep = 3
	assert.Equal(t, want, *event.Weights)
}

func TestParseProfiles_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code apperrors.Code
	}{
		{"not yaml", "default: [", apperrors.CodeInvalidInput},
		{"negative cap", "default:\n  employee_rules:\n    anna:\n      max_monthly_hours: -1\n", apperrors.CodeValidationFail},
		{"zero consecutive", "default:\n  policy:\n    max_consecutive_days: -2\n", apperrors.CodeValidationFail},
		{"bad weights", "default:\n  scoring:\n    preference_violation_mode: double\n", apperrors.CodeValidationFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfiles([]byte(tt.doc))
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.GetCode(err))
		})
	}
}

func TestProfileStore_Fallback(t *testing.T) {
	store, err := ParseProfiles([]byte(profilesYAML))
	require.NoError(t, err)
	store.WithLogger(logger.NewPlannerLoggerFrom(zerolog.Nop()))

	p, err := store.Resolve("unknown")
	require.NoError(t, err)
	assert.Equal(t, "default", p.Name)

	p, err = store.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "default", p.Name)
}

func TestProfileStore_NoDefault(t *testing.T) {
	store := &ProfileStore{profiles: map[string]*Profile{}, logger: logger.NewPlannerLoggerFrom(zerolog.Nop())}
	_, err := store.Resolve("missing")
	assert.Equal(t, apperrors.CodeProfileNotFound, apperrors.GetCode(err))
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()

	store, err := LoadProfiles(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, store.Names())

	path := filepath.Join(dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profilesYAML), 0o644))
	store, err = LoadProfiles(path)
	require.NoError(t, err)
	assert.Len(t, store.Names(), 2)
}

func TestLoadProfiles_Shipped(t *testing.T) {
	store, err := LoadProfiles(filepath.Join("..", "..", "config", "constraint_profiles.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"bistro", "default", "open_pool"}, store.Names())

	bistro, err := store.Resolve("bistro")
	require.NoError(t, err)
	assert.Equal(t, 6, bistro.Policy.ConsecutiveDayLimit())
	require.NotNil(t, bistro.Weights)
	assert.Equal(t, 120.0, bistro.Weights.ApplicantBonus)
	assert.Len(t, bistro.RuleIndex(), 2)

	pool, err := store.Resolve("open_pool")
	require.NoError(t, err)
	assert.False(t, pool.Policy.ApplicantsPreferred())
	assert.Nil(t, pool.Weights)
}

func TestParseProfileJSON(t *testing.T) {
	p, err := ParseProfileJSON([]byte(`{
		"description": "from input",
		"policy": {"prefer_applicants": false, "overtime_note": "allowed"},
		"employee_rules": {"Anna Alt": {"max_monthly_hours": 40}},
		"scoring": {"skill_bonus": 6}
	}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultProfileName, p.Name)
	assert.False(t, p.Policy.ApplicantsPreferred())
	assert.Equal(t, "allowed", p.Policy.Extra["overtime_note"], "unknown policy keys kept as in YAML")
	assert.Equal(t, 40.0, *p.EmployeeRules["Anna Alt"].MaxMonthlyHours)
	require.NotNil(t, p.Weights)
	assert.Equal(t, 6.0, p.Weights.SkillBonus)
	assert.Equal(t, 80.0, p.Weights.ApplicantBonus)

	_, err = ParseProfileJSON([]byte(`{"employee_rules": {"x": {"target_weekly_hours": -5}}}`))
	assert.Equal(t, apperrors.CodeValidationFail, apperrors.GetCode(err))
}
