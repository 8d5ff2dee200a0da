// Package scoring holds the scoring weights and the role and preference
// scoring rules used to rank candidates.
package scoring

// ViolationMode controls how several preference violations combine.
type ViolationMode string

const (
	// ViolationFlat applies one flat penalty however many violations occur.
	ViolationFlat ViolationMode = "flat"
	// ViolationSum applies the day or time penalty per violation.
	ViolationSum ViolationMode = "sum"
)

// Weights are the point values of every score component.
type Weights struct {
	ApplicantBonus float64 `json:"applicant_bonus" yaml:"applicant_bonus" validate:"gte=0"`

	RestMax           float64 `json:"rest_max" yaml:"rest_max" validate:"gte=0"`
	RestFallbackRatio float64 `json:"rest_fallback_ratio" yaml:"rest_fallback_ratio" validate:"gte=0,lte=1"`

	FairnessMax  float64 `json:"fairness_max" yaml:"fairness_max" validate:"gte=0"`
	FairnessStep float64 `json:"fairness_step" yaml:"fairness_step" validate:"gte=0"`

	RoleExact    float64 `json:"role_exact" yaml:"role_exact"`
	RoleAffinity float64 `json:"role_affinity" yaml:"role_affinity"`
	RolePartial  float64 `json:"role_partial" yaml:"role_partial"`

	SkillBonus float64 `json:"skill_bonus" yaml:"skill_bonus"`
	FixedBonus float64 `json:"fixed_bonus" yaml:"fixed_bonus"`

	PreferenceBonus            float64       `json:"preference_bonus" yaml:"preference_bonus"`
	PreferredTypeRatio         float64       `json:"preferred_type_ratio" yaml:"preferred_type_ratio" validate:"gte=0"`
	PreferenceDayPenalty       float64       `json:"preference_day_penalty" yaml:"preference_day_penalty" validate:"lte=0"`
	PreferenceTimePenalty      float64       `json:"preference_time_penalty" yaml:"preference_time_penalty" validate:"lte=0"`
	PreferenceViolationPenalty float64       `json:"preference_violation_penalty" yaml:"preference_violation_penalty" validate:"lte=0"`
	PreferenceViolationMode    ViolationMode `json:"preference_violation_mode" yaml:"preference_violation_mode" validate:"oneof=flat sum"`

	SalaryWarningPenalty float64 `json:"salary_warning_penalty" yaml:"salary_warning_penalty" validate:"lte=0"`
	SalaryWarningRatio   float64 `json:"salary_warning_ratio" yaml:"salary_warning_ratio" validate:"gte=0,lte=1"`
}

// DefaultWeights returns the production weights.
func DefaultWeights() Weights {
	return Weights{
		ApplicantBonus:             80,
		RestMax:                    40,
		RestFallbackRatio:          0.5,
		FairnessMax:                30,
		FairnessStep:               6,
		RoleExact:                  20,
		RoleAffinity:               20,
		RolePartial:                10,
		SkillBonus:                 12,
		FixedBonus:                 12,
		PreferenceBonus:            15,
		PreferredTypeRatio:         0.5,
		PreferenceDayPenalty:       -35,
		PreferenceTimePenalty:      -35,
		PreferenceViolationPenalty: -35,
		PreferenceViolationMode:    ViolationFlat,
		SalaryWarningPenalty:       -12,
		SalaryWarningRatio:         0.9,
	}
}

// PreferenceOptions derives the preference evaluation settings.
func (w Weights) PreferenceOptions() PreferenceOptions {
	return PreferenceOptions{
		Bonus:       w.PreferenceBonus,
		DayPenalty:  w.PreferenceDayPenalty,
		TimePenalty: w.PreferenceTimePenalty,
		FlatPenalty: w.PreferenceViolationPenalty,
		Mode:        w.PreferenceViolationMode,
	}
}
