package model

// BlockReason is a constraint code produced by candidate evaluation or
// post-hoc validation.
type BlockReason string

// Obligatory codes.
const (
	ReasonOverlapSameDay     BlockReason = "overlap_same_day"
	ReasonDailyHoursOver10   BlockReason = "daily_hours_gt_10"
	ReasonWeeklyHoursLimit   BlockReason = "weekly_hours_limit"
	ReasonRestUnder11h       BlockReason = "rest_lt_11h"
	ReasonConsecutiveDays    BlockReason = "consecutive_days_limit"
	ReasonAbsence            BlockReason = "absence"
	ReasonShiftSameDay       BlockReason = "already_has_shift_same_day"
	ReasonNoAdditionalShifts BlockReason = "no_additional_shifts"
	ReasonMaxSalary          BlockReason = "max_salary_limit"
)

// Soft codes.
const (
	ReasonMonthlyHours         BlockReason = "monthly_hours_limit"
	ReasonMaxAdditionalMonthly BlockReason = "max_additional_monthly_hours"
	ReasonMaxWeeklyHours       BlockReason = "max_weekly_hours"
	ReasonPrefNoWeekend        BlockReason = "no_weekend"
	ReasonPrefOnlyWeekend      BlockReason = "only_weekend"
	ReasonPrefStartsTooEarly   BlockReason = "starts_too_early"
	ReasonPrefEndsTooLate      BlockReason = "ends_too_late"
	ReasonPrefAllowedDays      BlockReason = "allowed_days"
	ReasonPrefBlockedDays      BlockReason = "blocked_days"
)

// ReasonUnknownEmployee is reported by the validator for plans naming an
// employee missing from the snapshot.
const ReasonUnknownEmployee BlockReason = "unknown_employee"

// ScoreReason is a human-readable label for a positive or warning score component.
type ScoreReason string

const (
	ScoreAppliedForShift  ScoreReason = "applied_for_shift"
	ScoreRemainingTarget  ScoreReason = "remaining_target_hours"
	ScoreFairDistribution ScoreReason = "fair_distribution"
	ScoreRoleMatch        ScoreReason = "role_shift_match"
	ScoreSkillAreaMatch   ScoreReason = "skill_working_area_match"
	ScoreFixedPattern     ScoreReason = "historical_fixed_pattern"
	ScorePreferenceMatch  ScoreReason = "matches_employee_preferences"
	ScoreNearSalaryLimit  ScoreReason = "near_salary_limit"
)

// AssignmentKind tells why a winner was chosen.
type AssignmentKind string

const (
	KindApplicant         AssignmentKind = "applicant"
	KindWithoutApplicant  AssignmentKind = "recommendation_without_applicant"
	KindDespiteApplicants AssignmentKind = "recommendation_despite_applicants"
)

// ClassifyAssignment derives the kind from the winner's application and
// whether anyone applied.
func ClassifyAssignment(winnerApplied, hasApplicants bool) AssignmentKind {
	switch {
	case winnerApplied:
		return KindApplicant
	case hasApplicants:
		return KindDespiteApplicants
	default:
		return KindWithoutApplicant
	}
}

// UnassignedReason tells why a slot stayed open.
type UnassignedReason string

const (
	UnassignedNoCandidates      UnassignedReason = "no_candidates_available"
	UnassignedAllBlocked        UnassignedReason = "all_candidates_blocked_by_constraints"
	UnassignedApplicantsBlocked UnassignedReason = "all_applicants_blocked"
	UnassignedNoValidCandidate  UnassignedReason = "no_valid_candidate"
)
