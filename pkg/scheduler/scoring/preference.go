package scoring

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shiftplan/shiftplan/pkg/model"
)

var (
	noWeekendPhrases   = []string{"kein wochenende", "nicht wochenende", "keine wochenenden", "no weekend"}
	onlyWeekendPhrases = []string{"nur wochenende", "only weekend", "weekends only"}
	earlyPhrases       = []string{"lieber fruh", "bevorzugt fruh", "prefers early", "prefer early"}
	latePhrases        = []string{"lieber spat", "bevorzugt spat", "prefers late", "prefer late"}

	maxShiftsPattern = regexp.MustCompile(`max\s+(\d+)\s+(?:schicht|shift)`)
	earliestPattern  = regexp.MustCompile(`(?:ab\s+(\d{1,2})\s*uhr|not before\s+(\d{1,2}))`)
	latestPattern    = regexp.MustCompile(`(?:bis\s+(\d{1,2})\s*uhr|not after\s+(\d{1,2}))`)
)

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func firstGroupInt(m []string) (int, bool) {
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		n, err := strconv.Atoi(g)
		return n, err == nil
	}
	return 0, false
}

// ParsePreferences extracts explicit preference hints from a free-text
// note. Only clear phrases are recognized; anything else is ignored.
func ParsePreferences(note string) model.ShiftPreferences {
	var p model.ShiftPreferences
	text := model.FoldText(note)
	if text == "" {
		return p
	}

	if containsAny(text, noWeekendPhrases) {
		p.NoWeekend = true
	}
	if containsAny(text, onlyWeekendPhrases) {
		p.OnlyWeekend = true
	}
	if containsAny(text, earlyPhrases) {
		p.Prefer = model.LabelEarly
	}
	if containsAny(text, latePhrases) {
		p.Prefer = model.LabelLate
	}

	if m := maxShiftsPattern.FindStringSubmatch(text); m != nil {
		if n, ok := firstGroupInt(m); ok {
			p.MaxShiftsPerWeek = n
		}
	}
	if m := earliestPattern.FindStringSubmatch(text); m != nil {
		if h, ok := firstGroupInt(m); ok {
			minutes := h * 60
			p.EarliestStart = &minutes
		}
	}
	if m := latestPattern.FindStringSubmatch(text); m != nil {
		if h, ok := firstGroupInt(m); ok {
			minutes := h * 60
			p.LatestEnd = &minutes
		}
	}
	return p
}

// ResolvePreferences combines the hints parsed from the rule's notes with
// its structured preferences. Structured values win.
func ResolvePreferences(rule model.EmployeeRule) model.ShiftPreferences {
	p := ParsePreferences(rule.Notes)
	if rule.Preferences == nil {
		return p
	}
	s := rule.Preferences
	p.NoWeekend = p.NoWeekend || s.NoWeekend
	p.OnlyWeekend = p.OnlyWeekend || s.OnlyWeekend
	if s.Prefer != "" {
		p.Prefer = s.Prefer
	}
	if s.EarlyScope != "" {
		p.EarlyScope = s.EarlyScope
	}
	if s.LateScope != "" {
		p.LateScope = s.LateScope
	}
	if s.MaxShiftsPerWeek > 0 {
		p.MaxShiftsPerWeek = s.MaxShiftsPerWeek
	}
	if s.EarliestStart != nil {
		p.EarliestStart = s.EarliestStart
	}
	if s.EarliestScope != "" {
		p.EarliestScope = s.EarliestScope
	}
	if s.LatestEnd != nil {
		p.LatestEnd = s.LatestEnd
	}
	if s.LatestScope != "" {
		p.LatestScope = s.LatestScope
	}
	if len(s.AllowedDays) > 0 {
		p.AllowedDays = s.AllowedDays
	}
	if len(s.BlockedDays) > 0 {
		p.BlockedDays = s.BlockedDays
	}
	return p
}

// PreferenceOptions are the point values applied by EvaluatePreferences.
type PreferenceOptions struct {
	Bonus       float64
	DayPenalty  float64
	TimePenalty float64
	FlatPenalty float64
	Mode        ViolationMode
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// EvaluatePreferences scores a slot against an employee's preferences.
// With violations the score is negative and the codes are returned.
// Without, the score is the bonus when the slot matches a preferred
// early/late label and 0 otherwise.
func EvaluatePreferences(p model.ShiftPreferences, slot *model.OpenSlot, opts PreferenceOptions) (float64, []model.BlockReason) {
	if p.IsZero() {
		return 0, nil
	}
	t, ok := model.ParseDate(slot.Date)
	if !ok {
		return 0, nil
	}
	weekday := model.WeekdayIndex(t)
	weekend := weekday >= 5

	var violations []model.BlockReason
	dayViolations, timeViolations := 0, 0

	if len(p.AllowedDays) > 0 && !containsDay(p.AllowedDays, weekday) {
		dayViolations++
		violations = append(violations, model.ReasonPrefAllowedDays)
	}
	if containsDay(p.BlockedDays, weekday) {
		dayViolations++
		violations = append(violations, model.ReasonPrefBlockedDays)
	}
	if p.NoWeekend && weekend {
		dayViolations++
		violations = append(violations, model.ReasonPrefNoWeekend)
	}
	if p.OnlyWeekend && !weekend {
		dayViolations++
		violations = append(violations, model.ReasonPrefOnlyWeekend)
	}

	if start, ok := model.ParseClock(slot.Start); ok && p.EarliestStart != nil &&
		start < *p.EarliestStart && p.EarliestScope.Active(weekend) {
		timeViolations++
		violations = append(violations, model.ReasonPrefStartsTooEarly)
	}
	if end, ok := model.ParseClock(slot.End); ok && p.LatestEnd != nil &&
		end > *p.LatestEnd && p.LatestScope.Active(weekend) {
		timeViolations++
		violations = append(violations, model.ReasonPrefEndsTooLate)
	}

	if len(violations) > 0 {
		if opts.Mode == ViolationFlat {
			return opts.FlatPenalty, violations
		}
		return float64(dayViolations)*opts.DayPenalty + float64(timeViolations)*opts.TimePenalty, violations
	}

	labels := model.ShiftLabels(slot.ShiftType, slot.Start, slot.End)
	for _, target := range preferenceTargets(p, weekend) {
		if labels[target] {
			return opts.Bonus, nil
		}
	}
	return 0, nil
}

func preferenceTargets(p model.ShiftPreferences, weekend bool) []model.ShiftLabel {
	var targets []model.ShiftLabel
	if p.Prefer == model.LabelEarly || p.Prefer == model.LabelLate {
		targets = append(targets, p.Prefer)
	}
	if p.EarlyScope != "" && p.EarlyScope.Active(weekend) {
		targets = append(targets, model.LabelEarly)
	}
	if p.LateScope != "" && p.LateScope.Active(weekend) {
		targets = append(targets, model.LabelLate)
	}
	return targets
}
