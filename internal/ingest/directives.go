package ingest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shiftplan/shiftplan/internal/config"
	"github.com/shiftplan/shiftplan/pkg/model"
)

// DirectivesFile holds free-text management directives, one per row.
const DirectivesFile = "directives.csv"

// GlobalDirectives keys the rule merged from rows without employees.
const GlobalDirectives = "_global"

// weeksPerMonth converts between weekly and monthly hours.
const weeksPerMonth = 4.33

// Directive is a raw row of directives.csv.
type Directive struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Employees []string `json:"employees,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// Directive patterns run on model.FoldText output, so umlauts arrive
// either folded ("zusatzlich") or spelled out ("zusaetzlich").
var (
	reNoAdditional    = regexp.MustCompile(`keine.*(?:weiteren|zusa(?:e)?tzlich|extra).*schichten`)
	reAdditionalAfter = regexp.MustCompile(`(?:noch|zusa(?:e)?tzlich)\s+(\d+)\s*h.*(?:monat|woche)`)
	reAdditionalTail  = regexp.MustCompile(`(\d+)\s*h.*(?:monat|woche).*zusa(?:e)?tzlich`)
	reAdditionalWord  = regexp.MustCompile(`zusa(?:e)?tzlich`)
	reMaxWeekly       = regexp.MustCompile(`(?:nicht mehr als|maximal)\s+(\d+)\s*h\s*/?\s*woche`)
	reMaxMonthly      = regexp.MustCompile(`(?:nicht mehr als|maximal)\s+(\d+)\s*h\s*/?\s*monat`)
	reTargetWeekly    = regexp.MustCompile(`(?:ca\.?\s*)?(\d+)\s*h\s*/?\s*woche`)
	reTargetMonthly   = regexp.MustCompile(`(?:ca\.?\s*)?(\d+)\s*h\s*/?\s*monat`)
	reOnlyShiftType   = regexp.MustCompile(`nur\s+(mittel|fru(?:e)?h|spa(?:e)?t)schichten`)
	rePlusShiftType   = regexp.MustCompile(`plus\s+eine?\s+(mittel|fru(?:e)?h|spa(?:e)?t)schicht`)
	reWorkingArea     = regexp.MustCompile(`(?:fu(?:e)?r|in)\s+(?:die\s+)?(theke|ku(?:e)?che|service|bar|kiosk)`)
)

var directiveSpelling = map[string]string{
	"fruh":  "frueh",
	"spat":  "spaet",
	"kuche": "kueche",
}

func canonicalLabel(s string) string {
	if c, ok := directiveSpelling[s]; ok {
		return c
	}
	return s
}

// ParseDirective turns one German directive into rule fields. Text no
// pattern recognizes is kept as the rule's notes.
func ParseDirective(text string) (model.EmployeeRule, bool) {
	var rule model.EmployeeRule
	if strings.TrimSpace(text) == "" {
		return rule, false
	}
	norm := model.FoldText(text)
	matched := false

	if reNoAdditional.MatchString(norm) {
		rule.NoAdditionalShifts = true
		matched = true
	}

	m := reAdditionalAfter.FindStringSubmatchIndex(norm)
	if m == nil {
		m = reAdditionalTail.FindStringSubmatchIndex(norm)
	}
	if m != nil && reAdditionalWord.MatchString(norm) {
		hours := atof(norm[m[2]:m[3]])
		if !strings.Contains(norm[m[0]:], "monat") {
			hours = model.Round1(hours * weeksPerMonth)
		}
		rule.MaxAdditionalMonthlyHours = model.Float(hours)
		matched = true
	}

	if h, ok := firstHours(reMaxWeekly, norm); ok {
		rule.MaxWeeklyHours = model.Float(h)
		matched = true
	}
	if h, ok := firstHours(reMaxMonthly, norm); ok {
		rule.MaxMonthlyHours = model.Float(h)
		matched = true
	}

	if rule.MaxWeeklyHours == nil {
		if h, ok := firstHours(reTargetWeekly, norm); ok {
			rule.TargetWeeklyHours = model.Float(h)
			matched = true
		}
	}
	if rule.MaxMonthlyHours == nil && rule.MaxAdditionalMonthlyHours == nil {
		if h, ok := firstHours(reTargetMonthly, norm); ok {
			rule.TargetWeeklyHours = model.Float(model.Round1(h / weeksPerMonth))
			matched = true
		}
	}

	if sm := reOnlyShiftType.FindStringSubmatch(norm); sm != nil {
		rule.PreferredShiftTypes = []string{canonicalLabel(sm[1])}
		matched = true
	}
	if sm := rePlusShiftType.FindStringSubmatch(norm); sm != nil {
		rule.PreferredShiftTypes = []string{canonicalLabel(sm[1])}
		matched = true
	}
	if sm := reWorkingArea.FindStringSubmatch(norm); sm != nil {
		rule.PreferredWorkingAreas = []string{canonicalLabel(sm[1])}
		matched = true
	}

	if !matched {
		rule.Notes = strings.TrimSpace(text)
	}
	return rule, true
}

// LoadDirectives reads directives.csv. Rules are merged per employee name
// in row order, later rows overriding earlier fields; rows without
// employees merge under GlobalDirectives.
func LoadDirectives(path string) ([]Directive, map[string]model.EmployeeRule, error) {
	t, err := loadTable(path, false, "text")
	if err != nil || t == nil {
		return nil, nil, err
	}

	directives := make([]Directive, 0, len(t.rows))
	rules := make(map[string]model.EmployeeRule)
	for i, row := range t.rows {
		d := Directive{
			ID:        t.get(row, "id"),
			Text:      t.get(row, "text"),
			Employees: splitList(t.get(row, "employees")),
			Source:    t.get(row, "source"),
		}
		if d.ID == "" {
			d.ID = fmt.Sprintf("D-%03d", i+1)
		}
		directives = append(directives, d)

		parsed, ok := ParseDirective(d.Text)
		if !ok {
			continue
		}
		targets := d.Employees
		if len(targets) == 0 {
			targets = []string{GlobalDirectives}
		}
		for _, name := range targets {
			rules[name] = rules[name].Merge(parsed)
		}
	}
	return directives, rules, nil
}

// ApplyDirectives returns a copy of p with the directive rules merged
// over its employee rules. The global rule's fields become policy
// entries.
func ApplyDirectives(p *config.Profile, rules map[string]model.EmployeeRule) *config.Profile {
	if len(rules) == 0 {
		return p
	}
	out := *p
	out.EmployeeRules = make(map[string]model.EmployeeRule, len(p.EmployeeRules)+len(rules))
	for name, r := range p.EmployeeRules {
		out.EmployeeRules[name] = r
	}
	out.Policy.Extra = make(map[string]interface{}, len(p.Policy.Extra))
	for k, v := range p.Policy.Extra {
		out.Policy.Extra[k] = v
	}

	for name, r := range rules {
		if name == GlobalDirectives {
			for k, v := range ruleFields(r) {
				out.Policy.Extra[k] = v
			}
			continue
		}
		out.EmployeeRules[name] = out.EmployeeRules[name].Merge(r)
	}
	return &out
}

// ruleFields lists the fields set on r under their JSON names.
func ruleFields(r model.EmployeeRule) map[string]interface{} {
	data, err := json.Marshal(r)
	if err != nil {
		return nil
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	return fields
}

func firstHours(re *regexp.Regexp, s string) (float64, bool) {
	sm := re.FindStringSubmatch(s)
	if sm == nil {
		return 0, false
	}
	return atof(sm[1]), true
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
