package scoring

import (
	"strings"

	"github.com/shiftplan/shiftplan/pkg/model"
)

// AffinityMap lists, per role keyword, the shift types that role covers.
type AffinityMap map[string][]string

// DefaultAffinity returns the hospitality role affinities.
func DefaultAffinity() AffinityMap {
	return AffinityMap{
		"service": {"frueh", "normal", "spaet", "doppel", "service", "theke"},
		"kellner": {"frueh", "normal", "spaet", "service", "theke"},
		"bar":     {"spaet", "normal", "bar", "theke"},
		"koch":    {"frueh", "normal", "spaet", "kueche"},
		"kueche":  {"frueh", "normal", "spaet", "kueche"},
	}
}

func (m AffinityMap) allows(role, shiftType string) bool {
	for _, t := range m[role] {
		if t == shiftType {
			return true
		}
	}
	return false
}

// RoleMatchScore scores how well a role fits a shift type: exact when one
// contains the other or the role's affinity lists the type, affinity when
// a role keyword contained in the role lists it, partial otherwise.
func RoleMatchScore(role, shiftType string, affinity AffinityMap, w Weights) float64 {
	r := model.CanonicalName(role)
	st := model.CanonicalName(shiftType)
	if r == "" || st == "" {
		return w.RolePartial
	}
	if strings.Contains(st, r) || strings.Contains(r, st) {
		return w.RoleExact
	}
	if affinity.allows(r, st) {
		return w.RoleExact
	}
	for key := range affinity {
		if strings.Contains(r, key) && affinity.allows(key, st) {
			return w.RoleAffinity
		}
	}
	return w.RolePartial
}
