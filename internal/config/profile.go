package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/logger"
	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/scoring"
)

// DefaultProfileName is the profile used when none is requested or the
// requested one is unknown.
const DefaultProfileName = "default"

// Profile is a constraint profile with its optional scoring override.
type Profile struct {
	model.Profile

	// Weights is nil when the profile keeps the solver's weights.
	Weights *scoring.Weights `validate:"omitempty"`
}

type profileDocument struct {
	Description   string                        `yaml:"description"`
	Policy        model.Policy                  `yaml:"policy"`
	EmployeeRules map[string]model.EmployeeRule `yaml:"employee_rules"`
	Scoring       yaml.Node                     `yaml:"scoring"`
}

// ProfileStore holds the named constraint profiles.
type ProfileStore struct {
	profiles map[string]*Profile
	logger   *logger.PlannerLogger
}

// NewProfileStore creates a store from already built profiles. A bare
// default profile is added when profiles has none.
func NewProfileStore(profiles ...*Profile) *ProfileStore {
	s := &ProfileStore{
		profiles: make(map[string]*Profile, len(profiles)+1),
		logger:   logger.NewPlannerLogger(),
	}
	for _, p := range profiles {
		s.profiles[p.Name] = p
	}
	if _, ok := s.profiles[DefaultProfileName]; !ok {
		s.profiles[DefaultProfileName] = &Profile{Profile: model.Profile{Name: DefaultProfileName}}
	}
	return s
}

// LoadProfiles reads a profile YAML file. A missing file yields a store
// holding only the bare default profile.
func LoadProfiles(path string) (*ProfileStore, error) {
	if path == "" {
		return NewProfileStore(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn().Str("path", path).Msg("profiles file not found, using built-in default profile")
		return NewProfileStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profiles %s: %w", path, err)
	}
	return ParseProfiles(data)
}

// ParseProfiles decodes and validates a YAML document mapping profile
// names to {description, policy, employee_rules, scoring}.
func ParseProfiles(data []byte) (*ProfileStore, error) {
	var docs map[string]profileDocument
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "invalid profiles document")
	}

	profiles := make([]*Profile, 0, len(docs))
	for name, doc := range docs {
		p := &Profile{Profile: model.Profile{
			Name:          name,
			Description:   doc.Description,
			Policy:        doc.Policy,
			EmployeeRules: doc.EmployeeRules,
		}}
		if !doc.Scoring.IsZero() {
			w := scoring.DefaultWeights()
			if err := doc.Scoring.Decode(&w); err != nil {
				return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "invalid scoring of profile "+name)
			}
			p.Weights = &w
		}
		if err := validateProfile(p); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return NewProfileStore(profiles...), nil
}

type profileJSON struct {
	Name          string                        `json:"name"`
	Description   string                        `json:"description"`
	Policy        model.Policy                  `json:"policy"`
	EmployeeRules map[string]model.EmployeeRule `json:"employee_rules"`
	Scoring       json.RawMessage               `json:"scoring"`
}

// ParseProfileJSON decodes a single profile document as shipped next to
// an input directory. The name defaults to the default profile.
func ParseProfileJSON(data []byte) (*Profile, error) {
	var doc profileJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "invalid profile document")
	}
	if doc.Name == "" {
		doc.Name = DefaultProfileName
	}

	p := &Profile{Profile: model.Profile{
		Name:          doc.Name,
		Description:   doc.Description,
		Policy:        doc.Policy,
		EmployeeRules: doc.EmployeeRules,
	}}
	if len(doc.Scoring) > 0 && string(doc.Scoring) != "null" {
		w := scoring.DefaultWeights()
		if err := json.Unmarshal(doc.Scoring, &w); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "invalid scoring of profile "+doc.Name)
		}
		p.Weights = &w
	}
	if err := validateProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

func validateProfile(p *Profile) error {
	if err := validate.Struct(p); err != nil {
		return apperrors.Wrap(err, apperrors.CodeValidationFail, "invalid profile "+p.Name)
	}
	return nil
}

// WithLogger replaces the logger used for fallback warnings.
func (s *ProfileStore) WithLogger(l *logger.PlannerLogger) *ProfileStore {
	s.logger = l
	return s
}

// Names returns the profile names, sorted.
func (s *ProfileStore) Names() []string {
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the named profile. An empty name selects the default
// profile; an unknown name falls back to it with a warning.
func (s *ProfileStore) Resolve(name string) (*Profile, error) {
	if name == "" {
		name = DefaultProfileName
	}
	if p, ok := s.profiles[name]; ok {
		return p, nil
	}
	p, ok := s.profiles[DefaultProfileName]
	if !ok {
		return nil, apperrors.ProfileNotFound(name)
	}
	s.logger.ProfileFallback(name, DefaultProfileName)
	return p, nil
}

// Put adds or replaces a profile, as used for profiles shipped with an
// input directory.
func (s *ProfileStore) Put(p *Profile) {
	s.profiles[p.Name] = p
}
