// Package solver turns a snapshot and a constraint profile into a plan.
package solver

import (
	"context"
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/shiftplan/shiftplan/pkg/errors"
	"github.com/shiftplan/shiftplan/pkg/model"
	"github.com/shiftplan/shiftplan/pkg/scheduler/scoring"
	"github.com/shiftplan/shiftplan/pkg/validator"
)

// Built-in mechanism names.
const (
	MechanismAlgo  = "algo"
	MechanismLoose = "loose"
)

const defaultProfileName = "default"

// MechanismFor returns the built-in mechanism running in mode.
func MechanismFor(mode model.ConstraintMode) string {
	if mode == model.ModeLoose {
		return MechanismLoose
	}
	return MechanismAlgo
}

// Solver produces a plan for a request.
type Solver interface {
	// Solve generates a plan. It fails only on invalid requests or when
	// ctx is done; slots that cannot be filled are recorded as unassigned.
	Solve(ctx context.Context, req *Request) (*model.Plan, error)

	// Name returns the mechanism name.
	Name() string
}

// ModeSolver is implemented by solvers bound to one constraint mode.
type ModeSolver interface {
	Mode() model.ConstraintMode
}

// Request is the input of one planning run.
type Request struct {
	Snapshot *model.Snapshot
	Profile  *model.Profile

	// Range defaults to the snapshot range.
	Range model.DateRange

	// Mode defaults to the solver's mode. A mode that contradicts the
	// mechanism's own mode is rejected by Registry.Run.
	Mode model.ConstraintMode

	// Weights override the solver's scoring weights.
	Weights *scoring.Weights
}

// Validate checks the request preconditions.
func (r *Request) Validate() error {
	if r == nil || r.Snapshot == nil {
		return apperrors.InvalidInput("snapshot", "is required")
	}
	if r.Mode != "" && !r.Mode.Valid() {
		return apperrors.InvalidInput("constraint_mode", "must be strict or loose")
	}
	rng := r.dateRange()
	if rng.From == "" || rng.To == "" {
		return apperrors.New(apperrors.CodeInvalidTimeRange, "range from and to are required")
	}
	if _, ok := model.ParseDate(rng.From); !ok {
		return apperrors.InvalidInput("range.from", "must be YYYY-MM-DD")
	}
	if _, ok := model.ParseDate(rng.To); !ok {
		return apperrors.InvalidInput("range.to", "must be YYYY-MM-DD")
	}
	if rng.From > rng.To {
		return apperrors.New(apperrors.CodeInvalidTimeRange, "range from is after range to")
	}
	return nil
}

func (r *Request) dateRange() model.DateRange {
	rng := r.Range
	if rng.From == "" {
		rng.From = r.Snapshot.Range.From
	}
	if rng.To == "" {
		rng.To = r.Snapshot.Range.To
	}
	return rng
}

func (r *Request) profile() *model.Profile {
	if r.Profile != nil {
		return r.Profile
	}
	return &model.Profile{Name: defaultProfileName}
}

type registration struct {
	solver   Solver
	external bool
}

// Registry maps mechanism names to solvers.
type Registry struct {
	mu      sync.RWMutex
	solvers map[string]registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{solvers: make(map[string]registration)}
}

// NewDefaultRegistry registers the strict "algo" and the "loose" greedy
// mechanisms built with opts.
func NewDefaultRegistry(opts ...GreedyOption) *Registry {
	r := NewRegistry()
	algo := append([]GreedyOption{WithName(MechanismAlgo), WithMode(model.ModeStrict)}, opts...)
	loose := append([]GreedyOption{WithName(MechanismLoose), WithMode(model.ModeLoose)}, opts...)
	r.Register(NewGreedySolver(algo...))
	r.Register(NewGreedySolver(loose...))
	return r
}

// Register adds a trusted solver, replacing one with the same name.
func (r *Registry) Register(s Solver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.solvers[s.Name()] = registration{solver: s}
}

// RegisterExternal adds a solver whose plans are audited against the
// obligatory constraints after every run.
func (r *Registry) RegisterExternal(s Solver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.solvers[s.Name()] = registration{solver: s, external: true}
}

// Get returns the solver registered under name.
func (r *Registry) Get(name string) (Solver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.solvers[name]
	return reg.solver, ok
}

// Names returns the registered mechanism names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run solves req with the named mechanism.
func (r *Registry) Run(ctx context.Context, mechanism string, req *Request) (*model.Plan, error) {
	r.mu.RLock()
	reg, ok := r.solvers[mechanism]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.UnknownMechanism(mechanism)
	}
	if err := checkMode(mechanism, reg.solver, req); err != nil {
		return nil, err
	}

	plan, err := reg.solver.Solve(ctx, req)
	if err != nil {
		return nil, err
	}
	if plan.Mechanism == "" {
		plan.Mechanism = mechanism
	}
	if reg.external {
		plan.HardViolations = validator.ValidateHardConstraints(plan, req.Snapshot, req.profile())
	}
	return plan, nil
}

// checkMode rejects a request whose mode differs from the mode the
// mechanism is bound to, so a plan never carries a mechanism label that
// ran under the other mode.
func checkMode(mechanism string, s Solver, req *Request) error {
	ms, ok := s.(ModeSolver)
	if !ok || req == nil || req.Mode == "" || req.Mode == ms.Mode() {
		return nil
	}
	return apperrors.New(apperrors.CodeValidationFail,
		fmt.Sprintf("mechanism %q runs in %s mode, constraint_mode %s conflicts", mechanism, ms.Mode(), req.Mode)).
		WithDetails("omit constraint_mode or pick the matching mechanism")
}
