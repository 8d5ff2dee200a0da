package constraint

import (
	"sync"

	"github.com/shiftplan/shiftplan/pkg/model"
)

// Manager runs registered constraints in registration order.
type Manager struct {
	constraints []Constraint
	mu          sync.RWMutex
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{constraints: make([]Constraint, 0)}
}

// NewDefaultManager registers every built-in check.
func NewDefaultManager() *Manager {
	m := NewManager()
	m.Register(NewNoAdditionalShiftsConstraint())
	m.Register(NewAbsenceConstraint())
	m.Register(NewShiftSameDayConstraint())
	m.Register(NewLaborLawConstraint())
	m.Register(NewMonthlyCapConstraint())
	m.Register(NewAdditionalMonthlyCapConstraint())
	m.Register(NewRunWeeklyCapConstraint())
	m.Register(NewSalaryCapConstraint())
	return m
}

// NewObligatoryManager registers the checks that only raise obligatory
// reasons. It backs post-hoc validation.
func NewObligatoryManager() *Manager {
	m := NewManager()
	m.Register(NewNoAdditionalShiftsConstraint())
	m.Register(NewAbsenceConstraint())
	m.Register(NewShiftSameDayConstraint())
	m.Register(NewLaborLawConstraint())
	m.Register(NewSalaryCapConstraint())
	return m
}

// Register adds c, replacing a constraint of the same type.
func (m *Manager) Register(c Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c
			return
		}
	}
	m.constraints = append(m.constraints, c)
}

// Unregister removes the constraint of type t.
func (m *Manager) Unregister(t Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.constraints {
		if c.Type() == t {
			m.constraints = append(m.constraints[:i], m.constraints[i+1:]...)
			return
		}
	}
}

// Get returns the constraint of type t, or nil.
func (m *Manager) Get(t Type) Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.constraints {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// GetAll returns a copy of the registered constraints.
func (m *Manager) GetAll() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Constraint, len(m.constraints))
	copy(out, m.constraints)
	return out
}

// Check runs every constraint and returns the sorted distinct reasons.
func (m *Manager) Check(ctx *Context) []model.BlockReason {
	var reasons []model.BlockReason
	for _, c := range m.GetAll() {
		reasons = append(reasons, c.Check(ctx)...)
	}
	return SortedUnique(reasons)
}
