package solver

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/shiftplan/shiftplan/pkg/logger"
	"github.com/shiftplan/shiftplan/pkg/model"
)

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testSolver(opts ...GreedyOption) *GreedySolver {
	base := []GreedyOption{
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(func() string { return "plan-000000000000" }),
		WithLogger(logger.NewPlannerLoggerFrom(zerolog.Nop())),
	}
	return NewGreedySolver(append(base, opts...)...)
}

func employee(id, name string) model.Employee {
	return model.Employee{ID: id, FullName: name, Role: "Service"}
}

func slot(id, date, start, end string, applicants ...string) model.OpenSlot {
	return model.OpenSlot{
		SlotID:     id,
		Date:       date,
		Start:      start,
		End:        end,
		ShiftType:  "service",
		Applicants: applicants,
	}
}

func week() model.DateRange {
	return model.DateRange{From: "2025-03-10", To: "2025-03-16"}
}

func findAssignment(plan *model.Plan, slotID string) *model.Assignment {
	return plan.AssignmentsBySlot()[slotID]
}

func findUnassigned(plan *model.Plan, slotID string) *model.Unassigned {
	for i := range plan.Unassigned {
		if plan.Unassigned[i].SlotID == slotID {
			return &plan.Unassigned[i]
		}
	}
	return nil
}
