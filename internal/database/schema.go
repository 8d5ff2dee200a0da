package database

import (
	"context"
	"fmt"
)

// schema creates the plan run tables. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS plan_runs (
		id              UUID PRIMARY KEY,
		plan_id         TEXT NOT NULL UNIQUE,
		snapshot_id     TEXT NOT NULL,
		venue           TEXT NOT NULL DEFAULT '',
		profile         TEXT NOT NULL,
		mechanism       TEXT NOT NULL,
		constraint_mode TEXT NOT NULL,
		range_from      DATE NOT NULL,
		range_to        DATE NOT NULL,
		total_slots     INTEGER NOT NULL,
		assigned_slots  INTEGER NOT NULL,
		fill_rate       DOUBLE PRECISION NOT NULL,
		metadata        JSONB,
		generated_at    TIMESTAMPTZ NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plan_runs_snapshot ON plan_runs (snapshot_id, generated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS plan_assignments (
		id              UUID PRIMARY KEY,
		run_id          UUID NOT NULL REFERENCES plan_runs (id) ON DELETE CASCADE,
		rank            INTEGER NOT NULL,
		assignment_id   TEXT NOT NULL,
		slot_id         TEXT NOT NULL,
		employee_id     TEXT NOT NULL,
		employee_name   TEXT NOT NULL DEFAULT '',
		date            DATE NOT NULL,
		start_time      TEXT NOT NULL,
		end_time        TEXT NOT NULL,
		hours           DOUBLE PRECISION NOT NULL,
		score           DOUBLE PRECISION NOT NULL,
		assignment_kind TEXT NOT NULL,
		is_applicant    BOOLEAN NOT NULL,
		score_detail    JSONB NOT NULL,
		reasons         JSONB NOT NULL,
		alternatives    JSONB NOT NULL,
		UNIQUE (run_id, assignment_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_plan_assignments_employee ON plan_assignments (employee_id, date)`,
}

// Migrate creates the tables the plan repository needs.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
