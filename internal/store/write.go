package store

import (
	"context"
	"fmt"

	"github.com/roach88/arcflow/internal/trace"
)

// CreateRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) CreateRun(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, name)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, name)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// WriteStep appends one propagator execution to a run.
//
// Note: The run referenced by runID must exist (foreign key constraint).
// Writing the same seq twice is silently ignored.
func (s *Store) WriteStep(ctx context.Context, runID string, step trace.Step) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO steps
		(run_id, seq, prop, var, mask, changed, outcome, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		runID,
		step.Seq,
		step.Prop,
		step.Var,
		step.Mask,
		boolToInt(step.Changed),
		step.Outcome,
		step.Message,
	)
	if err != nil {
		return fmt.Errorf("write step: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run. The digest and step count are
// computed from the stored steps so they always agree with the log.
func (s *Store) FinishRun(ctx context.Context, runID, outcome string) (Run, error) {
	steps, err := s.ReadSteps(ctx, runID)
	if err != nil {
		return Run{}, fmt.Errorf("finish run: %w", err)
	}
	digest, err := trace.Digest(steps)
	if err != nil {
		return Run{}, fmt.Errorf("finish run: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET outcome = ?, digest = ?, step_count = ?
		WHERE id = ?
	`, outcome, digest, len(steps), runID)
	if err != nil {
		return Run{}, fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Run{}, fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return s.ReadRun(ctx, runID)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
