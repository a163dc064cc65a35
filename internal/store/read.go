package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/arcflow/internal/trace"
)

// ErrRunNotFound is returned when no run matches the query.
var ErrRunNotFound = errors.New("run not found")

// Run is a stored engine run.
type Run struct {
	ID        string
	Name      string
	Outcome   string
	Digest    string
	StepCount int
}

// ReadRun retrieves a single run by id.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, outcome, digest, step_count
		FROM runs
		WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return r, nil
}

// LatestRun returns the most recent run recorded under name.
func (s *Store) LatestRun(ctx context.Context, name string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, outcome, digest, step_count
		FROM runs
		WHERE name = ?
		ORDER BY id DESC
		LIMIT 1
	`, name)
	r, err := scanRun(row)
	if err != nil {
		return Run{}, fmt.Errorf("latest run %q: %w", name, err)
	}
	return r, nil
}

// ListRuns returns all runs ordered by id.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, outcome, digest, step_count
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ReadSteps returns the steps of a run in seq order.
func (s *Store) ReadSteps(ctx context.Context, runID string) ([]trace.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, prop, var, mask, changed, outcome, message
		FROM steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read steps: %w", err)
	}
	defer rows.Close()

	var steps []trace.Step
	for rows.Next() {
		var st trace.Step
		var changed int
		if err := rows.Scan(&st.Seq, &st.Prop, &st.Var, &st.Mask, &changed, &st.Outcome, &st.Message); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		st.Changed = changed != 0
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read steps: %w", err)
	}
	return steps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.Name, &r.Outcome, &r.Digest, &r.StepCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}
