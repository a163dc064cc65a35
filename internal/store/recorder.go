package store

import (
	"context"

	"github.com/roach88/arcflow/internal/trace"
)

// Recorder persists engine steps as they happen. It implements the engine
// observer interface.
//
// Observers cannot fail, so the first write error is kept and every later
// step is dropped. Check Err once the run is over.
type Recorder struct {
	ctx   context.Context
	store *Store
	runID string
	err   error
}

// NewRecorder creates the run record and returns a recorder appending to it.
func NewRecorder(ctx context.Context, s *Store, runID, name string) (*Recorder, error) {
	if err := s.CreateRun(ctx, runID, name); err != nil {
		return nil, err
	}
	return &Recorder{ctx: ctx, store: s, runID: runID}, nil
}

func (r *Recorder) OnStep(s trace.Step) { r.write(s) }
func (r *Recorder) OnContradiction(s trace.Step) { r.write(s) }

func (r *Recorder) write(s trace.Step) {
	if r.err != nil {
		return
	}
	r.err = r.store.WriteStep(r.ctx, r.runID, s)
}

// Err returns the first write error.
func (r *Recorder) Err() error { return r.err }

// RunID returns the run the recorder appends to.
func (r *Recorder) RunID() string { return r.runID }

// Finish records the run outcome, unless a write failed earlier.
func (r *Recorder) Finish(outcome string) (Run, error) {
	if r.err != nil {
		return Run{}, r.err
	}
	return r.store.FinishRun(r.ctx, r.runID, outcome)
}
