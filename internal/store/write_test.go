package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/arcflow/internal/trace"
)

func TestWriteStep_ReadSteps(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "square"); err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}

	coarse := trace.Step{Seq: 1, Prop: "deg", Mask: "all", Changed: true, Outcome: trace.OutcomeOK}
	fail := trace.Step{Seq: 3, Prop: "deg", Var: "g", Mask: "remove-arc", Outcome: trace.OutcomeContradiction, Message: "node 1 has 1 neighbors"}
	want := []trace.Step{coarse, createTestStep(2, "deg", false), fail}
	// written out of order on purpose
	for _, st := range []trace.Step{want[2], want[0], want[1]} {
		if err := s.WriteStep(ctx, "run-1", st); err != nil {
			t.Fatalf("WriteStep() failed: %v", err)
		}
	}

	got, err := s.ReadSteps(ctx, "run-1")
	if err != nil {
		t.Fatalf("ReadSteps() failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("ReadSteps() returned %d steps, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWriteStep_DuplicateSeqIgnored(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "square"); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteStep(ctx, "run-1", createTestStep(1, "a", true)); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteStep(ctx, "run-1", createTestStep(1, "b", false)); err != nil {
		t.Fatalf("duplicate WriteStep() should be ignored: %v", err)
	}

	steps, err := s.ReadSteps(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 1 || steps[0].Prop != "a" {
		t.Errorf("steps = %+v, want only the first write", steps)
	}
}

func TestWriteStep_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	if err := s.WriteStep(context.Background(), "missing", createTestStep(1, "a", true)); err == nil {
		t.Error("expected error writing a step of an unknown run")
	}
}

func TestFinishRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.CreateRun(ctx, "run-1", "square"); err != nil {
		t.Fatal(err)
	}
	steps := []trace.Step{createTestStep(1, "a", true), createTestStep(2, "b", false)}
	for _, st := range steps {
		if err := s.WriteStep(ctx, "run-1", st); err != nil {
			t.Fatal(err)
		}
	}

	run, err := s.FinishRun(ctx, "run-1", "fixpoint")
	if err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}
	digest, err := trace.Digest(steps)
	if err != nil {
		t.Fatal(err)
	}
	if run.Digest != digest {
		t.Errorf("Digest = %s, want %s", run.Digest, digest)
	}
	if run.StepCount != 2 || run.Outcome != "fixpoint" || run.Name != "square" {
		t.Errorf("run = %+v", run)
	}

	if _, err := s.FinishRun(ctx, "missing", "fixpoint"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("FinishRun(missing) error = %v, want ErrRunNotFound", err)
	}
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("ReadRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_LatestRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, r := range []struct{ id, name string }{
		{"0001", "square"},
		{"0003", "square"},
		{"0002", "path"},
	} {
		if err := s.CreateRun(ctx, r.id, r.name); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if len(ids) != 3 || ids[0] != "0001" || ids[1] != "0002" || ids[2] != "0003" {
		t.Errorf("ListRuns() ids = %v, want sorted", ids)
	}

	latest, err := s.LatestRun(ctx, "square")
	if err != nil {
		t.Fatalf("LatestRun() failed: %v", err)
	}
	if latest.ID != "0003" {
		t.Errorf("LatestRun() = %s, want 0003", latest.ID)
	}
	if _, err := s.LatestRun(ctx, "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LatestRun(nope) error = %v, want ErrRunNotFound", err)
	}
}
