package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/arcflow/internal/harness"
	"github.com/roach88/arcflow/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - defaults to the latest run of the scenario
}

// ReplayResult holds the comparison of a stored run with a fresh one.
type ReplayResult struct {
	Scenario      string `json:"scenario"`
	RunID         string `json:"run_id"`
	StoredSteps   int    `json:"stored_steps"`
	ReplaySteps   int    `json:"replay_steps"`
	StoredDigest  string `json:"stored_digest"`
	ReplayDigest  string `json:"replay_digest"`
	StoredOutcome string `json:"stored_outcome"`
	ReplayOutcome string `json:"replay_outcome"`
	Deterministic bool   `json:"deterministic"`
	Divergence    string `json:"divergence,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Re-run a scenario and verify it against a stored run",
		Long: `Re-run a scenario and compare its trace with a run recorded by
"arcflow run --db". Propagation is deterministic, so the step sequence
and the trace digest must match exactly.

Exit codes:
  0 - The replay matches the stored run
  1 - Determinism verification failed (the traces diverge)
  2 - Command error (database not found, run not found, etc.)

Examples:
  arcflow replay ./scenarios/triangle.yaml --db ./runs.db
  arcflow replay ./scenarios/triangle.yaml --db ./runs.db --run 0190...
  arcflow replay ./scenarios/triangle.yaml --db ./runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "stored run id (defaults to the latest run)")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	scenario, err := loadScenarioFile(path)
	if err != nil {
		return formatter.fail(loadErrorCode(err), "loading scenario", err)
	}

	// Open would create an empty log
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.fail(ErrCodeNotFound, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.fail(ErrCodeStore, "opening database", err)
	}
	defer st.Close()

	run, err := findRun(ctx, st, opts.RunID, scenario.Name)
	if err != nil {
		return formatter.fail(ErrCodeStore, "finding run", err)
	}
	stored, err := st.ReadSteps(ctx, run.ID)
	if err != nil {
		return formatter.fail(ErrCodeStore, "reading steps", err)
	}
	formatter.VerboseLog("Replaying run %s (%d steps)", run.ID, len(stored))

	result, err := harness.Run(scenario,
		harness.WithRunID(run.ID),
		harness.WithLogger(newLogger(opts.RootOptions, formatter.GetErrWriter())),
	)
	if err != nil {
		return formatter.fail(ErrCodeRun, "running scenario", err)
	}

	cmp := store.CompareSteps(stored, result.Trace)
	out := ReplayResult{
		Scenario:      scenario.Name,
		RunID:         run.ID,
		StoredSteps:   len(stored),
		ReplaySteps:   len(result.Trace),
		StoredDigest:  run.Digest,
		ReplayDigest:  result.Digest,
		StoredOutcome: run.Outcome,
		ReplayOutcome: result.Outcome,
	}
	out.Deterministic = cmp.Equal && run.Digest == result.Digest && run.Outcome == result.Outcome
	switch {
	case !cmp.Equal:
		out.Divergence = cmp.String()
	case run.Outcome != result.Outcome:
		out.Divergence = fmt.Sprintf("outcome differs: stored %s, replay %s", run.Outcome, result.Outcome)
	case run.Digest != result.Digest:
		out.Divergence = "digest differs"
	}

	if formatter.Format == "json" {
		return outputReplayJSON(formatter, out)
	}
	return outputReplayText(formatter, out)
}

// findRun resolves the run to replay. A missing run reports the ids that
// the log does hold.
func findRun(ctx context.Context, st *store.Store, id, name string) (store.Run, error) {
	var (
		run store.Run
		err error
	)
	if id != "" {
		run, err = st.ReadRun(ctx, id)
	} else {
		run, err = st.LatestRun(ctx, name)
	}
	if !errors.Is(err, store.ErrRunNotFound) {
		return run, err
	}
	runs, listErr := st.ListRuns(ctx)
	if listErr != nil {
		return run, errors.Join(err, listErr)
	}
	if len(runs) == 0 {
		return run, fmt.Errorf("%w (the log holds no runs)", err)
	}
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return run, fmt.Errorf("%w (stored runs: %s)", err, strings.Join(ids, ", "))
}

func outputReplayJSON(formatter *OutputFormatter, out ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: out, RunID: out.RunID}
	if !out.Deterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
			Details: out.Divergence,
		}
	}
	if err := formatter.JSON(response); err != nil {
		return err
	}
	if !out.Deterministic {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

func outputReplayText(formatter *OutputFormatter, out ReplayResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Replay: %s (run %s)\n", out.Scenario, out.RunID)
	if formatter.Verbose {
		fmt.Fprintf(w, "  Stored: %d steps, %s, %s\n", out.StoredSteps, out.StoredOutcome, out.StoredDigest)
		fmt.Fprintf(w, "  Replay: %d steps, %s, %s\n", out.ReplaySteps, out.ReplayOutcome, out.ReplayDigest)
	} else {
		fmt.Fprintf(w, "  Steps: %d stored, %d replayed\n", out.StoredSteps, out.ReplaySteps)
	}
	fmt.Fprintln(w)

	if out.Deterministic {
		fmt.Fprintln(w, "✓ Replay matches stored run")
		return nil
	}

	fmt.Fprintf(w, "  %s\n", out.Divergence)
	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
