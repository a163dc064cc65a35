package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/arcflow/internal/engine"
	"github.com/roach88/arcflow/internal/harness"
	"github.com/roach88/arcflow/internal/metrics"
	"github.com/roach88/arcflow/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Metrics  bool

	// RunIDs allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator. A run id fixed by the
	// scenario takes precedence.
	RunIDs engine.RunIDGenerator
}

// RunResult summarizes one scenario execution.
type RunResult struct {
	Scenario string   `json:"scenario"`
	RunID    string   `json:"run_id"`
	Pass     bool     `json:"pass"`
	Outcome  string   `json:"outcome"`
	Message  string   `json:"message,omitempty"`
	Steps    int      `json:"steps"`
	Digest   string   `json:"digest"`
	Stored   bool     `json:"stored"`
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Metrics  string   `json:"metrics,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario through the propagation engine",
		Long: `Build the graph model of a scenario, apply its events and propagate
to a fixpoint or a contradiction after each one.

With --db every propagator execution is appended to a SQLite run log
(created if it doesn't exist) so the run can be replayed later. With
--metrics the propagation counters are printed in the Prometheus text
format.

Exit codes:
  0 - Scenario expectations met
  1 - Expectation or assertion failed
  2 - Command error (invalid scenario, invalid strategy, database error)

Example:
  arcflow run ./scenarios/triangle.yaml
  arcflow run ./scenarios/triangle.yaml --db ./runs.db --metrics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print propagation metrics")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	scenario, err := loadScenarioFile(path)
	if err != nil {
		return formatter.fail(loadErrorCode(err), "loading scenario", err)
	}

	runID := scenario.RunID
	if runID == "" {
		gen := opts.RunIDs
		if gen == nil {
			gen = engine.UUIDv7Generator{}
		}
		runID = gen.Generate()
	}
	hopts := []harness.Option{
		harness.WithRunID(runID),
		harness.WithLogger(newLogger(opts.RootOptions, formatter.GetErrWriter())),
	}

	var rec *store.Recorder
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.fail(ErrCodeStore, "opening database", err)
		}
		defer st.Close()

		rec, err = store.NewRecorder(ctx, st, runID, scenario.Name)
		if err != nil {
			return formatter.fail(ErrCodeStore, "creating run", err)
		}
		hopts = append(hopts, harness.WithObserver(rec))
		formatter.VerboseLog("Recording run %s to %s", runID, opts.Database)
	}

	var m *metrics.Metrics
	if opts.Metrics {
		m = metrics.New(prometheus.NewRegistry())
		hopts = append(hopts, harness.WithObserver(m))
	}

	result, err := harness.Run(scenario, hopts...)
	if err != nil {
		return formatter.fail(ErrCodeRun, "running scenario", err)
	}

	out := RunResult{
		Scenario: scenario.Name,
		RunID:    result.RunID,
		Pass:     result.Pass,
		Outcome:  result.Outcome,
		Message:  result.Message,
		Steps:    len(result.Trace),
		Digest:   result.Digest,
		Warnings: result.Warnings,
		Errors:   result.Errors,
	}

	if rec != nil {
		if _, err := rec.Finish(result.Outcome); err != nil {
			return formatter.fail(ErrCodeStore, "recording run", err)
		}
		out.Stored = true
	}

	if m != nil {
		var buf bytes.Buffer
		if err := m.WriteText(&buf); err != nil {
			return formatter.fail(ErrCodeGeneric, "encoding metrics", err)
		}
		out.Metrics = buf.String()
	}

	if formatter.Format == "json" {
		return outputRunJSON(formatter, out)
	}
	return outputRunText(formatter, out)
}

func loadScenarioFile(path string) (*harness.Scenario, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return harness.LoadScenario(path)
}

func outputRunJSON(formatter *OutputFormatter, out RunResult) error {
	response := CLIResponse{Status: "ok", Data: out, RunID: out.RunID}
	if !out.Pass {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_SCENARIO_FAILED",
			Message: fmt.Sprintf("scenario %s failed", out.Scenario),
		}
	}
	if err := formatter.JSON(response); err != nil {
		return err
	}
	if !out.Pass {
		// Scenario failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", out.Scenario))
	}
	return nil
}

func outputRunText(formatter *OutputFormatter, out RunResult) error {
	w := formatter.Writer

	status := "✓"
	if !out.Pass {
		status = "✗"
	}
	fmt.Fprintf(w, "%s %s\n", status, out.Scenario)
	fmt.Fprintf(w, "  Run: %s\n", out.RunID)
	if out.Message != "" {
		fmt.Fprintf(w, "  Outcome: %s (%s)\n", out.Outcome, out.Message)
	} else {
		fmt.Fprintf(w, "  Outcome: %s\n", out.Outcome)
	}
	fmt.Fprintf(w, "  Steps: %d\n", out.Steps)
	fmt.Fprintf(w, "  Digest: %s\n", out.Digest)
	if out.Stored {
		fmt.Fprintln(w, "  Stored: yes")
	}
	for _, warning := range out.Warnings {
		fmt.Fprintf(w, "  Warning: %s\n", warning)
	}
	for _, e := range out.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
	if out.Metrics != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, out.Metrics)
	}

	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", out.Scenario))
	}
	return nil
}
