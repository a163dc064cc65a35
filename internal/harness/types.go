package harness

import "github.com/roach88/arcflow/internal/trace"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expect clause and all assertions match.
	Pass bool `json:"pass"`

	// RunID is the engine run id of this execution.
	RunID string `json:"run_id"`

	// Outcome is fixpoint or contradiction.
	Outcome string `json:"outcome"`

	// Message is the contradiction message, if any.
	Message string `json:"message,omitempty"`

	// Trace contains all propagator executions in order.
	Trace []trace.Step `json:"trace"`

	// Digest is the trace digest.
	Digest string `json:"digest"`

	// Final domain of the graph.
	EnvelopeNodes []int    `json:"envelope_nodes"`
	EnvelopeEdges [][2]int `json:"envelope_edges"`
	KernelEdges   [][2]int `json:"kernel_edges"`

	// Warnings are the strategy compilation warnings.
	Warnings []string `json:"warnings,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []trace.Step{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
