package harness

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/arcflow/internal/compiler"
	"github.com/roach88/arcflow/internal/cp"
	"github.com/roach88/arcflow/internal/degree"
	"github.com/roach88/arcflow/internal/engine"
	"github.com/roach88/arcflow/internal/graph"
	"github.com/roach88/arcflow/internal/strategy"
	"github.com/roach88/arcflow/internal/trace"
)

// DefaultRunID is used when a scenario does not fix its run id.
const DefaultRunID = "test-run-default"

// Option configures a scenario run.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	observers []engine.Observer
	runID     string
}

// WithLogger sets the engine logger. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithObserver adds an engine observer, for example a store recorder.
func WithObserver(o engine.Observer) Option {
	return func(c *config) { c.observers = append(c.observers, o) }
}

// WithRunID overrides the scenario run id.
func WithRunID(id string) Option {
	return func(c *config) { c.runID = id }
}

// Harness runs one scenario against a fresh model.
type Harness struct {
	scenario *Scenario
	g        *graph.UndirectedGraph
	engine   *engine.Engine
	steps    *engine.StepLog
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario builds a fresh graph and engine, so runs are isolated and
// reproducible.
//
// Execution flow:
// 1. Build the graph domain and the degree propagators
// 2. Load and compile the strategy
// 3. Run the initial propagation if requested
// 4. Apply events, propagating after each, until a contradiction
// 5. Compare the end state and evaluate assertions
//
// A contradiction is an outcome, not an error. Errors are returned for
// invalid strategies and engine failures.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		runID:  scenario.RunID,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.runID == "" {
		cfg.runID = DefaultRunID
	}

	h, err := newHarness(scenario, cfg)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.RunID = h.engine.RunID()
	if prog := h.engine.Program(); prog != nil {
		result.Warnings = prog.Warnings
	}

	if err := h.execute(result); err != nil {
		return nil, err
	}

	result.Trace = append(result.Trace, h.steps.Steps()...)
	digest, err := trace.Digest(result.Trace)
	if err != nil {
		return nil, fmt.Errorf("digest trace: %w", err)
	}
	result.Digest = digest
	result.EnvelopeNodes = h.g.EnvelopeNodes()
	result.EnvelopeEdges = h.g.EnvelopeEdges()
	result.KernelEdges = h.g.KernelEdges()

	for _, msg := range checkExpect(scenario.Expect, result) {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(s *Scenario, cfg *config) (*Harness, error) {
	g, err := buildGraph(s.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	props := buildConstraints(g, s.Constraints)

	desc, err := loadStrategy(s)
	if err != nil {
		return nil, err
	}

	steps := &engine.StepLog{}
	engOpts := []engine.EngineOption{
		engine.WithLogger(cfg.logger),
		engine.WithRunIDGenerator(engine.NewFixedGenerator(cfg.runID)),
		engine.WithObserver(steps),
	}
	if desc != nil {
		engOpts = append(engOpts, engine.WithDescription(desc))
	}
	if s.MaxSteps > 0 {
		engOpts = append(engOpts, engine.WithMaxSteps(s.MaxSteps))
	}
	for _, o := range cfg.observers {
		engOpts = append(engOpts, engine.WithObserver(o))
	}

	eng, err := engine.New(props, engOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return &Harness{scenario: s, g: g, engine: eng, steps: steps, logger: cfg.logger}, nil
}

func loadStrategy(s *Scenario) (*strategy.Description, error) {
	switch {
	case s.Strategy != "":
		d, err := compiler.LoadFile(s.Strategy)
		if err != nil {
			return nil, fmt.Errorf("failed to load strategy: %w", err)
		}
		return d, nil
	case s.StrategyInline != "":
		d, err := compiler.LoadString(s.StrategyInline, s.Name+".cue")
		if err != nil {
			return nil, fmt.Errorf("failed to load strategy: %w", err)
		}
		return d, nil
	}
	return nil, nil
}

// buildGraph creates the graph before any engine observes it, so the
// initial kernel produces no events.
func buildGraph(spec GraphSpec) (*graph.UndirectedGraph, error) {
	g := graph.NewUndirected(0, "g", spec.Nodes)
	for _, e := range spec.Edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}
	for _, n := range spec.KernelNodes {
		if _, err := g.EnforceNode(n, nil); err != nil {
			return nil, err
		}
	}
	for _, e := range spec.KernelEdges {
		if _, err := g.EnforceEdge(e[0], e[1], nil); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func buildConstraints(g *graph.UndirectedGraph, specs []ConstraintSpec) []cp.Propagator {
	n := g.NumNodes()
	props := make([]cp.Propagator, 0, len(specs))
	for i, c := range specs {
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("%s_%d", c.Type, i)
		}

		loose := 0
		if c.Type == ConstraintDegreeAtMost {
			loose = n
		}
		degrees := degree.Uniform(c.Degree, n)
		if len(c.Nodes) > 0 {
			degrees = degree.Uniform(loose, n)
			for _, node := range c.Nodes {
				degrees[node] = c.Degree
			}
		}

		var p interface {
			cp.Propagator
			SetPriority(cp.Priority)
		}
		switch c.Type {
		case ConstraintDegreeAtLeast:
			p = degree.NewNodeDegreeAtLeast(i, name, i, g, degrees)
		case ConstraintDegreeAtMost:
			p = degree.NewNodeDegreeAtMost(i, name, i, g, degrees)
		}
		if c.Priority > 0 {
			p.SetPriority(cp.Priority(c.Priority))
		}
		props = append(props, p)
	}
	return props
}

func (h *Harness) execute(result *Result) error {
	if h.scenario.Initial {
		if done, err := h.settle(result, h.engine.InitialPropagation()); done {
			return err
		}
	}
	for i, ev := range h.scenario.Events {
		if _, err := h.apply(ev); err != nil {
			if done, err := h.settle(result, fmt.Errorf("events[%d]: %w", i, err)); done {
				return err
			}
		}
		if done, err := h.settle(result, h.engine.Propagate()); done {
			return err
		}
	}
	result.Outcome = OutcomeFixpoint
	return nil
}

// settle classifies err. It reports whether the scenario is over, and the
// error to return when the run failed.
func (h *Harness) settle(result *Result, err error) (bool, error) {
	if err == nil {
		return false, nil
	}
	if ce, ok := cp.AsContradiction(err); ok {
		result.Outcome = OutcomeContradiction
		result.Message = ce.Message
		h.logger.Debug("scenario contradiction", "scenario", h.scenario.Name, "message", ce.Message)
		return true, nil
	}
	return true, err
}

func (h *Harness) apply(ev EventSpec) (bool, error) {
	switch ev.Op {
	case OpRemoveEdge:
		return h.g.RemoveEdge(ev.Edge[0], ev.Edge[1], nil)
	case OpEnforceEdge:
		return h.g.EnforceEdge(ev.Edge[0], ev.Edge[1], nil)
	case OpRemoveNode:
		return h.g.RemoveNode(ev.Node, nil)
	case OpEnforceNode:
		return h.g.EnforceNode(ev.Node, nil)
	}
	return false, fmt.Errorf("unknown op %q", ev.Op)
}

func checkExpect(want ExpectClause, r *Result) []string {
	var errs []string
	if want.Outcome != r.Outcome {
		msg := fmt.Sprintf("expected outcome %s, got %s", want.Outcome, r.Outcome)
		if r.Message != "" {
			msg += ": " + r.Message
		}
		errs = append(errs, msg)
	}
	if want.KernelEdges != nil && !slices.Equal(normalize(want.KernelEdges), r.KernelEdges) {
		errs = append(errs, fmt.Sprintf("expected kernel edges %v, got %v", want.KernelEdges, r.KernelEdges))
	}
	if want.EnvelopeEdges != nil && !slices.Equal(normalize(want.EnvelopeEdges), r.EnvelopeEdges) {
		errs = append(errs, fmt.Sprintf("expected envelope edges %v, got %v", want.EnvelopeEdges, r.EnvelopeEdges))
	}
	if want.EnvelopeNodes != nil && !slices.Equal(want.EnvelopeNodes, r.EnvelopeNodes) {
		errs = append(errs, fmt.Sprintf("expected envelope nodes %v, got %v", want.EnvelopeNodes, r.EnvelopeNodes))
	}
	return errs
}

// normalize orders each pair and the list the way the graph reports edges.
func normalize(edges [][2]int) [][2]int {
	out := make([][2]int, len(edges))
	for i, e := range edges {
		if e[0] > e[1] {
			e[0], e[1] = e[1], e[0]
		}
		out[i] = e
	}
	slices.SortFunc(out, func(a, b [2]int) int {
		if a[0] != b[0] {
			return a[0] - b[0]
		}
		return a[1] - b[1]
	})
	return out
}
