package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/arcflow/internal/arc"
	"github.com/roach88/arcflow/internal/compiler"
	"github.com/roach88/arcflow/internal/cp"
	"github.com/roach88/arcflow/internal/generator"
	"github.com/roach88/arcflow/internal/strategy"
	"github.com/roach88/arcflow/internal/trace"
)

// DefaultMaxSteps is the default maximum number of propagator executions
// per Propagate call.
const DefaultMaxSteps = 100000

// Engine schedules and runs propagators according to a generator tree.
//
// INVARIANTS:
//   - arcs are created once in propagator declaration order
//   - the generator tree never changes after New
//   - only one Propagate call runs at a time (no goroutines)
type Engine struct {
	props []cp.Propagator
	arcs  []*arc.Arc
	prog  *generator.Program
	byVar map[int][]*generator.Leaf

	desc        *strategy.Description
	compileOpts []compiler.Option

	clock     *Clock
	quota     *QuotaEnforcer
	maxSteps  int
	observers []Observer
	logger    *slog.Logger
	runIDs    RunIDGenerator
	runID     string

	// changes counts domain events; a propagator changed something when it
	// moved during its execution.
	changes uint64

	// executions counts propagator runs across Propagate calls.
	executions uint64
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithDescription compiles d into the generator tree.
func WithDescription(d *strategy.Description) EngineOption {
	return func(e *Engine) { e.desc = d }
}

// WithProgram uses a pre-built program. Its leaves must have been built
// over arc.Populate of the same propagators.
func WithProgram(p *generator.Program) EngineOption {
	return func(e *Engine) { e.prog = p }
}

// WithCompileOptions passes options to the strategy compiler.
func WithCompileOptions(opts ...compiler.Option) EngineOption {
	return func(e *Engine) { e.compileOpts = append(e.compileOpts, opts...) }
}

// WithMaxSteps sets the maximum executions per Propagate call.
//
// Default: DefaultMaxSteps. Zero disables the quota.
func WithMaxSteps(maxSteps int) EngineOption {
	return func(e *Engine) { e.maxSteps = maxSteps }
}

// WithObserver registers an observer of propagator executions.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithRunIDGenerator sets the run id source. Defaults to UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) { e.runIDs = g }
}

// WithClock sets the logical clock, for example to continue numbering
// after recorded steps.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// New creates an engine over props and registers it as the notifier of
// every variable. Without a description or program the default engine
// is used.
func New(props []cp.Propagator, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		props:    append([]cp.Propagator(nil), props...),
		maxSteps: DefaultMaxSteps,
		logger:   slog.Default(),
		runIDs:   UUIDv7Generator{},
		clock:    NewClock(),
		byVar:    make(map[int][]*generator.Leaf),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.quota = NewQuotaEnforcer(e.maxSteps)
	e.runID = e.runIDs.Generate()
	e.arcs = arc.Populate(e.props)

	if e.prog == nil && len(e.arcs) > 0 {
		copts := append([]compiler.Option{compiler.WithLogger(e.logger)}, e.compileOpts...)
		prog, err := compiler.Compile(e.desc, e.arcs, copts...)
		if err != nil {
			return nil, fmt.Errorf("compile strategy: %w", err)
		}
		e.prog = prog
	}
	if e.prog != nil {
		for _, l := range e.prog.Leaves {
			if l == nil {
				continue
			}
			id := l.Arc().Var.ID()
			e.byVar[id] = append(e.byVar[id], l)
		}
	}

	seen := make(map[int]bool)
	for _, p := range e.props {
		for _, v := range p.Vars() {
			if !seen[v.ID()] {
				seen[v.ID()] = true
				v.Observe(e)
			}
		}
	}

	e.logger.Debug("engine created",
		"run_id", e.runID,
		"propagators", len(e.props),
		"arcs", len(e.arcs),
	)
	return e, nil
}

// RunID returns the identifier of this run.
func (e *Engine) RunID() string { return e.runID }

// Program returns the compiled generator tree, nil for an empty model.
func (e *Engine) Program() *generator.Program { return e.prog }

// Arcs returns the arcs in creation order.
func (e *Engine) Arcs() []*arc.Arc { return e.arcs }

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock { return e.clock }

// Notify schedules every arc of v whose propagator is not cause and whose
// propagation conditions intersect mask.
func (e *Engine) Notify(v cp.Variable, mask cp.EventMask, cause cp.Propagator) {
	e.changes++
	for _, l := range e.byVar[v.ID()] {
		a := l.Arc()
		if cause != nil && a.Prop.ID() == cause.ID() {
			continue
		}
		if m := mask & a.Prop.PropagationConditions(a.VarIndex); m != 0 {
			l.Schedule(m)
		}
	}
}

// PropagateEvent reports an external event on v and propagates it.
func (e *Engine) PropagateEvent(v cp.Variable, mask cp.EventMask) error {
	e.Notify(v, mask, nil)
	return e.Propagate()
}

// Propagate runs the root generator until nothing is ready.
//
// On contradiction all pending work is flushed and the
// *cp.ContradictionError is returned unchanged.
func (e *Engine) Propagate() error {
	if e.prog == nil {
		return nil
	}
	e.quota.Reset()
	e.prog.Refresh()
	for e.prog.Root.Ready() {
		if _, err := e.prog.Root.ProcessToFixpoint(e); err != nil {
			e.prog.Flush()
			return err
		}
	}
	return nil
}

// InitialPropagation runs a coarse propagation of every propagator in
// declaration order, then propagates the resulting events.
func (e *Engine) InitialPropagation() error {
	e.quota.Reset()
	for _, p := range e.props {
		if err := e.run(p, "", cp.FullMask, func() error { return p.Propagate(cp.FullMask) }); err != nil {
			if e.prog != nil {
				e.prog.Flush()
			}
			return err
		}
	}
	return e.Propagate()
}

// Fire runs the propagator of a scheduled leaf. It implements
// generator.Runtime.
func (e *Engine) Fire(l *generator.Leaf, mask cp.EventMask) error {
	a := l.Arc()
	return e.run(a.Prop, a.Var.Name(), mask, func() error {
		return a.Prop.PropagateOn(a.VarIndex, mask)
	})
}

// Changes implements generator.Runtime.
func (e *Engine) Changes() uint64 { return e.changes }

// Executions implements generator.Runtime.
func (e *Engine) Executions() uint64 { return e.executions }

func (e *Engine) run(p cp.Propagator, varName string, mask cp.EventMask, fn func() error) error {
	if err := e.quota.Check(e.runID); err != nil {
		e.logger.Error("max steps quota exceeded",
			"run_id", e.runID,
			"prop", p.Name(),
			"steps", e.quota.Current(),
			"limit", e.maxSteps,
			"event", "quota_exceeded",
		)
		return err
	}

	before := e.changes
	e.executions++
	err := fn()
	if e.prog != nil {
		e.prog.Refresh()
	}
	step := trace.Step{
		Seq:     e.clock.Next(),
		Prop:    p.Name(),
		Var:     varName,
		Mask:    mask.String(),
		Changed: e.changes != before,
		Outcome: trace.OutcomeOK,
	}

	if err != nil {
		ce, ok := cp.AsContradiction(err)
		if !ok {
			e.logger.Error("propagator failed", "run_id", e.runID, "prop", p.Name(), "error", err)
			return newPropagatorError(e.runID, p.Name(), err)
		}
		step.Outcome = trace.OutcomeContradiction
		step.Message = ce.Message
		e.logger.Debug("contradiction", "seq", step.Seq, "prop", p.Name(), "var", varName, "message", ce.Message)
		for _, o := range e.observers {
			o.OnContradiction(step)
		}
		return err
	}

	e.logger.Debug("propagator executed",
		"seq", step.Seq,
		"prop", p.Name(),
		"var", varName,
		"mask", step.Mask,
		"changed", step.Changed,
	)
	for _, o := range e.observers {
		o.OnStep(step)
	}
	return nil
}
