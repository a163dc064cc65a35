package compiler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/arcflow/internal/arc"
	"github.com/roach88/arcflow/internal/attr"
	"github.com/roach88/arcflow/internal/generator"
	"github.com/roach88/arcflow/internal/predicate"
	"github.com/roach88/arcflow/internal/strategy"
)

// OrphanPolicy decides what happens to arcs no structure schedules:
// arcs left in the pool after all group declarations and arcs of groups
// that are never referenced.
type OrphanPolicy int

const (
	// OrphanFold schedules orphans in a trailing while-one queue next to
	// the declared structure.
	OrphanFold OrphanPolicy = iota

	// OrphanWarn leaves orphans unscheduled. Their propagators never run
	// incrementally.
	OrphanWarn
)

// Option configures Compile.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	orphans OrphanPolicy
}

// WithLogger sets the logger used for compilation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithOrphanPolicy selects how unscheduled arcs are handled.
func WithOrphanPolicy(p OrphanPolicy) Option {
	return func(c *config) { c.orphans = p }
}

// DeclareGroups evaluates group declarations in order against a shrinking
// pool. It returns the groups and the pool of unclaimed arcs.
func DeclareGroups(decls []strategy.GroupDecl, arcs []*arc.Arc) (*arc.Groups, *arc.Pool, error) {
	pool := arc.NewPool(arcs)
	gs := arc.NewGroups()
	for _, d := range decls {
		if problems := predicate.Validate(d.Where); len(problems) > 0 {
			return nil, nil, configErr(ErrCodeInvalidDescription, d.Name, "invalid predicate: %s", problems[0])
		}
		claimed := predicate.Filter(d.Where, pool, gs)
		if len(claimed) == 0 {
			return nil, nil, configErr(ErrCodeEmptyGroup, d.Name, "predicate %s matches no arcs", d.Where)
		}
		pool.Remove(claimed)
		if _, err := gs.Declare(d.Name, claimed); err != nil {
			if errors.Is(err, arc.ErrDuplicateGroup) {
				return nil, nil, configErr(ErrCodeDuplicateGroup, d.Name, "group declared twice")
			}
			return nil, nil, configErr(ErrCodeInvalidDescription, d.Name, "%v", err)
		}
	}
	return gs, pool, nil
}

// Compile builds the generator tree for a description over arcs.
//
// A description without structure yields the default program: every arc in
// one flat while-one queue.
func Compile(d *strategy.Description, arcs []*arc.Arc, opts ...Option) (*generator.Program, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if d == nil || d.Structure == nil {
		var decls []strategy.GroupDecl
		if d != nil {
			decls = d.Groups
		}
		gs, _, err := DeclareGroups(decls, arcs)
		if err != nil {
			return nil, err
		}
		cfg.logger.Warn("no strategy declared, using default engine", "arcs", len(arcs))
		return defaultProgram(arcs, gs)
	}

	gs, pool, err := DeclareGroups(d.Groups, arcs)
	if err != nil {
		return nil, err
	}
	tree, err := strategy.Flatten(d.Structure)
	if err != nil {
		return nil, configErr(ErrCodeInvalidDescription, "", "%v", err)
	}

	b := &builder{
		cur:    tree.Cursor(),
		gs:     gs,
		leaves: make([]*generator.Leaf, len(arcs)),
		log:    cfg.logger,
	}
	units, err := b.element(1)
	if err != nil {
		return nil, err
	}
	if b.cur.LA(1) != strategy.EOF {
		return nil, configErr(ErrCodeInvalidDescription, "", "trailing tokens after structure at %d", b.cur.Index())
	}

	root, ok := singleGenerator(units)
	if !ok {
		if root, err = generator.NewQueue(units, generator.WhileOne); err != nil {
			return nil, mapGeneratorErr(err, "")
		}
	}

	orphans := append([]*arc.Arc(nil), pool.Arcs()...)
	for _, h := range gs.Unreferenced() {
		orphans = append(orphans, gs.Get(h).Arcs...)
	}
	if len(orphans) > 0 {
		b.warn("arcs not scheduled by the strategy", "count", len(orphans), "folded", cfg.orphans == OrphanFold)
		if cfg.orphans == OrphanFold {
			tail := make([]generator.Unit, len(orphans))
			for i, a := range orphans {
				tail[i] = b.leaf(a, attr.None)
			}
			rest, err := generator.NewQueue(tail, generator.WhileOne)
			if err != nil {
				return nil, mapGeneratorErr(err, "")
			}
			if root, err = generator.NewQueue([]generator.Unit{root, rest}, generator.WhileOne); err != nil {
				return nil, mapGeneratorErr(err, "")
			}
		}
	}

	prog := generator.NewProgram(root, b.leaves)
	prog.Warnings = b.warnings
	return prog, nil
}

func defaultProgram(arcs []*arc.Arc, gs *arc.Groups) (*generator.Program, error) {
	if len(arcs) == 0 {
		return nil, configErr(ErrCodeEmptyGenerator, "", "model has no arcs")
	}
	leaves := make([]*generator.Leaf, len(arcs))
	units := make([]generator.Unit, len(arcs))
	for i, a := range arcs {
		leaves[a.ID] = generator.NewLeaf(a, attr.None, gs)
		units[i] = leaves[a.ID]
	}
	root, err := generator.NewQueue(units, generator.WhileOne)
	if err != nil {
		return nil, mapGeneratorErr(err, "")
	}
	prog := generator.NewProgram(root, leaves)
	prog.Warnings = []string{"no strategy declared, using default engine"}
	return prog, nil
}

// Default returns the default program over arcs: one flat while-one queue.
func Default(arcs []*arc.Arc) (*generator.Program, error) {
	return defaultProgram(arcs, nil)
}

func singleGenerator(units []generator.Unit) (generator.Generator, bool) {
	if len(units) != 1 {
		return nil, false
	}
	g, ok := units[0].(generator.Generator)
	return g, ok
}

func mapGeneratorErr(err error, group string) error {
	switch {
	case errors.Is(err, generator.ErrEmpty):
		return configErr(ErrCodeEmptyGenerator, group, "%v", err)
	case errors.Is(err, generator.ErrMissingKeys):
		return configErr(ErrCodeMissingKeys, group, "cannot sort the collection: %v", err)
	case errors.Is(err, generator.ErrPolicy):
		return configErr(ErrCodeInvalidDescription, group, "%v", err)
	}
	return fmt.Errorf("building generator: %w", err)
}
