package compiler

import (
	"log/slog"

	"github.com/roach88/arcflow/internal/arc"
	"github.com/roach88/arcflow/internal/attr"
	"github.com/roach88/arcflow/internal/generator"
	"github.com/roach88/arcflow/internal/strategy"
)

// builder walks a flattened structure and instantiates generators.
// Partitions replay their collection tokens once per part through cursor
// marks.
type builder struct {
	cur      *strategy.Cursor
	gs       *arc.Groups
	leaves   []*generator.Leaf
	log      *slog.Logger
	warnings []string
}

func (b *builder) warn(msg string, args ...any) {
	b.log.Warn(msg, args...)
	b.warnings = append(b.warnings, msg)
}

func (b *builder) match(k strategy.Kind) (strategy.Token, error) {
	tok, err := b.cur.Match(k)
	if err != nil {
		return tok, configErr(ErrCodeInvalidDescription, "", "%v", err)
	}
	return tok, nil
}

func (b *builder) seek(m int) error {
	if err := b.cur.Seek(m); err != nil {
		return configErr(ErrCodeInvalidDescription, "", "%v", err)
	}
	return nil
}

func (b *builder) leaf(a *arc.Arc, key attr.Attribute) *generator.Leaf {
	l := generator.NewLeaf(a, key, b.gs)
	b.leaves[a.ID] = l
	return l
}

// reference resolves a group name and records its placement.
func (b *builder) reference(name string, depth int) (*arc.Group, error) {
	h, ok := b.gs.Lookup(name)
	if !ok {
		return nil, configErr(ErrCodeUnknownGroup, name, "group is not declared")
	}
	if !b.gs.MarkReferenced(h, depth) {
		return nil, configErr(ErrCodeDuplicateReference, name, "group is placed more than once")
	}
	return b.gs.Get(h), nil
}

// element instantiates the next element and returns the units it
// contributes to its parent: one generator, or one leaf per arc for a
// group reference.
func (b *builder) element(depth int) ([]generator.Unit, error) {
	switch b.cur.LA(1) {
	case strategy.GroupNode:
		tok, _ := b.cur.Match(strategy.GroupNode)
		g, err := b.reference(tok.Name, depth)
		if err != nil {
			return nil, err
		}
		units := make([]generator.Unit, len(g.Arcs))
		for i, a := range g.Arcs {
			units[i] = b.leaf(a, tok.Attr)
		}
		return units, nil
	case strategy.StructNode:
		g, err := b.structure(depth)
		if err != nil {
			return nil, err
		}
		return []generator.Unit{g}, nil
	case strategy.RegNode:
		g, err := b.registered(depth)
		if err != nil {
			return nil, err
		}
		return []generator.Unit{g}, nil
	}
	return nil, configErr(ErrCodeInvalidDescription, "", "unexpected %s at %d", b.cur.LA(1), b.cur.Index())
}

func (b *builder) structure(depth int) (generator.Generator, error) {
	if _, err := b.match(strategy.StructNode); err != nil {
		return nil, err
	}
	if _, err := b.match(strategy.Down); err != nil {
		return nil, err
	}
	var units []generator.Unit
	for b.cur.LA(1) != strategy.KeyNode && b.cur.LA(1) != strategy.CollNode {
		us, err := b.element(depth + 1)
		if err != nil {
			return nil, err
		}
		units = append(units, us...)
	}
	g, err := b.collection(units, "")
	if err != nil {
		return nil, err
	}
	if _, err := b.match(strategy.Up); err != nil {
		return nil, err
	}
	return g, nil
}

func (b *builder) registered(depth int) (generator.Generator, error) {
	tok, err := b.match(strategy.RegNode)
	if err != nil {
		return nil, err
	}
	if _, err := b.match(strategy.Down); err != nil {
		return nil, err
	}
	g, err := b.reference(tok.Name, depth)
	if err != nil {
		return nil, err
	}
	leaves := make([]*generator.Leaf, len(g.Arcs))
	for i, a := range g.Arcs {
		leaves[i] = b.leaf(a, tok.Attr)
	}
	gens, err := b.partition(leaves, tok.Name)
	if err != nil {
		return nil, err
	}
	out, err := b.collection(generatorUnits(gens), tok.Name)
	if err != nil {
		return nil, err
	}
	if _, err := b.match(strategy.Up); err != nil {
		return nil, err
	}
	return out, nil
}

// partition consumes a MANY or EACH node and returns the generators it
// builds over leaves.
func (b *builder) partition(leaves []*generator.Leaf, group string) ([]generator.Generator, error) {
	switch b.cur.LA(1) {
	case strategy.ManyNode:
		return b.many(leaves, group)
	case strategy.EachNode:
		return b.each(leaves, group)
	}
	return nil, configErr(ErrCodeInvalidDescription, group, "expected partition, got %s", b.cur.LA(1))
}

func (b *builder) many(leaves []*generator.Leaf, group string) ([]generator.Generator, error) {
	tok, _ := b.cur.Match(strategy.ManyNode)
	if !tok.Attr.Defined() {
		return nil, configErr(ErrCodeInvalidDescription, group, "many requires a partition attribute")
	}
	if _, err := b.match(strategy.Down); err != nil {
		return nil, err
	}
	var gens []generator.Generator
	if tok.Attr.IsDynamic() {
		inner, err := b.collection(leafUnits(leaves), group)
		if err != nil {
			return nil, err
		}
		max := 0
		for _, l := range leaves {
			if v := tok.Attr.Eval(l.Arc(), b.gs); v > max {
				max = v
			}
		}
		sw, err := generator.NewSwitcher(tok.Attr, max, inner, leaves, b.gs)
		if err != nil {
			return nil, mapGeneratorErr(err, group)
		}
		for _, c := range sw.Cases() {
			gens = append(gens, c)
		}
	} else {
		m := b.cur.Mark()
		for _, part := range partitionBy(tok.Attr, leaves, b.gs) {
			if err := b.seek(m); err != nil {
				return nil, err
			}
			g, err := b.collection(leafUnits(part), group)
			if err != nil {
				return nil, err
			}
			gens = append(gens, g)
		}
		b.cur.Release(m)
	}
	if _, err := b.match(strategy.Up); err != nil {
		return nil, err
	}
	return gens, nil
}

func (b *builder) each(leaves []*generator.Leaf, group string) ([]generator.Generator, error) {
	tok, _ := b.cur.Match(strategy.EachNode)
	if !tok.Attr.Defined() {
		return nil, configErr(ErrCodeInvalidDescription, group, "each requires a partition attribute")
	}
	if !tok.Attr.IsDynamic() {
		return nil, configErr(ErrCodeInvalidSwitch, group, "each requires a dynamic attribute, %s is static", tok.Attr)
	}
	if _, err := b.match(strategy.Down); err != nil {
		return nil, err
	}

	var key *attr.Combined
	if b.cur.LA(1) == strategy.KeyNode {
		k, _ := b.cur.Match(strategy.KeyNode)
		key = k.Key
	}
	inner := b.cur.Mark()
	parts := partitionBy(tok.Attr, leaves, b.gs)
	nested := make([][]generator.Generator, 0, len(parts))
	for _, part := range parts {
		if err := b.seek(inner); err != nil {
			return nil, err
		}
		gens, err := b.partition(part, group)
		if err != nil {
			return nil, err
		}
		nested = append(nested, gens)
	}
	b.cur.Release(inner)

	coll, err := b.match(strategy.CollNode)
	if err != nil {
		return nil, err
	}
	out := make([]generator.Generator, 0, len(nested))
	for _, gens := range nested {
		g, err := b.newColl(generatorUnits(gens), key, coll.Coll, group)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if _, err := b.match(strategy.Up); err != nil {
		return nil, err
	}
	return out, nil
}

// collection consumes KEY? COLL and builds the generator over units.
func (b *builder) collection(units []generator.Unit, group string) (generator.Generator, error) {
	var key *attr.Combined
	if b.cur.LA(1) == strategy.KeyNode {
		tok, _ := b.cur.Match(strategy.KeyNode)
		key = tok.Key
	}
	tok, err := b.match(strategy.CollNode)
	if err != nil {
		return nil, err
	}
	return b.newColl(units, key, tok.Coll, group)
}

func (b *builder) newColl(units []generator.Unit, key *attr.Combined, c strategy.Coll, group string) (generator.Generator, error) {
	if len(units) == 0 {
		return nil, configErr(ErrCodeEmptyGenerator, group, "%s collection over zero units", c.Type)
	}
	if len(units) == 1 {
		b.warn("collection with a single element", "coll", c.String(), "group", group)
	}
	iter := c.Iter
	if iter == "" {
		iter = strategy.IterWhileOne
	}
	policy, err := generator.ParsePolicy(iter)
	if err != nil {
		return nil, configErr(ErrCodeInvalidDescription, group, "%v", err)
	}

	var g generator.Generator
	switch c.Type {
	case strategy.Queue:
		g, err = generator.NewQueue(units, policy)
	case strategy.List:
		g, err = generator.NewSort(units, policy, c.Reverse)
	case strategy.Heap:
		g, err = generator.NewHeap(units, policy, c.Order == strategy.OrderMax)
	default:
		return nil, configErr(ErrCodeInvalidDescription, group, "unknown collection type %q", c.Type)
	}
	if err != nil {
		return nil, mapGeneratorErr(err, group)
	}
	g.AttachKey(key, b.gs)
	return g, nil
}

// partitionBy groups leaves by the current value of a, parts in order of
// first occurrence.
func partitionBy(a attr.Attribute, leaves []*generator.Leaf, gs *arc.Groups) [][]*generator.Leaf {
	index := make(map[int]int)
	var parts [][]*generator.Leaf
	for _, l := range leaves {
		v := a.Eval(l.Arc(), gs)
		i, ok := index[v]
		if !ok {
			i = len(parts)
			index[v] = i
			parts = append(parts, nil)
		}
		parts[i] = append(parts[i], l)
	}
	return parts
}

func leafUnits(leaves []*generator.Leaf) []generator.Unit {
	units := make([]generator.Unit, len(leaves))
	for i, l := range leaves {
		units[i] = l
	}
	return units
}

func generatorUnits(gens []generator.Generator) []generator.Unit {
	units := make([]generator.Unit, len(gens))
	for i, g := range gens {
		units[i] = g
	}
	return units
}
