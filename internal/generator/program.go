package generator

import (
	"fmt"
	"strings"

	"github.com/roach88/arcflow/internal/attr"
)

// Program is a compiled generator tree.
type Program struct {
	Root Generator

	// Leaves holds one leaf per arc, indexed by arc ID.
	Leaves []*Leaf

	// Warnings collects non-fatal compilation diagnostics.
	Warnings []string

	switchers []*Switcher
}

// NewProgram indexes the switchers reachable from root.
func NewProgram(root Generator, leaves []*Leaf) *Program {
	p := &Program{Root: root, Leaves: leaves}
	seen := map[*Switcher]bool{}
	var walk func(u Unit)
	walk = func(u Unit) {
		switch g := u.(type) {
		case *SwitchCase:
			if !seen[g.sw] {
				seen[g.sw] = true
				p.switchers = append(p.switchers, g.sw)
				walk(g.sw.inner)
			}
		case Generator:
			for _, c := range g.Units() {
				walk(c)
			}
		}
	}
	walk(root)
	return p
}

// Switchers returns the switchers of the tree in discovery order.
func (p *Program) Switchers() []*Switcher { return p.switchers }

// Refresh re-routes pending leaves whose switching value may have moved.
// The engine calls it after every propagator execution.
func (p *Program) Refresh() {
	for _, s := range p.switchers {
		s.Refresh()
	}
}

// Flush drops all pending work, for example after a contradiction.
func (p *Program) Flush() {
	p.Root.flush()
	for _, s := range p.switchers {
		s.inner.flush()
	}
	for _, l := range p.Leaves {
		if l != nil {
			l.flush()
		}
	}
}

// Describe renders a generator tree, one unit per line.
func Describe(g Generator) string {
	var b strings.Builder
	describe(&b, g, 0, map[*Switcher]bool{})
	return b.String()
}

func describe(b *strings.Builder, u Unit, depth int, seen map[*Switcher]bool) {
	indent := strings.Repeat("  ", depth)
	switch g := u.(type) {
	case *Leaf:
		fmt.Fprintf(b, "%sarc %s", indent, g.arc)
		if g.key != attr.None {
			fmt.Fprintf(b, " key=%s", g.key)
		}
		b.WriteByte('\n')
	case *SwitchCase:
		fmt.Fprintf(b, "%scase %s=%d\n", indent, g.sw.by, g.value)
		if !seen[g.sw] {
			seen[g.sw] = true
			describe(b, g.sw.inner, depth+1, seen)
		}
	case Generator:
		fmt.Fprintf(b, "%s%s(%s)", indent, g.Kind(), g.Policy())
		switch v := g.(type) {
		case *Sort:
			if v.reverse {
				b.WriteString(" reverse")
			}
		case *Heap:
			if v.max {
				b.WriteString(" max")
			} else {
				b.WriteString(" min")
			}
		}
		if k := g.KeyAttr(); k != nil {
			fmt.Fprintf(b, " key=[%s]", k)
		}
		b.WriteByte('\n')
		children := g.Units()
		if s, ok := g.(*Sort); ok {
			children = s.order
		}
		for _, c := range children {
			describe(b, c, depth+1, seen)
		}
	}
}
