package cp

// Variable is a decision variable watched by propagators.
type Variable interface {
	// ID is unique within a model and stable for its lifetime.
	ID() int
	Name() string

	// Cardinality is the current domain size.
	Cardinality() int
	Instantiated() bool

	// Observe registers the notifier that receives domain events.
	Observe(n Notifier)
}

// Notifier receives domain events. cause is the propagator that made the
// change, or nil for external (search) decisions.
type Notifier interface {
	Notify(v Variable, mask EventMask, cause Propagator)
}

// Propagator filters the domains of its variables for one constraint.
type Propagator interface {
	ID() int
	Name() string
	Vars() []Variable

	// Constraint identifies the constraint this propagator belongs to.
	// Several propagators may share one constraint.
	Constraint() int

	Priority() Priority

	// DynamicPriority may change while search proceeds. Implementations
	// without a dynamic notion return the static priority.
	DynamicPriority() int

	// PropagationConditions is the mask of events on Vars()[varIdx] that
	// must wake this propagator.
	PropagationConditions(varIdx int) EventMask

	// Propagate runs a coarse filtering pass.
	Propagate(mask EventMask) error

	// PropagateOn runs an incremental pass after events on Vars()[varIdx].
	PropagateOn(varIdx int, mask EventMask) error

	IsEntailed() ESat
}

// BasePropagator carries the identity fields shared by most propagators.
// Embed it and implement the filtering methods.
type BasePropagator struct {
	id         int
	name       string
	vars       []Variable
	constraint int
	priority   Priority
}

// NewBasePropagator returns identity fields for a propagator.
func NewBasePropagator(id int, name string, constraint int, pr Priority, vars ...Variable) BasePropagator {
	return BasePropagator{id: id, name: name, vars: vars, constraint: constraint, priority: pr}
}

func (b *BasePropagator) ID() int { return b.id }
func (b *BasePropagator) Name() string { return b.name }
func (b *BasePropagator) Vars() []Variable { return b.vars }
func (b *BasePropagator) Constraint() int { return b.constraint }
func (b *BasePropagator) Priority() Priority { return b.priority }

// SetPriority overrides the priority chosen by the propagator constructor.
// Call it before the propagator is handed to an engine.
func (b *BasePropagator) SetPriority(pr Priority) { b.priority = pr }

// DynamicPriority defaults to the static priority.
func (b *BasePropagator) DynamicPriority() int { return int(b.priority) }

// IndexOf returns the position of v in Vars(), or -1.
func (b *BasePropagator) IndexOf(v Variable) int {
	for i, w := range b.vars {
		if w.ID() == v.ID() {
			return i
		}
	}
	return -1
}
