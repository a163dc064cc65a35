package testutil

import (
	"fmt"

	"github.com/roach88/arcflow/internal/cp"
)

// Recorder collects the names of executed propagators in execution order.
type Recorder struct {
	calls []string
}

// Record appends one execution.
func (r *Recorder) Record(name string) {
	r.calls = append(r.calls, name)
}

// Calls returns a copy of the recorded executions.
func (r *Recorder) Calls() []string {
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset clears the recording.
func (r *Recorder) Reset() {
	r.calls = r.calls[:0]
}

// ScriptedProp is a propagator whose filtering is a test-supplied function.
//
// Each execution is recorded as "name" (coarse) or "name@varName"
// (incremental) in the shared Recorder.
type ScriptedProp struct {
	cp.BasePropagator

	// Conditions is returned for every variable index. Zero means cp.FullMask.
	Conditions cp.EventMask

	// OnPropagate runs on every execution. varIdx is -1 for coarse calls.
	OnPropagate func(p *ScriptedProp, varIdx int, mask cp.EventMask) error

	// Dyn overrides DynamicPriority when non-zero.
	Dyn int

	Rec   *Recorder
	Calls int
}

// NewScriptedProp creates a scripted propagator over vars.
func NewScriptedProp(id int, name string, pr cp.Priority, rec *Recorder, vars ...cp.Variable) *ScriptedProp {
	return &ScriptedProp{
		BasePropagator: cp.NewBasePropagator(id, name, id, pr, vars...),
		Rec:            rec,
	}
}

func (p *ScriptedProp) DynamicPriority() int {
	if p.Dyn != 0 {
		return p.Dyn
	}
	return p.BasePropagator.DynamicPriority()
}

func (p *ScriptedProp) PropagationConditions(int) cp.EventMask {
	if p.Conditions == 0 {
		return cp.FullMask
	}
	return p.Conditions
}

func (p *ScriptedProp) Propagate(mask cp.EventMask) error {
	return p.run(-1, mask)
}

func (p *ScriptedProp) PropagateOn(varIdx int, mask cp.EventMask) error {
	return p.run(varIdx, mask)
}

func (p *ScriptedProp) IsEntailed() cp.ESat { return cp.Undefined }

func (p *ScriptedProp) run(varIdx int, mask cp.EventMask) error {
	p.Calls++
	if p.Rec != nil {
		if varIdx < 0 {
			p.Rec.Record(p.Name())
		} else {
			p.Rec.Record(fmt.Sprintf("%s@%s", p.Name(), p.Vars()[varIdx].Name()))
		}
	}
	if p.OnPropagate == nil {
		return nil
	}
	return p.OnPropagate(p, varIdx, mask)
}

// Narrower returns an OnPropagate hook that shrinks the watched variable by
// one value per execution until it holds floor values. It only narrows, so a
// set of Narrowers always reaches a fixpoint.
func Narrower(floor int) func(p *ScriptedProp, varIdx int, mask cp.EventMask) error {
	return func(p *ScriptedProp, varIdx int, _ cp.EventMask) error {
		vars := p.Vars()
		if varIdx >= 0 {
			vars = vars[varIdx : varIdx+1]
		}
		for _, v := range vars {
			iv, ok := v.(*IntVar)
			if !ok || iv.Cardinality() <= floor {
				continue
			}
			if _, err := iv.Shrink(1, p); err != nil {
				return err
			}
		}
		return nil
	}
}
