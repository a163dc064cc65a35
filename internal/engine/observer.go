package engine

import "github.com/roach88/arcflow/internal/trace"

// Observer receives every propagator execution. OnContradiction replaces
// OnStep for the execution that failed.
type Observer interface {
	OnStep(s trace.Step)
	OnContradiction(s trace.Step)
}

// StepLog is an Observer keeping every step in memory, the failing one
// included.
type StepLog struct {
	steps []trace.Step
}

func (l *StepLog) OnStep(s trace.Step) { l.steps = append(l.steps, s) }
func (l *StepLog) OnContradiction(s trace.Step) { l.steps = append(l.steps, s) }

// Steps returns the recorded steps in execution order.
func (l *StepLog) Steps() []trace.Step { return l.steps }

// Reset drops the recorded steps.
func (l *StepLog) Reset() { l.steps = nil }

// ObserverFunc adapts a function to Observer. It is called for both kinds
// of step.
type ObserverFunc func(trace.Step)

func (f ObserverFunc) OnStep(s trace.Step) { f(s) }
func (f ObserverFunc) OnContradiction(s trace.Step) { f(s) }
