// Package engine drives propagation over a compiled generator tree.
//
// ARCHITECTURE:
//
// Variables report domain events to the engine through cp.Notifier. The
// engine schedules the leaves of every arc on the variable whose
// propagation conditions match, and the readiness signal travels up the
// tree. Propagate then runs the root generator until nothing is ready.
//
// The engine is single-threaded. A contradiction stops the pass, pending
// work is flushed and the contradiction is returned to the caller
// unchanged; it is a normal outcome, not an engine failure.
//
// CRITICAL PATTERNS:
//
// Logical Clock
// Every propagator execution is stamped with a monotonic seq from Clock.
// Wall-clock time is never used for ordering.
//
// Deterministic Scheduling
// Arcs are created in propagator declaration order and generators break
// ties by insertion order, so the same events and strategy always yield
// the same execution sequence.
package engine
