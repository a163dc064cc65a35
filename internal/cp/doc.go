// Package cp defines the contract between the propagation scheduler and the
// variables and propagators it drives.
//
// A Propagator reacts to a fixed list of Variables. When a variable's domain
// changes it reports the change to its Notifier (the engine) with an EventMask.
// The engine decides when each interested propagator runs.
//
// Contradictions are ordinary error values (*ContradictionError). Callers
// unwind on them and restore state; nothing in this module rolls back domains.
package cp
