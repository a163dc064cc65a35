// Package trace records propagator executions and renders them in a
// canonical form.
//
// Canonical JSON (RFC 8785 subset: sorted keys by UTF-16 code units, NFC
// strings, no floats, no null) is the only encoding used for digests, so
// two runs with the same execution order hash identically.
package trace
