// Package harness provides conformance testing for propagation strategies.
//
// The harness builds a graph model from a scenario, compiles its strategy,
// replays a sequence of domain events through the engine and validates the
// resulting domain and trace.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	strategy: strategies/by_priority.cue
//	graph:
//	  nodes: 4
//	  edges: [[0, 1], [1, 2], [2, 3]]
//	  kernel_nodes: [0]
//	constraints:
//	  - type: degree_at_least
//	    degree: 1
//	  - type: degree_at_most
//	    degree: 2
//	    nodes: [1, 2]
//	initial: true
//	events:
//	  - op: remove_edge
//	    edge: [0, 1]
//	expect:
//	  outcome: contradiction
//	assertions:
//	  - type: step_order
//	    props: [deg_at_least, deg_at_most]
//	  - type: no_step
//	    prop: deg_at_most
//
// The strategy path is relative to the scenario file. strategy_inline
// holds CUE text instead; without either the default engine is used.
//
// # Events
//
// Events are applied to the graph with no cause, as a search decision
// would be, and each one is followed by a propagation. A contradiction
// ends the scenario.
//
// # Assertion Types
//
//   - step_order: the propagators first run in this order
//   - step_count: a propagator (or, without prop, the whole run) executes
//     exactly count times
//   - no_step: a propagator never executes
//
// # Golden Files
//
// RunWithGolden compares the canonical trace against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
