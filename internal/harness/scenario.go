package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Strategy is the path to a CUE strategy file.
	// Relative paths are resolved against the scenario file location.
	Strategy string `yaml:"strategy,omitempty"`

	// StrategyInline holds the strategy as CUE text.
	StrategyInline string `yaml:"strategy_inline,omitempty"`

	Graph GraphSpec `yaml:"graph"`

	Constraints []ConstraintSpec `yaml:"constraints"`

	// Initial runs the coarse initial propagation before any event.
	Initial bool `yaml:"initial,omitempty"`

	Events []EventSpec `yaml:"events,omitempty"`

	Expect ExpectClause `yaml:"expect"`

	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is a fixed run id for deterministic tests.
	// If empty, defaults to "test-run-default" for golden file comparison.
	RunID string `yaml:"run_id,omitempty"`

	// MaxSteps overrides the engine step quota.
	MaxSteps int `yaml:"max_steps,omitempty"`
}

// GraphSpec is the initial domain of the graph variable.
type GraphSpec struct {
	Nodes       int      `yaml:"nodes"`
	Edges       [][2]int `yaml:"edges"`
	KernelNodes []int    `yaml:"kernel_nodes,omitempty"`
	KernelEdges [][2]int `yaml:"kernel_edges,omitempty"`
}

// ConstraintSpec declares one degree propagator.
type ConstraintSpec struct {
	// Type is degree_at_least or degree_at_most.
	Type string `yaml:"type"`

	// Name defaults to the type followed by the constraint index.
	Name string `yaml:"name,omitempty"`

	Degree int `yaml:"degree"`

	// Nodes restricts the bound to these nodes. The others get a bound that
	// never constrains: 0 for degree_at_least, the node count for
	// degree_at_most.
	Nodes []int `yaml:"nodes,omitempty"`

	// Priority overrides the propagator priority class (1 to 7).
	Priority int `yaml:"priority,omitempty"`
}

// EventSpec is one external domain modification.
type EventSpec struct {
	// Op is remove_edge, enforce_edge, remove_node or enforce_node.
	Op   string `yaml:"op"`
	Node int    `yaml:"node,omitempty"`
	Edge [2]int `yaml:"edge,omitempty"`
}

// ExpectClause specifies the expected end state.
type ExpectClause struct {
	// Outcome is fixpoint or contradiction.
	Outcome string `yaml:"outcome"`

	// KernelEdges and EnvelopeEdges are compared exactly when set.
	KernelEdges   [][2]int `yaml:"kernel_edges,omitempty"`
	EnvelopeEdges [][2]int `yaml:"envelope_edges,omitempty"`

	// EnvelopeNodes is compared exactly when set.
	EnvelopeNodes []int `yaml:"envelope_nodes,omitempty"`
}

// Assertion validates the execution trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "step_order": Check propagators first run in order
	// - "step_count": Check executions of prop (or all) equal count
	// - "no_step": Check prop never runs
	Type string `yaml:"type"`

	// Prop is the propagator name (used by step_count, no_step).
	Prop string `yaml:"prop,omitempty"`

	// Props is the expected propagator order (used by step_order).
	Props []string `yaml:"props,omitempty"`

	// Count is the expected number of executions (used by step_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertStepOrder = "step_order"
	AssertStepCount = "step_count"
	AssertNoStep    = "no_step"
)

// Constraint type constants.
const (
	ConstraintDegreeAtLeast = "degree_at_least"
	ConstraintDegreeAtMost  = "degree_at_most"
)

// Event op constants.
const (
	OpRemoveEdge  = "remove_edge"
	OpEnforceEdge = "enforce_edge"
	OpRemoveNode  = "remove_node"
	OpEnforceNode = "enforce_node"
)

// Outcome constants.
const (
	OutcomeFixpoint      = "fixpoint"
	OutcomeContradiction = "contradiction"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// The strategy path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving the strategy path against
// baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "event:" vs "events:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve strategy path BEFORE validation
	if scenario.Strategy != "" && !filepath.IsAbs(scenario.Strategy) && baseDir != "" {
		scenario.Strategy = filepath.Join(baseDir, scenario.Strategy)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Strategy != "" && s.StrategyInline != "" {
		return fmt.Errorf("strategy and strategy_inline are mutually exclusive")
	}
	if s.Strategy != "" {
		if _, err := os.Stat(s.Strategy); os.IsNotExist(err) {
			return fmt.Errorf("strategy file not found: %s", s.Strategy)
		}
	}
	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	if err := validateGraph(s.Graph); err != nil {
		return err
	}

	if len(s.Constraints) == 0 {
		return fmt.Errorf("constraints list is required and must be non-empty")
	}
	for i, c := range s.Constraints {
		if err := validateConstraint(i, c, s.Graph.Nodes); err != nil {
			return err
		}
	}

	for i, e := range s.Events {
		if err := validateEvent(i, e); err != nil {
			return err
		}
	}

	switch s.Expect.Outcome {
	case OutcomeFixpoint, OutcomeContradiction:
	case "":
		return fmt.Errorf("expect.outcome is required")
	default:
		return fmt.Errorf("expect.outcome: unknown outcome %q", s.Expect.Outcome)
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateGraph(g GraphSpec) error {
	if g.Nodes <= 0 {
		return fmt.Errorf("graph.nodes must be positive")
	}
	inRange := func(i int) bool { return i >= 0 && i < g.Nodes }
	for i, e := range g.Edges {
		if !inRange(e[0]) || !inRange(e[1]) || e[0] == e[1] {
			return fmt.Errorf("graph.edges[%d]: invalid edge %v", i, e)
		}
	}
	for i, n := range g.KernelNodes {
		if !inRange(n) {
			return fmt.Errorf("graph.kernel_nodes[%d]: node %d out of range", i, n)
		}
	}
	for i, e := range g.KernelEdges {
		if !inRange(e[0]) || !inRange(e[1]) || e[0] == e[1] {
			return fmt.Errorf("graph.kernel_edges[%d]: invalid edge %v", i, e)
		}
	}
	return nil
}

func validateConstraint(index int, c ConstraintSpec, nodes int) error {
	switch c.Type {
	case ConstraintDegreeAtLeast, ConstraintDegreeAtMost:
	case "":
		return fmt.Errorf("constraints[%d]: type is required", index)
	default:
		return fmt.Errorf("constraints[%d]: unknown constraint type %q", index, c.Type)
	}
	if c.Degree < 0 {
		return fmt.Errorf("constraints[%d]: degree must be non-negative", index)
	}
	if c.Priority < 0 || c.Priority > 7 {
		return fmt.Errorf("constraints[%d]: priority must be between 1 and 7", index)
	}
	for _, n := range c.Nodes {
		if n < 0 || n >= nodes {
			return fmt.Errorf("constraints[%d]: node %d out of range", index, n)
		}
	}
	return nil
}

func validateEvent(index int, e EventSpec) error {
	switch e.Op {
	case OpRemoveEdge, OpEnforceEdge, OpRemoveNode, OpEnforceNode:
		return nil
	case "":
		return fmt.Errorf("events[%d]: op is required", index)
	}
	return fmt.Errorf("events[%d]: unknown op %q", index, e.Op)
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStepOrder:
		if len(a.Props) == 0 {
			return fmt.Errorf("assertions[%d]: props list is required for step_order", index)
		}
	case AssertStepCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for step_count", index)
		}
	case AssertNoStep:
		if a.Prop == "" {
			return fmt.Errorf("assertions[%d]: prop is required for no_step", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
