package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/shekhirin/pyrometer/internal/elem"
	"github.com/shekhirin/pyrometer/internal/engine"
)

// Scenario is one conformance run over a CUE graph.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Graph is the path to the CUE graph file.
	Graph string `yaml:"graph"`

	// SnapshotID names the stored snapshot. Defaults to
	// testutil.DefaultSnapshotID.
	SnapshotID string `yaml:"snapshot_id,omitempty"`

	// Checks run in order; each reduces one named expression.
	Checks []Check `yaml:"checks"`

	// Assertions validate the trace and the evaluation log after all checks.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Check reduces one named expression and compares what came out.
type Check struct {
	// Expr names an entry of the graph's exprs block.
	Expr string `yaml:"expr"`

	// Mode is "eval" (default) or "simplify".
	Mode string `yaml:"mode,omitempty"`

	// Rewrite retargets references, variable name to variable name, before
	// reduction. The graph's own expression is not modified.
	Rewrite map[string]string `yaml:"rewrite,omitempty"`

	// Expect is the reduced element rendered with variable names.
	Expect *string `yaml:"expect,omitempty"`

	// Outcome is resolved, symbolic or empty.
	Outcome string `yaml:"outcome,omitempty"`

	// Deps lists the distinct variable names the expression refers to, in
	// id order.
	Deps []string `yaml:"deps,omitempty"`

	// EqualTo names a second expression; Equal is the expected result of
	// comparing both for equality.
	EqualTo string `yaml:"equal_to,omitempty"`
	Equal   *bool  `yaml:"equal,omitempty"`

	// OrderTo names a second expression; Order is the expected ordering of
	// their evaluated forms.
	OrderTo string `yaml:"order_to,omitempty"`
	Order   string `yaml:"order,omitempty"`
}

// Assertion validates the trace or the evaluation log.
type Assertion struct {
	// Type is one of outcome_count, recorded_count, replay_clean.
	Type string `yaml:"type"`

	// Outcome filters trace events (used by outcome_count).
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of matches.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcomeCount  = "outcome_count"
	AssertRecordedCount = "recorded_count"
	AssertReplayClean   = "replay_clean"
)

// Order values.
const (
	OrderLess         = "less"
	OrderEqual        = "equal"
	OrderGreater      = "greater"
	OrderIncomparable = "incomparable"
)

// LoadScenario reads and parses a scenario YAML file. The graph path is
// resolved relative to the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if s.Graph != "" && !filepath.IsAbs(s.Graph) {
		s.Graph = filepath.Join(filepath.Dir(path), s.Graph)
	}
	if _, err := os.Stat(s.Graph); os.IsNotExist(err) {
		return nil, fmt.Errorf("invalid scenario: graph file not found: %s", s.Graph)
	}

	return s, nil
}

// ParseScenario decodes and validates scenario YAML. Unknown fields are
// rejected. The graph path is not resolved or checked.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Graph == "" {
		return fmt.Errorf("graph is required")
	}
	if len(s.Checks) == 0 {
		return fmt.Errorf("checks list is required and must be non-empty")
	}

	for i, c := range s.Checks {
		if err := validateCheck(i, &c); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateCheck(index int, c *Check) error {
	if c.Expr == "" {
		return fmt.Errorf("checks[%d]: expr is required", index)
	}
	if c.Mode != "" {
		if _, ok := elem.ParseMode(c.Mode); !ok {
			return fmt.Errorf("checks[%d]: unknown mode %q", index, c.Mode)
		}
	}
	switch engine.Outcome(c.Outcome) {
	case "", engine.OutcomeResolved, engine.OutcomeSymbolic, engine.OutcomeEmpty:
	default:
		return fmt.Errorf("checks[%d]: unknown outcome %q", index, c.Outcome)
	}
	if (c.EqualTo == "") != (c.Equal == nil) {
		return fmt.Errorf("checks[%d]: equal_to and equal must be given together", index)
	}
	if (c.OrderTo == "") != (c.Order == "") {
		return fmt.Errorf("checks[%d]: order_to and order must be given together", index)
	}
	switch c.Order {
	case "", OrderLess, OrderEqual, OrderGreater, OrderIncomparable:
	default:
		return fmt.Errorf("checks[%d]: unknown order %q", index, c.Order)
	}
	for from, to := range c.Rewrite {
		if from == "" || to == "" {
			return fmt.Errorf("checks[%d]: rewrite entries need both names", index)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutcomeCount:
		if a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: outcome is required for outcome_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for outcome_count", index)
		}
	case AssertRecordedCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for recorded_count", index)
		}
	case AssertReplayClean:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
