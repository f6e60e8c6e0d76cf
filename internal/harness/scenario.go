package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario is a sequence of adapter operations with expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is casbin model text. Empty means DefaultModel.
	Model string `yaml:"model,omitempty"`

	// Table overrides the policy table name.
	Table string `yaml:"table,omitempty"`

	// Setup establishes initial rows. Setup steps must succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the sequence under test.
	Flow []Step `yaml:"flow"`

	// Assertions are checked after the flow.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one adapter call. Which fields are read depends on Op.
type Step struct {
	Op    string `yaml:"op"`
	PType string `yaml:"ptype,omitempty"`

	Rule     []string   `yaml:"rule,omitempty"`
	Rules    [][]string `yaml:"rules,omitempty"`
	NewRule  []string   `yaml:"new_rule,omitempty"`
	NewRules [][]string `yaml:"new_rules,omitempty"`

	// FieldIndex and Values select a field window.
	FieldIndex int      `yaml:"field_index,omitempty"`
	Values     []string `yaml:"values,omitempty"`

	// Filter is a "column=value" expression. FilterColumns and FilterValues
	// build a casbinsql.Filter instead.
	Filter        string   `yaml:"filter,omitempty"`
	FilterColumns []string `yaml:"filter_columns,omitempty"`
	FilterValues  []string `yaml:"filter_values,omitempty"`

	// Lines are the policy lines save_policy writes, ptype first.
	Lines [][]string `yaml:"lines,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a flow step.
type Expect struct {
	// Error is the expected adapter error code. Empty means success.
	Error string `yaml:"error,omitempty"`

	// Removed is compared with the rules update_filtered_policies returns.
	Removed [][]string `yaml:"removed,omitempty"`

	// Loaded is compared with the lines a load leaves in the model.
	Loaded [][]string `yaml:"loaded,omitempty"`
}

// Assertion validates the adapter after the flow.
type Assertion struct {
	Type     string     `yaml:"type"`
	Rows     [][]string `yaml:"rows,omitempty"`
	Count    int        `yaml:"count,omitempty"`
	Filtered bool       `yaml:"filtered,omitempty"`
}

// Assertion type constants.
const (
	AssertTableRows  = "table_rows"
	AssertTableCount = "table_count"
	AssertFiltered   = "filtered"
)

// Operation names.
const (
	OpAddPolicy              = "add_policy"
	OpAddPolicies            = "add_policies"
	OpRemovePolicy           = "remove_policy"
	OpRemovePolicies         = "remove_policies"
	OpRemoveFilteredPolicy   = "remove_filtered_policy"
	OpUpdatePolicy           = "update_policy"
	OpUpdatePolicies         = "update_policies"
	OpUpdateFilteredPolicies = "update_filtered_policies"
	OpLoadPolicy             = "load_policy"
	OpLoadFilteredPolicy     = "load_filtered_policy"
	OpSavePolicy             = "save_policy"
)

var validOps = []string{
	OpAddPolicy, OpAddPolicies, OpRemovePolicy, OpRemovePolicies,
	OpRemoveFilteredPolicy, OpUpdatePolicy, OpUpdatePolicies,
	OpUpdateFilteredPolicies, OpLoadPolicy, OpLoadFilteredPolicy, OpSavePolicy,
}

var validAssertions = []string{AssertTableRows, AssertTableCount, AssertFiltered}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if !slices.Contains(validAssertions, a.Type) {
			return fmt.Errorf("assertions[%d]: unknown type %q, must be one of %v", i, a.Type, validAssertions)
		}
	}

	return nil
}

func validateStep(step Step) error {
	if !slices.Contains(validOps, step.Op) {
		return fmt.Errorf("unknown op %q, must be one of %v", step.Op, validOps)
	}
	switch step.Op {
	case OpLoadPolicy, OpLoadFilteredPolicy, OpSavePolicy:
	default:
		if step.PType == "" {
			return fmt.Errorf("%s requires ptype", step.Op)
		}
	}
	return nil
}
