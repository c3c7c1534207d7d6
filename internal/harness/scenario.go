package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/catalogsync/internal/catalog"
	"github.com/roach88/catalogsync/internal/schema"
)

// Scenario defines a sync scenario: a starting catalog, one or more sync
// runs against it, and assertions over the recorded writes and the final
// catalog.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// State is the catalog content before the first step.
	State catalog.State `yaml:"state,omitempty"`

	// Steps run in order against the same catalog.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	// Supported types: write_contains, write_order, write_count,
	// final_state, reference
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one sync run.
type Step struct {
	// Sync is the kind of the drafts.
	Sync string `yaml:"sync"`

	// Drafts holds the draft list in draft-file form. It is checked against
	// the draft schema like a file would be.
	Drafts yaml.Node `yaml:"drafts"`

	BatchSize     int  `yaml:"batch_size,omitempty"`
	AllowUUIDKeys bool `yaml:"allow_uuid_keys,omitempty"`

	// Conflicts lists keys whose first update fails with a version
	// conflict.
	Conflicts []string `yaml:"conflicts,omitempty"`

	// Reject lists keys whose writes the backend refuses as invalid.
	Reject []string `yaml:"reject,omitempty"`

	// Expect checks the statistics of the run. If nil, nothing is checked.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect holds the expected outcome of a step.
type StepExpect struct {
	Created  int `yaml:"created"`
	Updated  int `yaml:"updated"`
	UpToDate int `yaml:"up_to_date"`
	Failed   int `yaml:"failed"`
	Waiting  int `yaml:"waiting"`

	// Failures lists the keys of failed drafts, in any order.
	Failures []string `yaml:"failures,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "write_contains": a write of key appears in the trace
	// - "write_order": the first writes of keys appear in order
	// - "write_count": key is written exactly Count times
	// - "final_state": the stored entity matches Expect
	// - "reference": Field of the entity points at Target
	Type string `yaml:"type"`

	// Kind restricts the assertion to one kind. Required for final_state
	// and reference.
	Kind string `yaml:"kind,omitempty"`

	// Key is the entity key (all types but write_order).
	Key string `yaml:"key,omitempty"`

	// Operation is "create" or "update" (write_contains, write_count).
	Operation string `yaml:"operation,omitempty"`

	// Outcome is the write outcome, "ok" when empty (write_contains).
	Outcome string `yaml:"outcome,omitempty"`

	// Actions must all appear among the update actions of the write
	// (write_contains).
	Actions []string `yaml:"actions,omitempty"`

	// Keys is the expected write order (write_order).
	Keys []string `yaml:"keys,omitempty"`

	// Count is the expected number of writes (write_count).
	Count int `yaml:"count,omitempty"`

	// Expect contains expected field values (final_state).
	// Subset match: only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Absent asserts that no entity with Key exists (final_state).
	Absent bool `yaml:"absent,omitempty"`

	// Field names the reference field of the entity (reference).
	Field string `yaml:"field,omitempty"`

	// Target is the key the reference must resolve to, and TargetKind its
	// kind, defaulting to Kind (reference).
	Target     string `yaml:"target,omitempty"`
	TargetKind string `yaml:"target_kind,omitempty"`
}

// Assertion type constants.
const (
	AssertWriteContains = "write_contains"
	AssertWriteOrder    = "write_order"
	AssertWriteCount    = "write_count"
	AssertFinalState    = "final_state"
	AssertReference     = "reference"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict fields catch typos like "assertion:" vs "assertions:"
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

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Sync == "" {
			return fmt.Errorf("steps[%d]: sync is required", i)
		}
		if !slices.Contains(schema.Kinds(), step.Sync) {
			return fmt.Errorf("steps[%d]: unknown kind %q", i, step.Sync)
		}
		if step.Drafts.Kind != yaml.SequenceNode {
			return fmt.Errorf("steps[%d]: drafts must be a list", i)
		}
		if step.BatchSize < 0 {
			return fmt.Errorf("steps[%d]: batch_size must be non-negative", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertWriteContains:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for write_contains", index)
		}
	case AssertWriteOrder:
		if len(a.Keys) < 2 {
			return fmt.Errorf("assertions[%d]: keys needs at least two entries for write_order", index)
		}
	case AssertWriteCount:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for write_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for write_count", index)
		}
	case AssertFinalState:
		if a.Kind == "" || a.Key == "" {
			return fmt.Errorf("assertions[%d]: kind and key are required for final_state", index)
		}
		if a.Absent && len(a.Expect) > 0 {
			return fmt.Errorf("assertions[%d]: absent and expect are exclusive", index)
		}
	case AssertReference:
		if a.Kind == "" || a.Key == "" || a.Field == "" || a.Target == "" {
			return fmt.Errorf("assertions[%d]: kind, key, field and target are required for reference", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Operation != "" && a.Operation != OpCreate && a.Operation != OpUpdate {
		return fmt.Errorf("assertions[%d]: unknown operation %q", index, a.Operation)
	}
	return nil
}
