package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/linmx0130/yoshino/internal/cond"
	"github.com/linmx0130/yoshino/internal/store"
	"github.com/linmx0130/yoshino/internal/store/sqlite"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the path of the CUE or YAML schema file declaring Table.
	// Paths are relative to the scenario file location.
	Schema string `yaml:"schema"`

	// Table is the declared name of the table the steps operate on.
	Table string `yaml:"table"`

	// Engine selects the SQLite engine. Empty uses the default.
	Engine sqlite.Engine `yaml:"engine,omitempty"`

	// Steps run in order against one database.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and table contents.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one adaptor operation.
type Step struct {
	// Op is one of create, insert, query, update, delete.
	Op string `yaml:"op"`

	// Values maps field names to values (insert, update).
	Values map[string]any `yaml:"values,omitempty"`

	// Where is the condition (required for update and delete, optional
	// for query).
	Where *cond.Spec `yaml:"where,omitempty"`

	// Expect validates the outcome. If nil the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Rows are the expected query rows, in order. Each row is a subset
	// match on the listed fields.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Count is the expected number of query rows.
	Count *int `yaml:"count,omitempty"`

	// Error is the expected error code, e.g. INVALID_ARGUMENT.
	Error store.ErrorCode `yaml:"error,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "statement_count": Check the trace issued Count statements for Op
	// - "final_state": Query the table and verify Rows and Count
	Type string `yaml:"type"`

	// Op is the step operation (used by statement_count).
	Op string `yaml:"op,omitempty"`

	// Where filters the final query (used by final_state).
	Where *cond.Spec `yaml:"where,omitempty"`

	// Rows are the expected rows (used by final_state).
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Count is the expected count.
	Count *int `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpCreate = "create"
	OpInsert = "insert"
	OpQuery  = "query"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Assertion type constants.
const (
	AssertStatementCount = "statement_count"
	AssertFinalState     = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// The schema path is resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}
	if _, err := os.Stat(scenario.Schema); err != nil {
		return nil, fmt.Errorf("invalid scenario: schema file not found: %s", scenario.Schema)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario without touching the file system.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
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
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if s.Table == "" {
		return fmt.Errorf("table is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertStatementCount:
			if a.Op == "" || a.Count == nil {
				return fmt.Errorf("assertions[%d]: op and count are required for statement_count", i)
			}
		case AssertFinalState:
			if a.Rows == nil && a.Count == nil {
				return fmt.Errorf("assertions[%d]: rows or count is required for final_state", i)
			}
		case "":
			return fmt.Errorf("assertions[%d]: type is required", i)
		default:
			return fmt.Errorf("assertions[%d]: unknown type %q", i, a.Type)
		}
	}
	return nil
}

func validateStep(step Step) error {
	switch step.Op {
	case OpCreate:
	case OpInsert:
		if step.Values == nil {
			return fmt.Errorf("values is required for insert")
		}
	case OpQuery:
	case OpUpdate:
		if step.Values == nil {
			return fmt.Errorf("values is required for update")
		}
		if step.Where == nil {
			return fmt.Errorf("where is required for update")
		}
	case OpDelete:
		if step.Where == nil {
			return fmt.Errorf("where is required for delete")
		}
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if step.Expect != nil && step.Op != OpQuery && (step.Expect.Rows != nil || step.Expect.Count != nil) {
		return fmt.Errorf("expect.rows and expect.count apply to query steps only")
	}
	return nil
}
