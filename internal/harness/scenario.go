package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/luozhenyu/pgfulltext/internal/fterr"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is the text search configuration. Empty means unset, which
	// lets scenarios exercise CONFIGURATION_MISSING.
	Config string `yaml:"config"`

	// Prefix is the table prefix applied to DDL and default index names.
	Prefix string `yaml:"prefix,omitempty"`

	// Table is the table DDL steps operate on.
	Table string `yaml:"table"`

	// Columns are the default search and index columns.
	Columns []string `yaml:"columns"`

	// QuoteColumns quotes columns in predicates the way DDL does.
	QuoteColumns bool `yaml:"quote_columns,omitempty"`

	// Flow is executed in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the whole trace after the flow.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Flow step operations.
const (
	OpSearch        = "search"
	OpSearchTsQuery = "search_tsquery"
	OpMatch         = "match"
	OpRank          = "rank"
	OpCreate        = "create"
	OpFulltext      = "fulltext"
	OpDropFulltext  = "drop_fulltext"
)

// ColumnDef declares a column for the create op.
type ColumnDef struct {
	Name     string  `yaml:"name"`
	Type     string  `yaml:"type"`
	Nullable bool    `yaml:"nullable,omitempty"`
	Default  *string `yaml:"default,omitempty"`
}

// FlowStep is one builder or compiler call.
type FlowStep struct {
	Op string `yaml:"op"`

	// Keywords for search, search_tsquery, match and rank.
	Keywords string `yaml:"keywords,omitempty"`

	// Mode for match: plain or structured.
	Mode string `yaml:"mode,omitempty"`

	// Columns overrides the scenario columns for this step.
	Columns []string `yaml:"columns,omitempty"`

	// Index names the index for fulltext and drop_fulltext.
	Index string `yaml:"index,omitempty"`

	// Algorithm overrides the index access method; "" omits the using clause.
	Algorithm *string `yaml:"algorithm,omitempty"`

	// Definitions and Inherits describe the table for create.
	Definitions []ColumnDef `yaml:"definitions,omitempty"`
	Inherits    []string    `yaml:"inherits,omitempty"`

	// Expect validates this step's output. Optional.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected output of a step.
type ExpectClause struct {
	SQL    string `yaml:"sql,omitempty"`
	Params []any  `yaml:"params,omitempty"`

	// Error is the expected error code (e.g. "PRECONDITION_VIOLATION").
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace.
type Assertion struct {
	// Type: trace_contains, trace_count, keywords_bound, shared_document.
	Type string `yaml:"type"`

	// Contains is the SQL fragment for trace_contains.
	Contains string `yaml:"contains,omitempty"`

	// Op filters trace_contains and trace_count.
	Op string `yaml:"op,omitempty"`

	// Count for trace_count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains  = "trace_contains"
	AssertTraceCount     = "trace_count"
	AssertKeywordsBound  = "keywords_bound"
	AssertSharedDocument = "shared_document"
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

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by path.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
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

	for i, step := range s.Flow {
		if err := validateStep(i, s, &step); err != nil {
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

func validateStep(i int, s *Scenario, step *FlowStep) error {
	switch step.Op {
	case OpSearch, OpSearchTsQuery, OpMatch, OpRank:
	case OpCreate, OpFulltext, OpDropFulltext:
		if s.Table == "" {
			return fmt.Errorf("flow[%d]: table is required for %s", i, step.Op)
		}
	case "":
		return fmt.Errorf("flow[%d]: op is required", i)
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", i, step.Op)
	}

	if step.Expect != nil {
		if step.Expect.Error != "" && step.Expect.SQL != "" {
			return fmt.Errorf("flow[%d].expect: sql and error are mutually exclusive", i)
		}
		if step.Expect.Error != "" && !knownCode(step.Expect.Error) {
			return fmt.Errorf("flow[%d].expect: unknown error code %q", i, step.Expect.Error)
		}
	}
	return nil
}

func knownCode(code string) bool {
	switch fterr.Code(strings.ToUpper(code)) {
	case fterr.CodePrecondition, fterr.CodeEscaping, fterr.CodeConfigMissing, fterr.CodeQuoting:
		return true
	}
	return false
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertKeywordsBound, AssertSharedDocument:
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
