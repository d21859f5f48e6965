package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a formula and the cases that
// pin down its behavior.
type Scenario struct {
	// Name uniquely identifies the scenario; used as the golden file name.
	Name string `yaml:"name"`

	// Description explains what the scenario validates. Optional.
	Description string `yaml:"description,omitempty"`

	// Formula is the expression under test.
	Formula string `yaml:"formula"`

	// Cases are evaluated in order against the same parsed tree, which
	// doubles as a parse-once-execute-many check.
	Cases []Case `yaml:"cases"`
}

// Case is one evaluation of the scenario's formula.
type Case struct {
	// Bindings supplies the variable values. May be empty for
	// literal-only formulas.
	Bindings map[string]float64 `yaml:"bindings,omitempty"`

	// ExpectValue is the expected result. Exactly one of ExpectValue and
	// ExpectError must be set.
	ExpectValue *float64 `yaml:"expect_value,omitempty"`

	// ExpectError is the expected engine error code.
	ExpectError string `yaml:"expect_error,omitempty"`

	// ExpectVars optionally pins the exact first-use-ordered variable
	// list the engine must report.
	ExpectVars []string `yaml:"expect_vars,omitempty"`
}

// validate checks structural soundness before any evaluation happens.
func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if strings.TrimSpace(s.Formula) == "" {
		return fmt.Errorf("scenario %q has no formula", s.Name)
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("scenario %q has no cases", s.Name)
	}
	for i, c := range s.Cases {
		hasValue := c.ExpectValue != nil
		hasError := c.ExpectError != ""
		if hasValue == hasError {
			return fmt.Errorf("scenario %q case %d: exactly one of expect_value and expect_error must be set", s.Name, i+1)
		}
		if hasError && len(c.ExpectVars) > 0 {
			return fmt.Errorf("scenario %q case %d: expect_vars cannot be combined with expect_error", s.Name, i+1)
		}
	}
	return nil
}

// LoadScenario reads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadScenarios reads every *.yaml scenario under dir, sorted by filename.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".yaml") || strings.HasSuffix(entry.Name(), ".yml") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}
