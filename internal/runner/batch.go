package runner

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Batch is a set of payroll lines to evaluate, loaded from YAML:
//
//	lines:
//	  - label: "emp-001"
//	    bindings: {gross_pay: 5000, hours_worked: 160}
//	  - label: "emp-002"
//	    bindings: {gross_pay: 4200, hours_worked: 152}
type Batch struct {
	Lines []BatchLine `yaml:"lines"`
}

// BatchLine is one payroll line's inputs.
type BatchLine struct {
	// Label identifies the line in logs; typically an employee reference.
	// Optional.
	Label string `yaml:"label,omitempty"`

	// Bindings supplies the variable values for this line.
	Bindings map[string]float64 `yaml:"bindings"`
}

// LoadBatch reads a batch from a YAML file. Every binding must be a finite
// number: a NaN or Inf smuggled in through YAML (.nan, .inf) is rejected
// at load time with the line that carries it, rather than surfacing later
// as a per-formula engine fault.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	var batch Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}
	if len(batch.Lines) == 0 {
		return nil, fmt.Errorf("batch %s declares no lines", path)
	}

	for i, line := range batch.Lines {
		for name, value := range line.Bindings {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return nil, fmt.Errorf("batch line %d: binding %q is not finite", i+1, name)
			}
		}
	}

	return &batch, nil
}
