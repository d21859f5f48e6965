package harness

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tallyops/formula/internal/engine"
	"github.com/tallyops/formula/internal/parser"
)

// valueTolerance is the slack allowed between a case's expected value and
// the evaluated result, matching how scenario authors write rounded
// decimal expectations.
const valueTolerance = 1e-9

// Outcome is the observed result of one case.
type Outcome struct {
	// Value is the result; meaningful only when ErrorCode is empty.
	Value float64

	// VariablesUsed is the engine's first-use-ordered variable record.
	VariablesUsed []string

	// ErrorCode is the engine error code, empty on success.
	ErrorCode string
}

// Trace captures one scenario execution: the canonical tree rendering plus
// every case outcome. Timing is deliberately excluded so renderings are
// byte-stable for golden comparison.
type Trace struct {
	Scenario *Scenario
	AST      string
	Outcomes []Outcome
}

// Run parses the scenario's formula once and evaluates every case against
// the shared tree. Returns an error for an invalid scenario or an
// unparsable formula; case-level engine faults are captured as outcomes,
// not errors.
func Run(sc *Scenario) (*Trace, error) {
	if err := sc.validate(); err != nil {
		return nil, err
	}

	tree, err := parser.Parse(sc.Formula)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	trace := &Trace{Scenario: sc, AST: tree.String()}
	for _, c := range sc.Cases {
		result, evalErr := engine.Execute(tree, c.Bindings)
		if evalErr != nil {
			trace.Outcomes = append(trace.Outcomes, Outcome{
				ErrorCode: string(engine.CodeOf(evalErr)),
			})
			continue
		}
		trace.Outcomes = append(trace.Outcomes, Outcome{
			Value:         result.Value,
			VariablesUsed: result.VariablesUsed,
		})
	}
	return trace, nil
}

// Verify checks every outcome against its case's expectations, returning
// one error per failing case.
func (tr *Trace) Verify() []error {
	var failures []error

	for i, c := range tr.Scenario.Cases {
		out := tr.Outcomes[i]

		switch {
		case c.ExpectError != "":
			if out.ErrorCode == "" {
				failures = append(failures, fmt.Errorf(
					"case %d: expected error %s, got value %v", i+1, c.ExpectError, out.Value))
			} else if out.ErrorCode != c.ExpectError {
				failures = append(failures, fmt.Errorf(
					"case %d: expected error %s, got %s", i+1, c.ExpectError, out.ErrorCode))
			}

		case out.ErrorCode != "":
			failures = append(failures, fmt.Errorf(
				"case %d: unexpected error %s", i+1, out.ErrorCode))

		case math.Abs(out.Value-*c.ExpectValue) > valueTolerance:
			failures = append(failures, fmt.Errorf(
				"case %d: expected %v, got %v", i+1, *c.ExpectValue, out.Value))
		}

		if c.ExpectVars != nil && out.ErrorCode == "" {
			if !equalVars(c.ExpectVars, out.VariablesUsed) {
				failures = append(failures, fmt.Errorf(
					"case %d: expected vars %v, got %v", i+1, c.ExpectVars, out.VariablesUsed))
			}
		}
	}

	return failures
}

func equalVars(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// Render produces the stable text form of the trace used for golden files.
func (tr *Trace) Render() []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario: %s\n", tr.Scenario.Name)
	fmt.Fprintf(&b, "formula: %s\n", tr.Scenario.Formula)
	fmt.Fprintf(&b, "ast: %s\n", tr.AST)
	for i, out := range tr.Outcomes {
		if out.ErrorCode != "" {
			fmt.Fprintf(&b, "case %d: error=%s\n", i+1, out.ErrorCode)
			continue
		}
		fmt.Fprintf(&b, "case %d: value=%s vars=%v\n",
			i+1, strconv.FormatFloat(out.Value, 'g', -1, 64), out.VariablesUsed)
	}

	return []byte(b.String())
}
