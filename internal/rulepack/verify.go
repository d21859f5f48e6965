package rulepack

import (
	"fmt"
	"math"

	"github.com/tallyops/formula/internal/engine"
)

// verifyTolerance is the slack allowed between a test's declared expect
// value and the evaluated result. Pack tests are authored with rounded
// decimal expectations, so bitwise equality would be hostile.
const verifyTolerance = 1e-9

// Verify runs every pack-declared test case through the engine and returns
// one error per failing case. An empty slice means the pack's own examples
// all hold - the authoring-time safety net before a pack is activated for
// a tenant.
func (cp *CompiledPack) Verify() []error {
	var failures []error

	for _, f := range cp.Formulas {
		tree, ok := cp.Tree(f.Name)
		if !ok {
			// Compile() builds a tree per formula; missing means the pack
			// was constructed by hand.
			failures = append(failures, fmt.Errorf("formula %q: no compiled tree", f.Name))
			continue
		}

		for i, tc := range f.Tests {
			result, err := engine.Execute(tree, tc.Bindings)

			switch {
			case tc.ExpectError != "":
				if err == nil {
					failures = append(failures, fmt.Errorf(
						"formula %q test %d: expected error %s, got value %v",
						f.Name, i, tc.ExpectError, result.Value))
					continue
				}
				if got := string(engine.CodeOf(err)); got != tc.ExpectError {
					failures = append(failures, fmt.Errorf(
						"formula %q test %d: expected error %s, got %s",
						f.Name, i, tc.ExpectError, got))
				}

			case err != nil:
				failures = append(failures, fmt.Errorf(
					"formula %q test %d: unexpected error: %w", f.Name, i, err))

			case math.Abs(result.Value-*tc.Expect) > verifyTolerance:
				failures = append(failures, fmt.Errorf(
					"formula %q test %d: expected %v, got %v",
					f.Name, i, *tc.Expect, result.Value))
			}
		}
	}

	return failures
}
