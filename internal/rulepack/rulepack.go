package rulepack

import (
	"fmt"
	"sort"

	"github.com/tallyops/formula/internal/ast"
	"github.com/tallyops/formula/internal/parser"
)

// FormulaTest is an authoring-time test case attached to a formula in its
// pack. Exactly one of Expect or ExpectError is set.
type FormulaTest struct {
	// Bindings supplies the variable values for the case.
	Bindings map[string]float64

	// Expect is the expected numeric result.
	Expect *float64

	// ExpectError names the expected engine error code (e.g.
	// "DIVISION_BY_ZERO") when the case should fault.
	ExpectError string
}

// FormulaSpec is one named formula declared in a pack.
type FormulaSpec struct {
	// Name is the formula's key in the pack.
	Name string

	// Expression is the formula source text.
	Expression string

	// Description explains what the formula computes. Optional.
	Description string

	// Tests holds the pack-declared test cases. Optional.
	Tests []FormulaTest
}

// Pack is a loaded formula pack. Formulas are ordered by name so every
// consumer (validation output, batch runs, golden files) sees the same
// deterministic order regardless of file layout.
type Pack struct {
	// Name identifies the pack, derived from the directory name.
	Name string

	// Formulas lists the declared formulas in name order.
	Formulas []FormulaSpec
}

// Formula returns the spec with the given name, or false.
func (p *Pack) Formula(name string) (FormulaSpec, bool) {
	for _, f := range p.Formulas {
		if f.Name == name {
			return f, true
		}
	}
	return FormulaSpec{}, false
}

// CompiledPack is a Pack whose expressions have all been parsed. The tree
// for each formula is built once here and shared read-only across every
// evaluation - the parse-once, execute-many path for batch runs.
type CompiledPack struct {
	Pack

	// trees maps formula name to its parsed tree.
	trees map[string]ast.Node
}

// Tree returns the parsed tree for a formula name, or false.
func (cp *CompiledPack) Tree(name string) (ast.Node, bool) {
	node, ok := cp.trees[name]
	return node, ok
}

// Compile parses every formula in the pack. A syntax fault in any formula
// fails the whole pack: a tenant pack with an unparsable formula must never
// reach a payroll run.
func (p *Pack) Compile() (*CompiledPack, error) {
	trees := make(map[string]ast.Node, len(p.Formulas))
	for _, f := range p.Formulas {
		node, err := parser.Parse(f.Expression)
		if err != nil {
			return nil, fmt.Errorf("formula %q: %w", f.Name, err)
		}
		trees[f.Name] = node
	}
	return &CompiledPack{Pack: *p, trees: trees}, nil
}

// sortFormulas orders formulas by name, in place.
func sortFormulas(formulas []FormulaSpec) {
	sort.Slice(formulas, func(i, j int) bool {
		return formulas[i].Name < formulas[j].Name
	})
}
