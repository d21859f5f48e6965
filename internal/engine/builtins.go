package engine

import "math"

// builtin describes one entry in the builtin function table.
//
// Strict builtins receive their already-evaluated arguments through Apply.
// Lazy builtins (only IF) are dispatched on unevaluated subtrees inside the
// executor, so Apply is nil for them; the table entry still carries the
// arity so unknown-name and wrong-arity faults are reported uniformly.
type builtin struct {
	Arity int
	Lazy  bool
	Apply func(args []float64) float64
}

// builtins is the process-wide builtin function table. It is built once at
// package initialization and never mutated afterwards, which makes it safe
// to read from concurrent evaluations.
var builtins = map[string]builtin{
	"MIN": {Arity: 2, Apply: func(args []float64) float64 {
		return math.Min(args[0], args[1])
	}},
	"MAX": {Arity: 2, Apply: func(args []float64) float64 {
		return math.Max(args[0], args[1])
	}},
	// ROUND(value, decimalPlaces) rounds half away from zero at the given
	// number of decimal places. Negative places round to tens, hundreds, ...
	"ROUND": {Arity: 2, Apply: func(args []float64) float64 {
		shift := math.Pow(10, math.Trunc(args[1]))
		return math.Round(args[0]*shift) / shift
	}},
	"FLOOR": {Arity: 1, Apply: func(args []float64) float64 {
		return math.Floor(args[0])
	}},
	"CEIL": {Arity: 1, Apply: func(args []float64) float64 {
		return math.Ceil(args[0])
	}},
	"ABS": {Arity: 1, Apply: func(args []float64) float64 {
		return math.Abs(args[0])
	}},
	// IF(cond, a, b) behaves exactly like the ?: operator: only the branch
	// selected by cond's truthiness is evaluated.
	"IF": {Arity: 3, Lazy: true},
}

// Builtins lists the builtin function names in no particular order. Used by
// tooling (CLI help, rulepack validation messages); the engine itself
// dispatches on the table directly.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	return names
}
