// Package rulepack loads tenant formula packs from CUE files.
//
// A pack is a directory of .cue files declaring named formulas:
//
//	formula: overtime: {
//		expression:  "overtime_hours * overtime_rate"
//		description: "Overtime pay at the contractual rate"
//		tests: [{
//			bindings: {overtime_hours: 10, overtime_rate: 37.5}
//			expect: 375
//		}]
//	}
//
// Loading decodes the CUE value into FormulaSpec records; compiling parses
// every expression once and caches the resulting tree, so a payroll run
// evaluates each formula per line without re-tokenizing. The engine itself
// neither persists nor versions formulas - packs are host-side
// configuration, and this package is the host's loader for them.
package rulepack
