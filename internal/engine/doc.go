// Package engine evaluates parsed payroll formulas.
//
// The engine is a tree-walking interpreter: Execute walks an ast.Node tree
// against a per-call binding map and produces a numeric result plus
// evaluation metadata (which variables were actually read, and how long the
// walk took).
//
// DESIGN CONSTRAINTS:
//
// Purity:
// Evaluation is a pure function of (tree, bindings). The engine performs no
// I/O, never mutates the tree or the bindings, and holds no state between
// calls. A parsed tree may therefore be shared across concurrent
// evaluations with no locking, provided each call supplies its own binding
// map.
//
// Payroll safety:
// A fault never degrades into a number. Missing variables are not treated
// as zero, division by zero does not produce Inf, and a NaN or infinite
// binding is rejected before it can contaminate a result. Every fault
// aborts the evaluation immediately with a typed error; retry and
// skip-and-continue policy belongs to the caller.
//
// Laziness:
// AND and OR short-circuit, and only the taken branch of a ternary or IF is
// evaluated. Variables appearing only on an unevaluated path are neither
// required to be bound nor reported in the result metadata.
package engine
