// Package parser turns payroll formula text into an ast.Node tree.
//
// The grammar is a small numeric expression language. Precedence, lowest to
// highest:
//
//	ternary (?:)
//	logical OR  (OR, ||)
//	logical AND (AND, &&)
//	logical NOT (NOT, !)
//	equality / relational (==, !=, <, <=, >, >=)
//	additive (+, -)
//	multiplicative (*, /, %)
//	unary minus
//	primary (parenthesized expression, number, identifier, function call)
//
// Parsing is purely syntactic: the parser does not know which variables will
// be bound or which function names exist at evaluation time. All semantic
// failures (missing variable, unknown function, wrong arity) surface from
// the engine, not from here.
//
// Parsing and evaluation are split so a caller can parse a formula once and
// execute the resulting tree for every line of a payroll run without
// re-tokenizing.
package parser
