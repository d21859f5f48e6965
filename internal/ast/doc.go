// Package ast defines the node model for parsed payroll formulas.
//
// A formula parses into an immutable tree of Node values. The node set is
// closed: only the six kinds defined here implement the sealed Node
// interface, and each kind carries its children as named fields so arity is
// fixed by construction rather than checked at evaluation time.
//
// Nodes are never mutated after the parser returns them, which makes a
// parsed tree safe to share across concurrent evaluations and safe to keep
// in a caller-side cache (parse once, execute per payroll line).
package ast
