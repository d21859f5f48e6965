package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is the sealed interface implemented by every formula node kind.
// Only Literal, Variable, Unary, Binary, Ternary, and Call implement it.
type Node interface {
	node() // Sealed - only the types in this package implement it.

	// String renders the node as a fully parenthesized formula fragment.
	// The rendering is canonical: two trees render identically iff they
	// are structurally identical, which makes it usable in golden files.
	String() string
}

// UnaryOp identifies a unary operator.
type UnaryOp int

const (
	// OpNeg is arithmetic negation (unary minus).
	OpNeg UnaryOp = iota
	// OpNot is logical negation under the 0/nonzero truthiness convention.
	OpNot
)

// String returns the operator's surface syntax.
func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNot:
		return "NOT"
	default:
		return fmt.Sprintf("UnaryOp(%d)", int(op))
	}
}

// BinaryOp identifies a binary operator.
type BinaryOp int

const (
	// Arithmetic
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod

	// Comparison (results are 1 or 0 - the language has no boolean type)
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte

	// Logical (short-circuiting)
	OpAnd
	OpOr
)

// String returns the operator's surface syntax.
func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	default:
		return fmt.Sprintf("BinaryOp(%d)", int(op))
	}
}

// Literal is a numeric constant.
type Literal struct {
	Value float64
}

func (Literal) node() {}

// String renders the literal with the shortest round-trippable form.
func (l Literal) String() string {
	return strconv.FormatFloat(l.Value, 'g', -1, 64)
}

// Variable is a reference to a named binding supplied at evaluation time.
// The parser does not know which names will exist; resolution is the
// executor's job.
type Variable struct {
	Name string
}

func (Variable) node() {}

func (v Variable) String() string {
	return v.Name
}

// Unary applies a unary operator to a single operand.
type Unary struct {
	Op      UnaryOp
	Operand Node
}

func (Unary) node() {}

func (u Unary) String() string {
	if u.Op == OpNot {
		return fmt.Sprintf("(NOT %s)", u.Operand)
	}
	return fmt.Sprintf("(-%s)", u.Operand)
}

// Binary applies a binary operator to a left and right operand.
type Binary struct {
	Op    BinaryOp
	Left  Node
	Right Node
}

func (Binary) node() {}

func (b Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// Ternary is conditional selection. Only the branch chosen by Cond's
// truthiness is evaluated; the other branch is never touched.
type Ternary struct {
	Cond Node
	Then Node
	Else Node
}

func (Ternary) node() {}

func (t Ternary) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", t.Cond, t.Then, t.Else)
}

// Call invokes a builtin function by name with ordered arguments. Whether
// the name exists and the argument count matches is checked by the executor
// against the builtin table, not by the parser.
type Call struct {
	Name string
	Args []Node
}

func (Call) node() {}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

// Depth returns the height of the tree rooted at n. A lone literal or
// variable has depth 1. The parser uses this to reject pathologically
// nested formulas before they can exhaust the evaluation stack.
func Depth(n Node) int {
	switch t := n.(type) {
	case Literal, Variable:
		return 1
	case Unary:
		return 1 + Depth(t.Operand)
	case Binary:
		return 1 + max(Depth(t.Left), Depth(t.Right))
	case Ternary:
		return 1 + max(Depth(t.Cond), max(Depth(t.Then), Depth(t.Else)))
	case Call:
		d := 0
		for _, a := range t.Args {
			d = max(d, Depth(a))
		}
		return 1 + d
	default:
		return 1
	}
}
