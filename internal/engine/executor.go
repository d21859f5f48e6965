package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/tallyops/formula/internal/ast"
)

// Epsilon is the tolerance used by the == and != operators. A comparison
// holds when |a-b| <= Epsilon * max(1, |a|, |b|): absolute near zero, so
// 0.1+0.2 == 0.3 holds, and relative for large magnitudes, so two
// year-to-date totals that differ by one ULP still compare equal while an
// intentional cent of difference does not.
const Epsilon = 1e-9

// Result is the outcome of one successful evaluation.
type Result struct {
	// Value is the numeric result.
	Value float64

	// VariablesUsed lists the variable names dereferenced on the taken
	// evaluation path, in first-use order, deduplicated. Variables
	// appearing only in short-circuited operands or untaken branches are
	// not listed.
	VariablesUsed []string

	// ExecutionTime is the wall time of the tree walk, sampled from the
	// monotonic clock. Always >= 0.
	ExecutionTime time.Duration
}

// Execute evaluates a parsed formula against bindings.
//
// The bindings map is read-only to the engine and must contain a finite
// value for every variable dereferenced on the taken evaluation path.
// Execute never substitutes a default for a fault: missing variables,
// non-finite values, unknown functions, wrong arities, zero divisors, and
// malformed trees all abort immediately with a typed error
// (*ExecutionError, or *DivisionByZeroError for / and % by zero).
//
// Apart from the ExecutionTime sample the call is a pure function of its
// inputs, so the same tree and bindings always produce the same Value and
// VariablesUsed.
func Execute(node ast.Node, bindings map[string]float64) (*Result, error) {
	if node == nil {
		return nil, &ExecutionError{
			Code:    ErrCodeInvalidNode,
			Message: "cannot execute nil formula tree",
		}
	}

	start := time.Now()
	ex := &executor{bindings: bindings}
	value, err := ex.eval(node)
	if err != nil {
		return nil, err
	}

	return &Result{
		Value:         value,
		VariablesUsed: ex.used,
		ExecutionTime: time.Since(start),
	}, nil
}

// executor holds the per-call evaluation state: the bindings and the
// first-use-ordered record of dereferenced variables.
type executor struct {
	bindings map[string]float64
	used     []string
	seen     map[string]struct{}
}

func (ex *executor) eval(node ast.Node) (float64, error) {
	switch n := node.(type) {
	case ast.Literal:
		return n.Value, nil

	case ast.Variable:
		return ex.evalVariable(n)

	case ast.Unary:
		return ex.evalUnary(n)

	case ast.Binary:
		return ex.evalBinary(n)

	case ast.Ternary:
		return ex.evalBranch(n.Cond, n.Then, n.Else)

	case ast.Call:
		return ex.evalCall(n)

	case nil:
		return 0, &ExecutionError{
			Code:    ErrCodeInvalidNode,
			Message: "nil node in formula tree",
		}

	default:
		return 0, &ExecutionError{
			Code:    ErrCodeInvalidNode,
			Message: fmt.Sprintf("unrecognized node kind %T", node),
		}
	}
}

func (ex *executor) evalVariable(v ast.Variable) (float64, error) {
	value, ok := ex.bindings[v.Name]
	if !ok {
		return 0, &ExecutionError{
			Code:     ErrCodeMissingVariable,
			Message:  "variable is not bound",
			Variable: v.Name,
		}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &ExecutionError{
			Code:     ErrCodeInvalidValue,
			Message:  fmt.Sprintf("variable is bound to non-finite value %v", value),
			Variable: v.Name,
		}
	}
	ex.record(v.Name)
	return value, nil
}

// record notes a successful variable dereference, keeping first-use order
// and dropping duplicates.
func (ex *executor) record(name string) {
	if _, dup := ex.seen[name]; dup {
		return
	}
	if ex.seen == nil {
		ex.seen = make(map[string]struct{})
	}
	ex.seen[name] = struct{}{}
	ex.used = append(ex.used, name)
}

func (ex *executor) evalUnary(u ast.Unary) (float64, error) {
	operand, err := ex.eval(u.Operand)
	if err != nil {
		return 0, err
	}
	switch u.Op {
	case ast.OpNeg:
		return -operand, nil
	case ast.OpNot:
		return boolToNum(!truthy(operand)), nil
	default:
		return 0, &ExecutionError{
			Code:    ErrCodeInvalidNode,
			Message: fmt.Sprintf("unrecognized unary operator %v", u.Op),
		}
	}
}

func (ex *executor) evalBinary(b ast.Binary) (float64, error) {
	// AND and OR short-circuit: the right subtree is not walked once the
	// left operand decides the result, so its variables are neither
	// required to be bound nor recorded.
	switch b.Op {
	case ast.OpAnd:
		left, err := ex.eval(b.Left)
		if err != nil {
			return 0, err
		}
		if !truthy(left) {
			return 0, nil
		}
		right, err := ex.eval(b.Right)
		if err != nil {
			return 0, err
		}
		return boolToNum(truthy(right)), nil

	case ast.OpOr:
		left, err := ex.eval(b.Left)
		if err != nil {
			return 0, err
		}
		if truthy(left) {
			return 1, nil
		}
		right, err := ex.eval(b.Right)
		if err != nil {
			return 0, err
		}
		return boolToNum(truthy(right)), nil
	}

	left, err := ex.eval(b.Left)
	if err != nil {
		return 0, err
	}
	right, err := ex.eval(b.Right)
	if err != nil {
		return 0, err
	}

	switch b.Op {
	case ast.OpAdd:
		return left + right, nil
	case ast.OpSub:
		return left - right, nil
	case ast.OpMul:
		return left * right, nil
	case ast.OpDiv:
		if right == 0 {
			return 0, newDivisionByZeroError("/", left)
		}
		return left / right, nil
	case ast.OpMod:
		if right == 0 {
			return 0, newDivisionByZeroError("%", left)
		}
		return math.Mod(left, right), nil
	case ast.OpEq:
		return boolToNum(almostEqual(left, right)), nil
	case ast.OpNeq:
		return boolToNum(!almostEqual(left, right)), nil
	case ast.OpLt:
		return boolToNum(left < right), nil
	case ast.OpLte:
		return boolToNum(left <= right), nil
	case ast.OpGt:
		return boolToNum(left > right), nil
	case ast.OpGte:
		return boolToNum(left >= right), nil
	default:
		return 0, &ExecutionError{
			Code:    ErrCodeInvalidNode,
			Message: fmt.Sprintf("unrecognized binary operator %v", b.Op),
		}
	}
}

// evalBranch implements lazy conditional selection for both the ?:
// operator and the IF builtin: only the branch chosen by cond's truthiness
// is walked.
func (ex *executor) evalBranch(cond, thenBranch, elseBranch ast.Node) (float64, error) {
	c, err := ex.eval(cond)
	if err != nil {
		return 0, err
	}
	if truthy(c) {
		return ex.eval(thenBranch)
	}
	return ex.eval(elseBranch)
}

func (ex *executor) evalCall(c ast.Call) (float64, error) {
	fn, ok := builtins[c.Name]
	if !ok {
		return 0, &ExecutionError{
			Code:     ErrCodeUnknownFunction,
			Message:  "unknown function",
			Function: c.Name,
		}
	}
	if len(c.Args) != fn.Arity {
		return 0, &ExecutionError{
			Code:     ErrCodeBadArity,
			Message:  fmt.Sprintf("expected %d argument(s), got %d", fn.Arity, len(c.Args)),
			Function: c.Name,
		}
	}

	if fn.Lazy {
		// Only IF is lazy: args are (cond, then, else), branch selection
		// identical to the ?: operator.
		return ex.evalBranch(c.Args[0], c.Args[1], c.Args[2])
	}

	args := make([]float64, len(c.Args))
	for i, argNode := range c.Args {
		arg, err := ex.eval(argNode)
		if err != nil {
			return 0, err
		}
		args[i] = arg
	}
	return fn.Apply(args), nil
}

// truthy implements the language's numeric truthiness: 0 is false, any
// other value is true.
func truthy(v float64) bool {
	return v != 0
}

func boolToNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// almostEqual compares under Epsilon, absolute near zero and relative at
// large magnitude.
func almostEqual(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= Epsilon*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
