package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes evaluation faults.
type ErrorCode string

const (
	// ErrCodeMissingVariable indicates a formula referenced a variable
	// absent from the bindings on the taken evaluation path.
	ErrCodeMissingVariable ErrorCode = "MISSING_VARIABLE"

	// ErrCodeInvalidValue indicates a binding held a NaN or infinite
	// value. Payroll inputs must be finite real numbers.
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"

	// ErrCodeUnknownFunction indicates a call to a name not in the
	// builtin table.
	ErrCodeUnknownFunction ErrorCode = "UNKNOWN_FUNCTION"

	// ErrCodeBadArity indicates a builtin was called with the wrong
	// number of arguments.
	ErrCodeBadArity ErrorCode = "BAD_ARITY"

	// ErrCodeInvalidNode indicates a nil or unrecognized tree node.
	// Unreachable given parser output, but handled rather than crashing.
	ErrCodeInvalidNode ErrorCode = "INVALID_NODE"

	// ErrCodeDivisionByZero indicates / or % with a zero right operand.
	ErrCodeDivisionByZero ErrorCode = "DIVISION_BY_ZERO"
)

// ExecutionError represents a runtime fault detected while evaluating a
// formula. It carries structured fields so the host can map faults onto
// user-facing diagnostics without string matching.
type ExecutionError struct {
	// Code identifies the fault category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Variable is the offending variable name (missing/invalid value
	// faults).
	Variable string

	// Function is the offending function name (unknown function and
	// arity faults).
	Function string
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	switch {
	case e.Variable != "":
		return fmt.Sprintf("%s: %s (variable=%s)", e.Code, e.Message, e.Variable)
	case e.Function != "":
		return fmt.Sprintf("%s: %s (function=%s)", e.Code, e.Message, e.Function)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// DivisionByZeroError is the specialization of ExecutionError raised by /
// and % when the right operand is zero. It is a distinct type so the host
// can present payroll-specific messaging (a zero divisor usually means a
// zero hours_worked or headcount input), while still unwrapping to an
// ExecutionError for callers that only distinguish parse vs runtime faults.
type DivisionByZeroError struct {
	ExecutionError

	// Dividend is the evaluated left operand.
	Dividend float64

	// Op is the operator's surface syntax, "/" or "%".
	Op string
}

// Unwrap exposes the embedded ExecutionError to errors.As chains.
func (e *DivisionByZeroError) Unwrap() error {
	return &e.ExecutionError
}

func newDivisionByZeroError(op string, dividend float64) *DivisionByZeroError {
	return &DivisionByZeroError{
		ExecutionError: ExecutionError{
			Code:    ErrCodeDivisionByZero,
			Message: fmt.Sprintf("right operand of %q is zero", op),
		},
		Dividend: dividend,
		Op:       op,
	}
}

// IsDivisionByZero returns true if the error is a division-by-zero fault.
// Uses errors.As to handle wrapped errors.
func IsDivisionByZero(err error) bool {
	var dz *DivisionByZeroError
	return errors.As(err, &dz)
}

// IsMissingVariable returns true if the error is a missing-variable fault.
// Uses errors.As to handle wrapped errors.
func IsMissingVariable(err error) bool {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeMissingVariable
	}
	return false
}

// CodeOf extracts the ErrorCode from an evaluation error. Returns the empty
// string when err is not an engine error.
func CodeOf(err error) ErrorCode {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}
