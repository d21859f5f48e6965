package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestExecutionError_Message tests the structured fields show up in the
// rendered message.
func TestExecutionError_Message(t *testing.T) {
	err := &ExecutionError{
		Code:     ErrCodeMissingVariable,
		Message:  "variable is not bound",
		Variable: "overtime_rate",
	}
	assert.Equal(t, "MISSING_VARIABLE: variable is not bound (variable=overtime_rate)", err.Error())

	err = &ExecutionError{
		Code:     ErrCodeBadArity,
		Message:  "expected 2 argument(s), got 1",
		Function: "MIN",
	}
	assert.Equal(t, "BAD_ARITY: expected 2 argument(s), got 1 (function=MIN)", err.Error())
}

// TestDivisionByZeroError_Unwrap tests the specialization relationship.
func TestDivisionByZeroError_Unwrap(t *testing.T) {
	err := newDivisionByZeroError("/", 5000)

	var dz *DivisionByZeroError
	assert.True(t, errors.As(error(err), &dz))
	assert.Equal(t, 5000.0, dz.Dividend)

	var ee *ExecutionError
	assert.True(t, errors.As(error(err), &ee))
	assert.Equal(t, ErrCodeDivisionByZero, ee.Code)
}

// TestHelpers_WrappedErrors tests the predicates see through %w wrapping,
// which is how the runner and CLI annotate engine faults.
func TestHelpers_WrappedErrors(t *testing.T) {
	dz := fmt.Errorf("line 3: %w", newDivisionByZeroError("%", 1))
	assert.True(t, IsDivisionByZero(dz))
	assert.Equal(t, ErrCodeDivisionByZero, CodeOf(dz))

	missing := fmt.Errorf("line 9: %w", &ExecutionError{
		Code:     ErrCodeMissingVariable,
		Message:  "variable is not bound",
		Variable: "bonus_rate",
	})
	assert.True(t, IsMissingVariable(missing))
	assert.False(t, IsDivisionByZero(missing))
	assert.Equal(t, ErrCodeMissingVariable, CodeOf(missing))
}

// TestCodeOf_ForeignError tests non-engine errors yield the empty code.
func TestCodeOf_ForeignError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("disk on fire")))
}
