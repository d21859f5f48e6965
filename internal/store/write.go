package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one batch run's ledger header.
type Run struct {
	// ID is the UUID assigned at BeginRun.
	ID string

	// Pack is the formula pack the run evaluated.
	Pack string

	// StartedAt and FinishedAt bracket the run. FinishedAt is zero while
	// the run is still in progress (or was abandoned by a crash).
	StartedAt  time.Time
	FinishedAt time.Time

	// Lines counts recorded evaluations; Failures counts those that
	// faulted.
	Lines    int
	Failures int
}

// Line is one (payroll line, formula) evaluation in the ledger.
type Line struct {
	RunID   string
	LineNo  int    // Batch row, 1-based.
	Formula string // Formula name within the pack.

	// Value is the computed result. Meaningful only when ErrorCode is
	// empty.
	Value float64

	// VariablesUsed is the engine's first-use-ordered variable record.
	VariablesUsed []string

	// ErrorCode and ErrorMsg describe the fault, empty on success.
	ErrorCode string
	ErrorMsg  string

	// ExecTime is the engine's evaluation wall time.
	ExecTime time.Duration
}

// Failed reports whether the line recorded a fault.
func (l Line) Failed() bool {
	return l.ErrorCode != ""
}

// BeginRun inserts a run header and returns its UUID.
func (s *Store) BeginRun(ctx context.Context, pack string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, pack, started_at) VALUES (?, ?, ?)
	`, id, pack, startedAt.UnixMicro())
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// WriteLine appends one evaluation to the ledger. Lines are written as the
// run progresses, so a crash leaves a readable partial ledger. Duplicate
// (run, line, formula) writes are rejected by the primary key - the runner
// evaluates each pair exactly once.
func (s *Store) WriteLine(ctx context.Context, line Line) error {
	varsJSON, err := marshalVariables(line.VariablesUsed)
	if err != nil {
		return fmt.Errorf("write line: %w", err)
	}

	var value sql.NullFloat64
	if !line.Failed() {
		value = sql.NullFloat64{Float64: line.Value, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_lines
		(run_id, line_no, formula, value, variables_used, error_code, error_msg, exec_us)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		line.RunID,
		line.LineNo,
		line.Formula,
		value,
		varsJSON,
		line.ErrorCode,
		line.ErrorMsg,
		line.ExecTime.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// FinishRun stamps the run's end time and totals.
func (s *Store) FinishRun(ctx context.Context, runID string, finishedAt time.Time, lines, failures int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, lines = ?, failures = ? WHERE id = ?
	`, finishedAt.UnixMicro(), lines, failures, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run: run %s not found", runID)
	}
	return nil
}

// marshalVariables serializes the first-use-ordered variable list as a
// JSON array. nil serializes as the empty array so the column is always
// valid JSON.
func marshalVariables(vars []string) (string, error) {
	if vars == nil {
		return "[]", nil
	}
	data, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("marshal variables: %w", err)
	}
	return string(data), nil
}
