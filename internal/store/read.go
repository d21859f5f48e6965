package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run ID does not exist in the ledger.
var ErrRunNotFound = errors.New("run not found")

// ReadRun fetches one run header by ID.
func (s *Store) ReadRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, pack, started_at, finished_at, lines, failures
		FROM runs WHERE id = ?
	`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit run headers, most recently started first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pack, started_at, finished_at, lines, failures
		FROM runs ORDER BY started_at DESC, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ReadLines returns a run's ledger lines in (line_no, formula) order - the
// order the runner evaluated them.
func (s *Store) ReadLines(ctx context.Context, runID string) ([]Line, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, line_no, formula, value, variables_used, error_code, error_msg, exec_us
		FROM run_lines WHERE run_id = ?
		ORDER BY line_no, formula
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var line Line
		var value sql.NullFloat64
		var varsJSON string
		var execMicros int64

		if err := rows.Scan(
			&line.RunID,
			&line.LineNo,
			&line.Formula,
			&value,
			&varsJSON,
			&line.ErrorCode,
			&line.ErrorMsg,
			&execMicros,
		); err != nil {
			return nil, fmt.Errorf("read lines: %w", err)
		}

		if value.Valid {
			line.Value = value.Float64
		}
		if err := json.Unmarshal([]byte(varsJSON), &line.VariablesUsed); err != nil {
			return nil, fmt.Errorf("read lines: variables_used: %w", err)
		}
		line.ExecTime = time.Duration(execMicros) * time.Microsecond

		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var startedMicros int64
	var finishedMicros sql.NullInt64

	if err := row.Scan(
		&run.ID,
		&run.Pack,
		&startedMicros,
		&finishedMicros,
		&run.Lines,
		&run.Failures,
	); err != nil {
		return nil, err
	}

	run.StartedAt = time.UnixMicro(startedMicros).UTC()
	if finishedMicros.Valid {
		run.FinishedAt = time.UnixMicro(finishedMicros.Int64).UTC()
	}
	return &run, nil
}
