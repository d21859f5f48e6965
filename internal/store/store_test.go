package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore creates a store backed by a temp-dir SQLite file.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestOpen_Idempotent tests reopening an existing database.
func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

// TestRunLifecycle tests begin -> write lines -> finish -> read back.
func TestRunLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	runID, err := s.BeginRun(ctx, "acme-payroll", started)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	require.NoError(t, s.WriteLine(ctx, Line{
		RunID:         runID,
		LineNo:        1,
		Formula:       "overtime",
		Value:         375,
		VariablesUsed: []string{"overtime_hours", "overtime_rate"},
		ExecTime:      25 * time.Microsecond,
	}))
	require.NoError(t, s.WriteLine(ctx, Line{
		RunID:     runID,
		LineNo:    2,
		Formula:   "overtime",
		ErrorCode: "MISSING_VARIABLE",
		ErrorMsg:  "MISSING_VARIABLE: variable is not bound (variable=overtime_rate)",
	}))

	finished := started.Add(3 * time.Second)
	require.NoError(t, s.FinishRun(ctx, runID, finished, 2, 1))

	run, err := s.ReadRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, "acme-payroll", run.Pack)
	assert.Equal(t, started, run.StartedAt)
	assert.Equal(t, finished, run.FinishedAt)
	assert.Equal(t, 2, run.Lines)
	assert.Equal(t, 1, run.Failures)

	lines, err := s.ReadLines(ctx, runID)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.False(t, lines[0].Failed())
	assert.Equal(t, 375.0, lines[0].Value)
	assert.Equal(t, []string{"overtime_hours", "overtime_rate"}, lines[0].VariablesUsed)
	assert.Equal(t, 25*time.Microsecond, lines[0].ExecTime)

	assert.True(t, lines[1].Failed())
	assert.Equal(t, "MISSING_VARIABLE", lines[1].ErrorCode)
	assert.Empty(t, lines[1].VariablesUsed)
}

// TestReadRun_NotFound tests the typed not-found error.
func TestReadRun_NotFound(t *testing.T) {
	s := openTestStore(t)

	run, err := s.ReadRun(context.Background(), "no-such-run")
	assert.Nil(t, run)
	require.ErrorIs(t, err, ErrRunNotFound)
}

// TestFinishRun_NotFound tests finishing an unknown run fails loudly.
func TestFinishRun_NotFound(t *testing.T) {
	s := openTestStore(t)
	err := s.FinishRun(context.Background(), "no-such-run", time.Now(), 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// TestWriteLine_DuplicateRejected tests the (run, line, formula) primary
// key holds.
func TestWriteLine_DuplicateRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	runID, err := s.BeginRun(ctx, "acme-payroll", time.Now())
	require.NoError(t, err)

	line := Line{RunID: runID, LineNo: 1, Formula: "overtime", Value: 1}
	require.NoError(t, s.WriteLine(ctx, line))
	require.Error(t, s.WriteLine(ctx, line))
}

// TestListRuns tests ordering by most recent start.
func TestListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	older, err := s.BeginRun(ctx, "pack-a", base)
	require.NoError(t, err)
	newer, err := s.BeginRun(ctx, "pack-b", base.Add(time.Hour))
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer, runs[0].ID)
	assert.Equal(t, older, runs[1].ID)

	// Unfinished runs read back with a zero FinishedAt.
	assert.True(t, runs[0].FinishedAt.IsZero())

	limited, err := s.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
