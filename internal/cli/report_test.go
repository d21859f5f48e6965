package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordRun executes a run command into a fresh ledger and returns the
// database path plus the recorded run ID.
func recordRun(t *testing.T) (string, string) {
	t.Helper()
	packDir := writePack(t, "acme-payroll", validPack)
	batchPath := writeBatch(t, faultyBatch)
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{packDir, "--batch", batchPath, "--db", dbPath})

	// faultyBatch divides by zero, so the run exits 1; the ledger still
	// holds every line.
	err := cmd.Execute()
	require.Error(t, err)
	require.Equal(t, ExitFailure, GetExitCode(err))

	var summary struct {
		RunID string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &summary))
	require.NotEmpty(t, summary.RunID)
	return dbPath, summary.RunID
}

func TestReportListRuns(t *testing.T) {
	dbPath, runID := recordRun(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewReportCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())

	var payload struct {
		Runs []struct {
			ID       string `json:"id"`
			Pack     string `json:"pack"`
			Lines    int    `json:"lines"`
			Failures int    `json:"failures"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	require.Len(t, payload.Runs, 1)
	assert.Equal(t, runID, payload.Runs[0].ID)
	assert.Equal(t, "acme-payroll", payload.Runs[0].Pack)
	assert.Equal(t, 2, payload.Runs[0].Lines)
	assert.Equal(t, 1, payload.Runs[0].Failures)
}

func TestReportRunDetail(t *testing.T) {
	dbPath, runID := recordRun(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewReportCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, runID})

	require.NoError(t, cmd.Execute())

	var payload struct {
		Run struct {
			ID string `json:"id"`
		} `json:"run"`
		Lines []struct {
			Formula   string  `json:"formula"`
			Value     float64 `json:"value"`
			ErrorCode string  `json:"error_code"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, runID, payload.Run.ID)
	require.Len(t, payload.Lines, 2)

	// Formulas are recorded in name order within a batch line.
	assert.Equal(t, "hourly_ratio", payload.Lines[0].Formula)
	assert.Equal(t, "DIVISION_BY_ZERO", payload.Lines[0].ErrorCode)
	assert.Equal(t, "overtime", payload.Lines[1].Formula)
	assert.Equal(t, 375.0, payload.Lines[1].Value)
	assert.Empty(t, payload.Lines[1].ErrorCode)
}

func TestReportRunDetailText(t *testing.T) {
	dbPath, runID := recordRun(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Locale: "en"}
	cmd := NewReportCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath, runID})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "failures=1")
	assert.Contains(t, output, "ERROR DIVISION_BY_ZERO")
	assert.Contains(t, output, "375")
}

func TestReportUnknownRun(t *testing.T) {
	dbPath, _ := recordRun(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReportCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--db", dbPath, "no-such-run"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReportEmptyLedger(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewReportCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", dbPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "no runs recorded")
}
