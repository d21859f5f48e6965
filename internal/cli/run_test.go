package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanBatch = `lines:
  - label: "emp-001"
    bindings: {overtime_hours: 10, overtime_rate: 37.5, gross_pay: 5000, hours_worked: 160}
  - label: "emp-002"
    bindings: {overtime_hours: 0, overtime_rate: 37.5, gross_pay: 4200, hours_worked: 152}
`

const faultyBatch = `lines:
  - label: "emp-001"
    bindings: {overtime_hours: 10, overtime_rate: 37.5, gross_pay: 5000, hours_worked: 0}
`

// writeBatch writes a batch YAML file into a temp dir.
func writeBatch(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCleanBatch(t *testing.T) {
	packDir := writePack(t, "acme-payroll", validPack)
	batchPath := writeBatch(t, cleanBatch)
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{packDir, "--batch", batchPath, "--db", dbPath})

	require.NoError(t, cmd.Execute())

	var summary struct {
		RunID    string `json:"run_id"`
		Lines    int    `json:"lines"`
		Failures int    `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &summary))
	assert.NotEmpty(t, summary.RunID)
	// 2 batch lines x 2 formulas
	assert.Equal(t, 4, summary.Lines)
	assert.Equal(t, 0, summary.Failures)
}

func TestRunFaultingBatchExitsOne(t *testing.T) {
	packDir := writePack(t, "acme-payroll", validPack)
	batchPath := writeBatch(t, faultyBatch)
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{packDir, "--batch", batchPath, "--db", dbPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "1 failure(s)")
}

func TestRunMissingFlags(t *testing.T) {
	packDir := writePack(t, "acme-payroll", validPack)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{packDir}) // no --db, no --batch

	require.Error(t, cmd.Execute())
}

func TestRunMissingPack(t *testing.T) {
	batchPath := writeBatch(t, cleanBatch)
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "nope"), "--batch", batchPath, "--db", dbPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
