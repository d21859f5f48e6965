package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallyops/formula/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Inspect the run ledger",
		Long: `Without a run ID, list recent runs. With a run ID, show the run's
header and every recorded line.

Example:
  formula report --db ./ledger.db
  formula report --db ./ledger.db 0d9f8a3e-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return reportRuns(opts, cmd)
			}
			return reportRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite run ledger (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func reportRuns(opts *ReportOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot open ledger", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot list runs", err)
	}

	if f.Format == "json" {
		payload := make([]map[string]any, len(runs))
		for i, run := range runs {
			payload[i] = runJSON(run)
		}
		return f.JSON(map[string]any{"runs": payload})
	}

	if len(runs) == 0 {
		f.Textf("no runs recorded")
		return nil
	}
	for _, run := range runs {
		f.Textf("%s  %s  lines=%d failures=%d  started=%s",
			run.ID, run.Pack, run.Lines, run.Failures,
			run.StartedAt.Format(time.RFC3339))
	}
	return nil
}

func reportRun(opts *ReportOptions, runID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot open ledger", err)
	}
	defer st.Close()

	run, err := st.ReadRun(cmd.Context(), runID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		return WrapExitError(ExitCommandError, "cannot read run", err)
	}

	lines, err := st.ReadLines(cmd.Context(), runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot read run lines", err)
	}

	if f.Format == "json" {
		lineJSON := make([]map[string]any, len(lines))
		for i, line := range lines {
			entry := map[string]any{
				"line":    line.LineNo,
				"formula": line.Formula,
				"exec_us": line.ExecTime.Microseconds(),
			}
			if line.Failed() {
				entry["error_code"] = line.ErrorCode
				entry["error_message"] = line.ErrorMsg
			} else {
				entry["value"] = line.Value
				entry["variables_used"] = line.VariablesUsed
			}
			lineJSON[i] = entry
		}
		return f.JSON(map[string]any{"run": runJSON(*run), "lines": lineJSON})
	}

	f.Textf("run %s  pack=%s  lines=%d failures=%d", run.ID, run.Pack, run.Lines, run.Failures)
	for _, line := range lines {
		if line.Failed() {
			f.Textf("  line %d  %s  ERROR %s", line.LineNo, line.Formula, line.ErrorCode)
			continue
		}
		f.Textf("  line %d  %s  %s", line.LineNo, line.Formula, f.Amount(line.Value))
	}
	return nil
}

func runJSON(run store.Run) map[string]any {
	payload := map[string]any{
		"id":       run.ID,
		"pack":     run.Pack,
		"started":  run.StartedAt.Format(time.RFC3339Nano),
		"lines":    run.Lines,
		"failures": run.Failures,
	}
	if !run.FinishedAt.IsZero() {
		payload["finished"] = run.FinishedAt.Format(time.RFC3339Nano)
	}
	return payload
}
