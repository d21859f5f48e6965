package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tallyops/formula/internal/rulepack"
	"github.com/tallyops/formula/internal/runner"
	"github.com/tallyops/formula/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Batch    string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <pack-dir>",
		Short: "Run a formula pack over a payroll batch",
		Long: `Run every formula in a pack against every line of a payroll batch,
recording each evaluation in the run ledger.

A faulting line is recorded and the run continues; the command exits 1 if
any line faulted so calling scripts notice.

Example:
  formula run ./packs/acme --batch ./batches/2026-08.yaml --db ./ledger.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the SQLite run ledger (required)")
	cmd.Flags().StringVar(&opts.Batch, "batch", "", "path to the batch YAML file (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("batch")

	return cmd
}

func runBatch(opts *RunOptions, packDir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	pack, loadErrors := rulepack.LoadDir(packDir, rulepack.LoadModeFailFast)
	if pack == nil {
		return WrapExitError(ExitCommandError, "cannot load pack", loadErrors[0])
	}
	compiled, err := pack.Compile()
	if err != nil {
		return WrapExitError(ExitCommandError, "pack does not compile", err)
	}
	f.VerboseLog("compiled pack %q: %d formula(s)", pack.Name, len(pack.Formulas))

	batch, err := runner.LoadBatch(opts.Batch)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot load batch", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot open ledger", err)
	}
	defer st.Close()

	summary, err := runner.New(st, nil).Run(cmd.Context(), compiled, batch)
	if err != nil {
		return WrapExitError(ExitCommandError, "run failed", err)
	}

	if f.Format == "json" {
		if err := f.JSON(map[string]any{
			"run_id":   summary.RunID,
			"lines":    summary.Lines,
			"failures": summary.Failures,
		}); err != nil {
			return err
		}
	} else {
		f.Textf("run %s: %d line(s), %d failure(s)", summary.RunID, summary.Lines, summary.Failures)
	}

	if summary.Failures > 0 {
		return &ExitError{
			Code:    ExitFailure,
			Message: fmt.Sprintf("%d evaluation(s) faulted", summary.Failures),
		}
	}
	return nil
}
