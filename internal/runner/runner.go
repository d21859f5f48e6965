package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tallyops/formula/internal/engine"
	"github.com/tallyops/formula/internal/rulepack"
	"github.com/tallyops/formula/internal/store"
)

// Runner executes compiled packs over batches and writes the run ledger.
type Runner struct {
	store *store.Store
	now   func() time.Time
}

// New creates a runner writing to s. now may be nil, in which case the
// system clock is used; tests inject a fake to get deterministic
// started/finished stamps.
func New(s *store.Store, now func() time.Time) *Runner {
	if now == nil {
		now = time.Now
	}
	return &Runner{store: s, now: now}
}

// Summary reports the outcome of one batch run.
type Summary struct {
	// RunID is the ledger UUID for the run.
	RunID string

	// Lines counts evaluations performed: len(batch.Lines) * formulas.
	Lines int

	// Failures counts evaluations that faulted.
	Failures int
}

// Run evaluates every formula in the pack against every line of the batch.
//
// Evaluation order is fixed: batch rows in file order, formulas in name
// order within each row. Each evaluation is recorded in the ledger as it
// happens; a faulting evaluation is recorded with its error code and the
// run continues. The error return covers infrastructure faults only
// (ledger writes, context cancellation), never formula faults.
func (r *Runner) Run(ctx context.Context, pack *rulepack.CompiledPack, batch *Batch) (*Summary, error) {
	runID, err := r.store.BeginRun(ctx, pack.Name, r.now())
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}

	slog.Info("run starting",
		"run_id", runID,
		"pack", pack.Name,
		"batch_lines", len(batch.Lines),
		"formulas", len(pack.Formulas),
	)

	summary := &Summary{RunID: runID}
	for i, line := range batch.Lines {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled at line %d: %w", i+1, err)
		}

		for _, f := range pack.Formulas {
			tree, ok := pack.Tree(f.Name)
			if !ok {
				return nil, fmt.Errorf("formula %q: no compiled tree", f.Name)
			}

			record := store.Line{
				RunID:   runID,
				LineNo:  i + 1,
				Formula: f.Name,
			}

			result, evalErr := engine.Execute(tree, line.Bindings)
			if evalErr != nil {
				record.ErrorCode = string(engine.CodeOf(evalErr))
				record.ErrorMsg = evalErr.Error()
				summary.Failures++
				slog.Warn("formula faulted",
					"run_id", runID,
					"line", i+1,
					"label", line.Label,
					"formula", f.Name,
					"code", record.ErrorCode,
				)
			} else {
				record.Value = result.Value
				record.VariablesUsed = result.VariablesUsed
				record.ExecTime = result.ExecutionTime
				slog.Debug("formula evaluated",
					"run_id", runID,
					"line", i+1,
					"formula", f.Name,
					"value", result.Value,
				)
			}

			if err := r.store.WriteLine(ctx, record); err != nil {
				return nil, fmt.Errorf("record line %d formula %q: %w", i+1, f.Name, err)
			}
			summary.Lines++
		}
	}

	if err := r.store.FinishRun(ctx, runID, r.now(), summary.Lines, summary.Failures); err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}

	slog.Info("run finished",
		"run_id", runID,
		"lines", summary.Lines,
		"failures", summary.Failures,
	)
	return summary, nil
}
