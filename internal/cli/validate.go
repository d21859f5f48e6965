package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tallyops/formula/internal/rulepack"
)

// ValidationIssue is one fault found while validating a pack.
type ValidationIssue struct {
	Formula string `json:"formula,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Pack     string            `json:"pack,omitempty"`
	Formulas int               `json:"formulas"`
	Issues   []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pack-dir>",
		Short: "Validate a formula pack",
		Long: `Validate a formula pack directory: CUE decoding, formula syntax, and
the pack's own declared test cases.

All faults are collected and reported together for authoring feedback.
Exit codes: 2 when the pack cannot be loaded at all, 1 when it loads but
has faults, 0 when everything holds.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, packDir string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	pack, loadErrors := rulepack.LoadDir(packDir, rulepack.LoadModeCollectAll)
	if pack == nil {
		err := loadErrors[0]
		return WrapExitError(ExitCommandError, "cannot load pack", err)
	}
	f.VerboseLog("loaded pack %q: %d formula(s)", pack.Name, len(pack.Formulas))

	result := ValidationResult{Pack: pack.Name, Formulas: len(pack.Formulas)}
	for _, err := range loadErrors {
		result.Issues = append(result.Issues, issueFromError(err))
	}

	// Parse every formula; on success, run the pack's declared tests.
	compiled, err := pack.Compile()
	if err != nil {
		result.Issues = append(result.Issues, ValidationIssue{
			Code:    "SYNTAX_ERROR",
			Message: err.Error(),
		})
	} else {
		for _, failure := range compiled.Verify() {
			result.Issues = append(result.Issues, ValidationIssue{
				Code:    "TEST_FAILED",
				Message: failure.Error(),
			})
		}
	}

	result.Valid = len(result.Issues) == 0

	if f.Format == "json" {
		if err := f.JSON(result); err != nil {
			return err
		}
	} else if result.Valid {
		f.Textf("pack %q: %d formula(s) valid", result.Pack, result.Formulas)
	} else {
		f.Textf("pack %q: %d issue(s)", result.Pack, len(result.Issues))
		for _, issue := range result.Issues {
			f.Textf("  [%s] %s", issue.Code, issue.Message)
		}
	}

	if !result.Valid {
		return &ExitError{Code: ExitFailure, Message: "pack has validation issues"}
	}
	return nil
}

func issueFromError(err error) ValidationIssue {
	var loadErr *rulepack.LoadError
	if errors.As(err, &loadErr) {
		return ValidationIssue{
			Formula: loadErr.Formula,
			Code:    loadErr.Code,
			Message: loadErr.Message,
		}
	}
	return ValidationIssue{Code: "UNKNOWN", Message: err.Error()}
}
