package cli

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tallyops/formula/internal/engine"
	"github.com/tallyops/formula/internal/parser"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Vars []string
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <formula>",
		Short: "Evaluate a formula against --var bindings",
		Long: `Parse and evaluate a single formula.

Bindings are supplied with repeated --var flags:

  formula eval "gross_pay * 0.10" --var gross_pay=5000
  formula eval "IF(gross_pay > 3000, 150, 100)" --var gross_pay=5000

Exit codes: 2 for a syntax fault or bad --var, 1 for an evaluation fault
(missing variable, division by zero, ...), 0 on success.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Vars, "var", nil, "binding as name=value (repeatable)")

	return cmd
}

func runEval(opts *EvalOptions, formula string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	bindings, err := parseBindings(opts.Vars)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --var", err)
	}

	node, err := parser.Parse(formula)
	if err != nil {
		return WrapExitError(ExitCommandError, "formula does not parse", err)
	}
	f.VerboseLog("parsed: %s", node.String())

	result, err := engine.Execute(node, bindings)
	if err != nil {
		if engine.CodeOf(err) == engine.ErrCodeUnknownFunction {
			names := engine.Builtins()
			sort.Strings(names)
			f.VerboseLog("available functions: %s", strings.Join(names, ", "))
		}
		if f.Format == "json" {
			_ = f.JSON(map[string]any{
				"formula": formula,
				"error": map[string]any{
					"code":    string(engine.CodeOf(err)),
					"message": err.Error(),
				},
			})
		}
		return WrapExitError(ExitFailure, "evaluation failed", err)
	}

	if f.Format == "json" {
		return f.JSON(map[string]any{
			"formula":        formula,
			"value":          result.Value,
			"variables_used": result.VariablesUsed,
			"execution_us":   result.ExecutionTime.Microseconds(),
		})
	}

	f.Textf("value: %s", f.Amount(result.Value))
	if len(result.VariablesUsed) > 0 {
		f.Textf("variables: %s", strings.Join(result.VariablesUsed, ", "))
	}
	f.VerboseLog("execution time: %s", result.ExecutionTime)
	return nil
}

// parseBindings turns repeated name=value flags into a binding map.
// Values must be finite: a NaN or Inf binding would only fail later inside
// the engine, so reject it at the flag boundary with a better message.
func parseBindings(vars []string) (map[string]float64, error) {
	if len(vars) == 0 {
		return nil, nil
	}

	bindings := make(map[string]float64, len(vars))
	for _, v := range vars {
		name, raw, found := strings.Cut(v, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("binding %q is not name=value", v)
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("binding %q: value is not numeric", v)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, fmt.Errorf("binding %q: value must be finite", v)
		}
		bindings[name] = value
	}
	return bindings, nil
}
