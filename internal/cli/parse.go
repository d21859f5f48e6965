package cli

import (
	"github.com/spf13/cobra"

	"github.com/tallyops/formula/internal/ast"
	"github.com/tallyops/formula/internal/parser"
)

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <formula>",
		Short: "Parse a formula and dump its tree",
		Long: `Parse a formula and print the resulting tree without evaluating it.

Text output shows the canonical fully parenthesized form, which makes the
parsed precedence visible:

  formula parse "1 + 2 * 3"
  (1 + (2 * 3))

JSON output shows the full node structure.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
}

func runParse(opts *RootOptions, formula string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	node, err := parser.Parse(formula)
	if err != nil {
		return WrapExitError(ExitCommandError, "formula does not parse", err)
	}

	if f.Format == "json" {
		return f.JSON(map[string]any{
			"formula":   formula,
			"canonical": node.String(),
			"tree":      astJSON(node),
			"depth":     ast.Depth(node),
		})
	}

	f.Textf("%s", node.String())
	return nil
}

// astJSON converts a tree into the nested structure emitted by --format
// json.
func astJSON(n ast.Node) any {
	switch t := n.(type) {
	case ast.Literal:
		return map[string]any{"kind": "literal", "value": t.Value}
	case ast.Variable:
		return map[string]any{"kind": "variable", "name": t.Name}
	case ast.Unary:
		return map[string]any{
			"kind":    "unary",
			"op":      t.Op.String(),
			"operand": astJSON(t.Operand),
		}
	case ast.Binary:
		return map[string]any{
			"kind":  "binary",
			"op":    t.Op.String(),
			"left":  astJSON(t.Left),
			"right": astJSON(t.Right),
		}
	case ast.Ternary:
		return map[string]any{
			"kind": "ternary",
			"cond": astJSON(t.Cond),
			"then": astJSON(t.Then),
			"else": astJSON(t.Else),
		}
	case ast.Call:
		args := make([]any, len(t.Args))
		for i, a := range t.Args {
			args[i] = astJSON(a)
		}
		return map[string]any{"kind": "call", "name": t.Name, "args": args}
	default:
		return map[string]any{"kind": "unknown"}
	}
}
