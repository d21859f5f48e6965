// Formula is the command-line surface of the payroll formula engine.
//
// Usage:
//
//	# Parse a formula and inspect the tree
//	formula parse "1 + 2 * 3"
//
//	# Evaluate a formula against bindings
//	formula eval "gross_pay * 0.10" --var gross_pay=5000
//
//	# Validate a tenant formula pack
//	formula validate ./packs/acme
//
//	# Run a pack over a payroll batch into the run ledger
//	formula run ./packs/acme --batch ./batches/2026-08.yaml --db ./ledger.db
//
//	# Inspect recorded runs
//	formula report --db ./ledger.db
package main

import (
	"fmt"
	"os"

	"github.com/tallyops/formula/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
