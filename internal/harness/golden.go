package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario, verifies its expectations, and
// compares the rendered trace against a golden file under
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *Scenario) {
	t.Helper()

	trace, err := Run(sc)
	if err != nil {
		t.Fatalf("scenario %q failed to run: %v", sc.Name, err)
	}
	for _, failure := range trace.Verify() {
		t.Errorf("scenario %q: %v", sc.Name, failure)
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, sc.Name, trace.Render())
}
