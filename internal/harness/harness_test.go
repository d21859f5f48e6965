package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

// TestRun_SharedTreeAcrossCases tests all cases evaluate against one parse.
func TestRun_SharedTreeAcrossCases(t *testing.T) {
	sc := &Scenario{
		Name:    "deduction",
		Formula: "gross_pay * 0.10",
		Cases: []Case{
			{Bindings: map[string]float64{"gross_pay": 5000}, ExpectValue: floatPtr(500)},
			{Bindings: map[string]float64{"gross_pay": 1000}, ExpectValue: floatPtr(100)},
		},
	}

	trace, err := Run(sc)
	require.NoError(t, err)
	assert.Equal(t, "(gross_pay * 0.1)", trace.AST)
	require.Len(t, trace.Outcomes, 2)
	assert.Equal(t, 500.0, trace.Outcomes[0].Value)
	assert.Equal(t, 100.0, trace.Outcomes[1].Value)
	assert.Empty(t, trace.Verify())
}

// TestRun_UnparsableFormula tests parse faults fail the scenario itself.
func TestRun_UnparsableFormula(t *testing.T) {
	sc := &Scenario{
		Name:    "broken",
		Formula: "1 +",
		Cases:   []Case{{ExpectValue: floatPtr(0)}},
	}

	trace, err := Run(sc)
	require.Error(t, err)
	assert.Nil(t, trace)
	assert.Contains(t, err.Error(), `scenario "broken"`)
}

// TestVerify_Failures tests each expectation kind can fail.
func TestVerify_Failures(t *testing.T) {
	sc := &Scenario{
		Name:    "mismatch",
		Formula: "a / b",
		Cases: []Case{
			// Wrong value.
			{Bindings: map[string]float64{"a": 10, "b": 2}, ExpectValue: floatPtr(999)},
			// Expected an error, got a value.
			{Bindings: map[string]float64{"a": 10, "b": 2}, ExpectError: "DIVISION_BY_ZERO"},
			// Expected a value, got an error.
			{Bindings: map[string]float64{"a": 10, "b": 0}, ExpectValue: floatPtr(5)},
			// Wrong error code.
			{Bindings: map[string]float64{"a": 10}, ExpectError: "DIVISION_BY_ZERO"},
			// Wrong variable record.
			{Bindings: map[string]float64{"a": 10, "b": 2}, ExpectValue: floatPtr(5), ExpectVars: []string{"b", "a"}},
		},
	}

	trace, err := Run(sc)
	require.NoError(t, err)
	failures := trace.Verify()
	assert.Len(t, failures, 5)
}

// TestLoadScenario_Validation tests the structural checks.
func TestLoadScenario_Validation(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	_, err := LoadScenario(write("noname.yaml", "formula: \"1\"\ncases: [{expect_value: 1}]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no name")

	_, err = LoadScenario(write("nocases.yaml", "name: x\nformula: \"1\"\ncases: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cases")

	_, err = LoadScenario(write("both.yaml", `
name: x
formula: "1"
cases:
  - expect_value: 1
    expect_error: NOPE
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")

	_, err = LoadScenario(write("varswitherr.yaml", `
name: x
formula: "v"
cases:
  - expect_error: MISSING_VARIABLE
    expect_vars: [v]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expect_vars cannot be combined")
}

// TestScenarios_Golden runs every checked-in scenario against its golden
// trace.
func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			RunWithGolden(t, sc)
		})
	}
}

// TestRender_Stability tests two runs render identical bytes.
func TestRender_Stability(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "scenarios", "overtime_pay.yaml"))
	require.NoError(t, err)

	first, err := Run(sc)
	require.NoError(t, err)
	second, err := Run(sc)
	require.NoError(t, err)

	assert.Equal(t, first.Render(), second.Render())
}
