// Package harness runs formula conformance scenarios.
//
// A scenario is a YAML file pairing one formula with a set of cases, each
// declaring bindings and either an expected value, an expected engine
// error code, or both an expected value and the variables the engine must
// report as used:
//
//	name: overtime_pay
//	formula: "overtime_hours * overtime_rate"
//	cases:
//	  - bindings: {overtime_hours: 10, overtime_rate: 37.5}
//	    expect_value: 375
//	  - bindings: {overtime_hours: 10}
//	    expect_error: MISSING_VARIABLE
//
// Run produces a Trace: the parsed tree's canonical rendering plus the
// outcome of every case. Verify checks the trace against the scenario's
// expectations, and RunWithGolden snapshots the rendered trace through a
// golden file so behavior drift shows up as a diff. Traces never include
// timing, so golden files are byte-stable.
package harness
