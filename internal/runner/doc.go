// Package runner executes a compiled formula pack over a batch of payroll
// lines and records every evaluation in the run ledger.
//
// The runner is the host-side batch loop around the pure engine: formulas
// are parsed once (by rulepack.Compile) and executed per line, in a fixed
// order - batch row order, then formula name order - so two runs over the
// same inputs produce ledgers that differ only in timing.
//
// A faulting line never aborts the batch. The engine's propagation policy
// is strict (any fault kills that evaluation), but skip-and-continue across
// a batch is deliberately a host decision, and this host records the fault
// and moves on.
package runner
