// Package store persists the results of batch formula runs.
//
// The formula engine itself never touches storage - it neither persists nor
// versions formulas. What the host does need durably is an audit ledger of
// what a payroll run computed: which formula, for which line, produced
// which value (or which fault), reading which variables, in how long. That
// ledger lives here, in SQLite.
//
// One run row is written per batch, one line row per (payroll line,
// formula) evaluation. Line rows are written as the run progresses so a
// crashed run leaves a readable partial ledger.
package store
