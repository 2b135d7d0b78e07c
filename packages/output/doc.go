// Package output renders test progress and run summaries.
//
//   - DotReporter: a listener.Listener printing ".", "F" or "S" per test,
//     wrapping every LineWidth symbols
//   - SummaryFormatter: totals and failed tests once a run has finished
package output
