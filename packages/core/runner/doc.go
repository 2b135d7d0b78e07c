// Package runner executes test commands and turns their result streams into
// listener callbacks.
//
// It provides functionality for:
//   - Running a test command and decoding its stdout (go test -json, TAP, JUnit)
//   - Replaying recorded result streams
//   - Dispatching one callback per finished test, in stream order
//   - Stopping after the first failure (bail)
//   - Counting outcomes and tracking the command's exit status
//
// Callbacks are always made from the goroutine that called Run or Replay.
package runner
