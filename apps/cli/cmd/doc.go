// Package cmd implements the dotrun CLI commands using Cobra.
//
// Available commands:
//   - run: Run a test command and show one progress symbol per test
//   - replay: Show progress for a recorded result stream
//   - validate: Check a go test -json stream against the test2json schema
//   - init: Create a dotrun.yaml with default settings
//   - version: Show dotrun version information
//   - completion: Generate shell completion scripts
//
// Progress is written to stdout; diagnostics are logged to stderr.
package cmd
