// Package events decodes machine-readable test result streams into test
// outcomes.
//
// Supported formats:
//   - go: the line-delimited JSON written by "go test -json" (test2json)
//   - tap: Test Anything Protocol, versions 12 and 13
//   - junit: JUnit XML reports
//
// Only finished tests become events. Package-level results, plans, suites and
// free-form output are consumed but not reported on their own.
package events
