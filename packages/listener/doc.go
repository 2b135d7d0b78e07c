// Package listener defines the callback contract between a test runner and
// anything that wants to observe test outcomes.
//
// A runner reports every finished test through exactly one of three hooks:
//   - OnFailure for failed tests
//   - OnSkipped for skipped tests
//   - OnSuccess for passed tests
//
// Adapter can be embedded by listeners that only care about some outcomes,
// and Multi fans a single stream of callbacks out to several listeners.
package listener
