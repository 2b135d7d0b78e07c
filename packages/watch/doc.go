// Package watch re-runs a function when source files change.
//
// Directories are watched recursively. Bursts of file events are debounced
// into a single run, and runs are throttled by a token bucket so that tools
// rewriting many files cannot trigger a run storm. Runs never overlap: they
// happen on the goroutine that called Watcher.Run.
package watch
