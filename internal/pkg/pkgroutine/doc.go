// Package pkgroutine contains helpers for running goroutines safely.
//
// The Manager type bounds concurrency for a batch of tasks, collects returned
// errors, and turns panics into errors so that fan-out work does not crash the
// process silently.
package pkgroutine
