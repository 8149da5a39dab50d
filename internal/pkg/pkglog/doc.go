// Package pkglog sets up the slog logger shared by the HTTP server, the job
// consumer and the CLI.
//
// Records are JSON with "ts", "severity" and "file" keys, and carry the
// service name plus the correlation ID found in the context.
package pkglog
