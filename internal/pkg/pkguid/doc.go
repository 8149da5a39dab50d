// Package pkguid provides helpers for generating unique identifiers.
//
// Sessions and reports are keyed by UUIDv7 strings; queued job events use
// Snowflake IDs, which are cheaper to compare and carry their creation time.
package pkguid
