// Package pkgrouter wraps HTTP routing and common middleware used by the API
// and the server-rendered pages.
//
// It provides a small router abstraction over httprouter plus shared concerns
// like JSON encoding, error mapping, logging, recovery, and correlation ID
// propagation. Path parameters such as ":id" are read back with GetParam.
package pkgrouter
