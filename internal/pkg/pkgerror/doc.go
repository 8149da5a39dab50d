// Package pkgerror holds the error values shared by the research usecase, the
// JSON API and the HTML views.
//
// Stores return ErrNotFound; the usecase wraps it in an *Error whose code
// both the router and the views map to an HTTP status.
package pkgerror
