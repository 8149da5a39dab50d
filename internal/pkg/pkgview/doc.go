// Package pkgview renders server-side HTML views inside a shared layout and
// binds them to router paths.
//
// A Table is an ordered, immutable list of routes. Each route maps a path
// pattern (httprouter syntax, for example "/report/:id") to a View. Every
// response, including the one for an unmatched URL, is wrapped in the same
// full-viewport container; an unmatched URL simply leaves the container empty.
package pkgview
