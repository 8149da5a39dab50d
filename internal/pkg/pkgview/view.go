package pkgview

import (
	"context"
	"html/template"
	"net/http"
)

// Page is what a View contributes to the layout.
type Page struct {
	// Title is prefixed to the application name in the document title.
	Title string
	// Status defaults to 200 when zero.
	Status int
	// Refresh, when positive, makes the browser reload the page after that
	// many seconds.
	Refresh int
	// Body fills the layout outlet.
	Body template.HTML
}

// View renders one screen of the application.
type View interface {
	Render(ctx context.Context, r *http.Request) (Page, error)
}

// ViewFunc adapts a function to the View interface.
type ViewFunc func(ctx context.Context, r *http.Request) (Page, error)

// Render calls f.
func (f ViewFunc) Render(ctx context.Context, r *http.Request) (Page, error) {
	return f(ctx, r)
}

// Route binds a path pattern to a view.
type Route struct {
	Pattern string
	View    View
}
