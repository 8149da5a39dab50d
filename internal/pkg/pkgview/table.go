package pkgview

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkgerror"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkgrouter"
)

//go:embed layout.html
var layoutHTML string

var (
	// ErrInvalidPattern is returned for a pattern that does not start with "/".
	ErrInvalidPattern = errors.New("route pattern must start with /")
	// ErrDuplicatePattern is returned when two routes share a pattern.
	ErrDuplicatePattern = errors.New("duplicate route pattern")
	// ErrNilView is returned for a route without a view.
	ErrNilView = errors.New("route has no view")
)

// Mux is the part of the router a Table registers itself on.
type Mux interface {
	Handle(method, path string, h http.Handler, mws ...pkgrouter.Middleware)
	NotFound(h http.Handler)
}

// Table is the ordered set of navigable paths of the application.
type Table struct {
	app    string
	layout *template.Template
	routes []Route
}

type layoutData struct {
	App     string
	Title   string
	Refresh int
	Body    template.HTML
}

// NewTable validates routes and parses the shared layout. app is the
// application name shown in the document title.
func NewTable(app string, routes ...Route) (*Table, error) {
	seen := make(map[string]struct{}, len(routes))
	for _, rt := range routes {
		if !strings.HasPrefix(rt.Pattern, "/") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, rt.Pattern)
		}
		if rt.View == nil {
			return nil, fmt.Errorf("%w: %q", ErrNilView, rt.Pattern)
		}
		if _, dup := seen[rt.Pattern]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePattern, rt.Pattern)
		}
		seen[rt.Pattern] = struct{}{}
	}

	layout, err := template.New("layout").Parse(layoutHTML)
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	return &Table{
		app:    app,
		layout: layout,
		routes: append([]Route(nil), routes...),
	}, nil
}

// Routes returns a copy of the declared routes in order.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Register binds every route as a GET handler and installs the empty-outlet
// handler for unmatched URLs. Misses under one of apiPrefixes keep the
// router's JSON not-found response.
func (t *Table) Register(mux Mux, apiPrefixes ...string) {
	for _, rt := range t.routes {
		mux.Handle(http.MethodGet, rt.Pattern, t.handler(rt.View))
	}
	mux.NotFound(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, p := range apiPrefixes {
			if strings.HasPrefix(r.URL.Path, p) {
				pkgrouter.NotFoundJSON(w, r)
				return
			}
		}
		t.serveEmpty(w, r)
	}))
}

func (t *Table) handler(v View) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		page, err := v.Render(ctx, r)
		if err != nil {
			page = t.errorPage(ctx, err)
		}

		t.write(ctx, w, page)
	})
}

// serveEmpty renders the layout with nothing in the outlet. No catch-all view
// exists, so an unmatched URL shows the bare container.
func (t *Table) serveEmpty(w http.ResponseWriter, r *http.Request) {
	t.write(r.Context(), w, Page{Status: http.StatusNotFound})
}

func (t *Table) errorPage(ctx context.Context, err error) Page {
	perr := pkgerror.From(err)
	if perr.Type() == pkgerror.TypeServer {
		slog.ErrorContext(ctx, "view failed to render", "route", pkgrouter.RoutePattern(ctx), "error", err)
	}

	body := fmt.Sprintf(`<main><p class="error">%s</p><p><a href="/">Back to home</a></p></main>`,
		template.HTMLEscapeString(perr.Msg()))

	return Page{
		Title:  "Error",
		Status: perr.StatusCode(),
		Body:   template.HTML(body), //nolint:gosec // message is escaped above
	}
}

func (t *Table) write(ctx context.Context, w http.ResponseWriter, page Page) {
	var buf bytes.Buffer
	if err := t.layout.Execute(&buf, layoutData{
		App:     t.app,
		Title:   page.Title,
		Refresh: page.Refresh,
		Body:    page.Body,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to execute layout", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	status := page.Status
	if status == 0 {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
