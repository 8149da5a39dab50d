package inbound

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkgerror"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkglog"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/researchflow/internal/pkg/pkgview"
	"github.com/shandysiswandi/researchflow/internal/research/entity"
	"github.com/shandysiswandi/researchflow/internal/research/usecase"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	recentOnHome  = 10
	refreshPeriod = 3
)

// HTTPView renders the Home, Research and Report screens.
type HTTPView struct {
	uc    uc
	md    goldmark.Markdown
	pages *template.Template
}

func NewHTTPView(uc uc) (*HTTPView, error) {
	v := &HTTPView{
		uc: uc,
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}

	funcMap := template.FuncMap{
		"markdown":    v.renderMarkdown,
		"statusLabel": statusLabel,
		"formatTime":  formatTime,
	}

	pages, err := template.New("pages").Funcs(funcMap).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing view templates: %w", err)
	}
	v.pages = pages

	return v, nil
}

// NewRouteTable declares the navigable paths of the application.
func NewRouteTable(v *HTTPView) (*pkgview.Table, error) {
	return pkgview.NewTable(pkglog.ServiceName,
		pkgview.Route{Pattern: "/", View: pkgview.ViewFunc(v.Home)},
		pkgview.Route{Pattern: "/research/:id", View: pkgview.ViewFunc(v.Research)},
		pkgview.Route{Pattern: "/report/:id", View: pkgview.ViewFunc(v.Report)},
	)
}

type homeData struct {
	Error    string
	Topic    string
	Depth    entity.Depth
	Depths   []entity.Depth
	Sessions []usecase.StatusResult
}

func (v *HTTPView) Home(ctx context.Context, r *http.Request) (pkgview.Page, error) {
	sessions, err := v.uc.Recent(ctx, recentOnHome)
	if err != nil {
		return pkgview.Page{}, err
	}

	q := r.URL.Query()
	depth := entity.Depth(q.Get("depth"))
	if !depth.Valid() {
		depth = entity.DepthMedium
	}

	data := homeData{
		Error:    q.Get("error"),
		Topic:    q.Get("topic"),
		Depth:    depth,
		Depths:   []entity.Depth{entity.DepthQuick, entity.DepthMedium, entity.DepthDeep},
		Sessions: sessions,
	}

	return v.page(ctx, "home.html", data, pkgview.Page{})
}

func (v *HTTPView) Research(ctx context.Context, r *http.Request) (pkgview.Page, error) {
	result, err := v.uc.Status(ctx, pkgrouter.GetParam(ctx, "id"))
	if err != nil {
		return pkgview.Page{}, err
	}

	page := pkgview.Page{Title: result.Topic}
	if !result.Status.Terminal() {
		page.Refresh = refreshPeriod
	}

	return v.page(ctx, "research.html", result, page)
}

func (v *HTTPView) Report(ctx context.Context, r *http.Request) (pkgview.Page, error) {
	report, err := v.uc.Report(ctx, pkgrouter.GetParam(ctx, "id"))
	if err != nil {
		return pkgview.Page{}, err
	}

	return v.page(ctx, "report.html", toReportResponse(report), pkgview.Page{Title: report.Topic})
}

// SubmitHandler handles the home form. It redirects to the new session on
// success and back to the form with the message otherwise.
func (v *HTTPView) SubmitHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
		if err := r.ParseForm(); err != nil {
			redirectHome(w, r, "Invalid form submission", "", "")
			return
		}

		topic := r.PostForm.Get("topic")
		depth := r.PostForm.Get("depth")

		result, err := v.uc.Create(r.Context(), usecase.CreateInput{Topic: topic, Depth: depth})
		if err != nil {
			redirectHome(w, r, formError(r.Context(), err), topic, depth)
			return
		}

		http.Redirect(w, r, "/research/"+url.PathEscape(result.SessionID), http.StatusSeeOther)
	})
}

func redirectHome(w http.ResponseWriter, r *http.Request, msg, topic, depth string) {
	q := url.Values{"error": {msg}}
	if topic != "" {
		q.Set("topic", topic)
	}
	if depth != "" {
		q.Set("depth", depth)
	}
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}

func formError(ctx context.Context, err error) string {
	perr := pkgerror.From(err)
	if perr.Type() == pkgerror.TypeValidation && perr.Unwrap() != nil {
		return perr.Unwrap().Error()
	}
	if perr.Type() == pkgerror.TypeServer {
		slog.ErrorContext(ctx, "research form submission failed", "error", err)
	}
	return perr.Msg()
}

func (v *HTTPView) page(ctx context.Context, name string, data any, page pkgview.Page) (pkgview.Page, error) {
	var buf bytes.Buffer
	if err := v.pages.ExecuteTemplate(&buf, name, data); err != nil {
		return pkgview.Page{}, pkgerror.NewServer(fmt.Errorf("render %s: %w", name, err))
	}

	page.Body = template.HTML(buf.String()) //nolint:gosec // produced by html/template
	return page, nil
}

func (v *HTTPView) renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := v.md.Convert([]byte(text), &buf); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(text) + "</pre>") //nolint:gosec // escaped
	}
	return template.HTML(buf.String()) //nolint:gosec // goldmark drops raw HTML unless WithUnsafe
}

func statusLabel(s entity.SessionStatus) string {
	label := strings.ReplaceAll(string(s), "_", " ")
	if label == "" {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04 MST")
}
