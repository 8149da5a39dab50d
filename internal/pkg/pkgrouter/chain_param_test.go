package pkgrouter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChainOrderSkipsNil(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "view")
	}), mw("recover"), nil, mw("route"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/report/r1", nil))

	if diff := cmp.Diff([]string{"recover", "route", "view"}, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestParamAndPatternThroughRouter(t *testing.T) {
	ro := NewRouter(nil)

	var gotID, gotPattern string
	ro.Handle(http.MethodGet, "/research/:id", http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotID = GetParam(r.Context(), "id")
		gotPattern = RoutePattern(r.Context())
	}))

	rec := serve(t, ro, http.MethodGet, "/research/42")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != "42" || gotPattern != "/research/:id" {
		t.Fatalf("expected id=42 pattern=/research/:id, got id=%q pattern=%q", gotID, gotPattern)
	}
}
