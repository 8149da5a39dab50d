package pkgrouter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkglog"
)

type countingGenerator struct {
	value string
	calls int
}

func (g *countingGenerator) Generate() string {
	g.calls++
	return g.value
}

func TestMiddlewareCorrelationIDSources(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		want      string
		generated bool
	}{
		{
			name:    "correlation header wins",
			headers: map[string]string{HeaderCorrelationID: "submit-1", HeaderRequestID: "proxy-1"},
			want:    "submit-1",
		},
		{
			name:    "request id from proxy",
			headers: map[string]string{HeaderRequestID: " proxy-1 "},
			want:    "proxy-1",
		},
		{
			name:    "trace id from traceparent",
			headers: map[string]string{HeaderTraceParent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
			want:    "4bf92f3577b34da6a3ce929d0e0e4736",
		},
		{
			name:      "malformed traceparent falls back to generator",
			headers:   map[string]string{HeaderTraceParent: "00-00000000000000000000000000000000-00f067aa0ba902b7-01"},
			want:      "evt-generated",
			generated: true,
		},
		{
			name:      "nothing sent",
			want:      "evt-generated",
			generated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &countingGenerator{value: "evt-generated"}

			var gotCID string
			h := middlewareCorrelationID(gen)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				gotCID = pkglog.GetCorrelationID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/research", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if gotCID != tt.want {
				t.Fatalf("context cid = %q, want %q", gotCID, tt.want)
			}
			if got := rec.Header().Get(HeaderCorrelationID); got != tt.want {
				t.Fatalf("response cid = %q, want %q", got, tt.want)
			}
			if (gen.calls == 1) != tt.generated {
				t.Fatalf("generator calls = %d, generated = %v", gen.calls, tt.generated)
			}
		})
	}
}

func TestMiddlewareCorrelationIDWithoutGenerator(t *testing.T) {
	var gotCID string
	h := middlewareCorrelationID(nil)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotCID = pkglog.GetCorrelationID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/research/42", nil))

	if gotCID != "" || rec.Header().Get(HeaderCorrelationID) != "" {
		t.Fatalf("expected no correlation id, got ctx=%q header=%q", gotCID, rec.Header().Get(HeaderCorrelationID))
	}
}
