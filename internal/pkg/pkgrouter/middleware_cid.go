package pkgrouter

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/researchflow/internal/pkg/pkglog"
)

// Generator generates correlation IDs for requests that arrive without one.
type Generator interface {
	Generate() string
}

const (
	// HeaderCorrelationID is echoed on every response. A research submission
	// carries it into the queued job, so the job's logs can be joined back to
	// the request that created it.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID is the name some proxies use instead.
	HeaderRequestID = "X-Request-ID"
	// HeaderTraceParent is the W3C trace context header; its trace-id is used
	// when no explicit correlation ID is sent.
	HeaderTraceParent = "Traceparent"
)

const maxCIDLen = 128

func normalizeCID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, "\r\n") {
		return ""
	}
	if len(v) > maxCIDLen {
		v = v[:maxCIDLen]
	}
	return v
}

// traceID extracts the trace-id of a "version-traceid-spanid-flags" value.
func traceID(traceparent string) string {
	parts := strings.Split(strings.TrimSpace(traceparent), "-")
	if len(parts) != 4 || len(parts[1]) != 32 || strings.Trim(parts[1], "0") == "" {
		return ""
	}
	for _, c := range parts[1] {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return ""
		}
	}
	return parts[1]
}

func requestCID(r *http.Request) string {
	if cid := normalizeCID(r.Header.Get(HeaderCorrelationID)); cid != "" {
		return cid
	}
	if cid := normalizeCID(r.Header.Get(HeaderRequestID)); cid != "" {
		return cid
	}
	return traceID(r.Header.Get(HeaderTraceParent))
}

func middlewareCorrelationID(uid Generator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid := requestCID(r)
			if cid == "" && uid != nil {
				cid = uid.Generate()
			}

			if cid != "" {
				w.Header().Set(HeaderCorrelationID, cid)
				r = r.WithContext(pkglog.SetCorrelationID(r.Context(), cid))
			}

			next.ServeHTTP(w, r)
		})
	}
}
