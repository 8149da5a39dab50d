package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/researchflow/internal/research/entity"
)

func TestMarkdownExporter_Export(t *testing.T) {
	report := entity.Report{
		ID:        "r-1",
		SessionID: "s-1",
		Topic:     "Go generics",
		Content:   "## Introduction\n\nGenerics landed in Go 1.18.\n",
		Sources: []entity.Source{
			{URL: "https://go.dev/blog/intro-generics", Title: "An Introduction To [Generics]"},
			{URL: "https://example.com/no-title"},
		},
		WordCount: 7,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	if err := NewMarkdownExporter().Export(&buf, report); err != nil {
		t.Fatalf("Export() err = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Go generics",
		"Word Count",
		"2026-03-01 12:00:00 UTC",
		"## Introduction\n\nGenerics landed in Go 1.18.",
		"## Sources",
		"[An Introduction To (Generics)](https://go.dev/blog/intro-generics)",
		"[https://example.com/no-title](https://example.com/no-title)",
		"*Generated by researchflow*",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("export missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownExporter_NoSources(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownExporter().Export(&buf, entity.Report{ID: "r", Topic: "t"}); err != nil {
		t.Fatalf("Export() err = %v", err)
	}
	if !strings.Contains(buf.String(), "No sources were found for this topic.") {
		t.Fatalf("expected empty source notice:\n%s", buf.String())
	}
}
