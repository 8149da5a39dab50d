// Package export renders stored reports as standalone documents.
package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/shandysiswandi/researchflow/internal/research/entity"
)

// MarkdownExporter writes a report as a markdown document with a metadata
// table and a linked source list.
type MarkdownExporter struct{}

func NewMarkdownExporter() MarkdownExporter {
	return MarkdownExporter{}
}

func (MarkdownExporter) Export(w io.Writer, report entity.Report) error {
	md := markdown.NewMarkdown(w)

	md.H1(report.Topic)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Report ID", "`" + report.ID + "`"},
			{"Session ID", "`" + report.SessionID + "`"},
			{"Created", report.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST")},
			{"Word Count", strconv.Itoa(report.WordCount)},
		},
	})
	md.PlainText("")

	md.PlainText(strings.TrimSpace(report.Content))
	md.PlainText("")

	md.H2("Sources")
	md.PlainText("")
	if len(report.Sources) == 0 {
		md.PlainText("No sources were found for this topic.")
	} else {
		links := make([]string, 0, len(report.Sources))
		for _, s := range report.Sources {
			links = append(links, markdown.Link(sourceTitle(s), s.URL))
		}
		md.BulletList(links...)
	}
	md.PlainText("")

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by researchflow*")

	return md.Build()
}

func sourceTitle(s entity.Source) string {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = s.URL
	}
	// brackets would end the link text early
	return strings.NewReplacer("[", "(", "]", ")").Replace(title)
}
