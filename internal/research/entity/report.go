package entity

import (
	"strings"
	"time"
)

// Report is the final, edited output of a completed session.
type Report struct {
	ID        string
	SessionID string
	Topic     string
	Content   string // markdown
	Sources   []Source
	WordCount int
	CreatedAt time.Time
}

// Source is a web search hit cited by a report.
type Source struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Provider string `json:"source"`
}

// ScrapedPage is the cleaned text of a fetched source.
type ScrapedPage struct {
	URL     string
	Title   string
	Content string
	Success bool
	Err     string
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
