package outbound

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestPageScraper_ExtractsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing user agent")
		}
		fmt.Fprint(w, `<html><head><title> Short Page </title><style>p{}</style></head>
<body><nav>menu menu</nav><script>var x = 1;</script>
<p>Hello    world.</p>
<footer>footer text</footer></body></html>`)
	}))
	defer srv.Close()

	page := NewPageScraper(ScraperConfig{}).Scrape(context.Background(), srv.URL)

	if !page.Success {
		t.Fatalf("expected success, got error %q", page.Err)
	}
	if page.Title != "Short Page" {
		t.Fatalf("unexpected title %q", page.Title)
	}
	if page.Content != "Hello world." {
		t.Fatalf("unexpected content %q", page.Content)
	}
}

func TestPageScraper_Truncates(t *testing.T) {
	long := strings.Repeat("lorem ipsum dolor sit amet ", 50)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", long)
	}))
	defer srv.Close()

	page := NewPageScraper(ScraperConfig{MaxChars: 20}).Scrape(context.Background(), srv.URL)

	if !page.Success {
		t.Fatalf("expected success, got error %q", page.Err)
	}
	if page.Content != "lorem ipsum dolor si..." {
		t.Fatalf("unexpected content %q", page.Content)
	}
	if page.Title != "No title" {
		t.Fatalf("unexpected title %q", page.Title)
	}
}

func TestPageScraper_Failures(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	cases := []struct {
		name    string
		scraper *PageScraper
		url     string
		prefix  string
	}{
		{"status", NewPageScraper(ScraperConfig{}), notFound.URL, "HTTP 404"},
		{"timeout", NewPageScraper(ScraperConfig{Timeout: 20 * time.Millisecond}), slow.URL, "Timeout: "},
		{"connection", NewPageScraper(ScraperConfig{}), closedURL, "Connection error: "},
		{"scheme", NewPageScraper(ScraperConfig{}), "ftp://example.com/file", "Invalid URL: "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := tc.scraper.Scrape(context.Background(), tc.url)
			if page.Success {
				t.Fatalf("expected failure")
			}
			if !strings.HasPrefix(page.Err, tc.prefix) {
				t.Fatalf("error %q does not start with %q", page.Err, tc.prefix)
			}
			if page.URL != tc.url {
				t.Fatalf("url = %q, want %q", page.URL, tc.url)
			}
		})
	}
}

func TestTruncateIsRuneSafe(t *testing.T) {
	if got := truncate("héllo wörld", 4); got != "héll..." {
		t.Fatalf("truncate() = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Fatalf("truncate() = %q", got)
	}
}
