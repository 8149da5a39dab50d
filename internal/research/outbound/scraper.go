package outbound

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/shandysiswandi/researchflow/internal/research/entity"
)

const (
	userAgent = "Mozilla/5.0 (compatible; researchflow/1.0; +https://github.com/shandysiswandi/researchflow)"

	// MaxContentChars caps the text kept per page.
	MaxContentChars = 5000

	maxBodyBytes = 5 << 20
)

type ScraperConfig struct {
	Timeout  time.Duration
	MaxChars int
	Client   *http.Client
}

// PageScraper fetches a page and extracts its readable text. Failures are
// reported on the returned page, never as an error.
type PageScraper struct {
	client   *http.Client
	maxChars int
}

func NewPageScraper(cfg ScraperConfig) *PageScraper {
	s := &PageScraper{client: cfg.Client, maxChars: cfg.MaxChars}
	if s.maxChars <= 0 {
		s.maxChars = MaxContentChars
	}
	if s.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		s.client = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	return s
}

func (s *PageScraper) Scrape(ctx context.Context, pageURL string) entity.ScrapedPage {
	page := entity.ScrapedPage{URL: pageURL}

	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		page.Err = "Invalid URL: " + pageURL
		return page
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		page.Err = "Invalid URL: " + pageURL
		return page
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		page.Err = describeFetchErr(err)
		return page
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		page.Err = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return page
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		page.Err = describeFetchErr(err)
		return page
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		page.Err = fmt.Sprintf("Parse error: %v", err)
		return page
	}

	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if page.Title == "" {
		page.Title = "No title"
	}

	text := ""
	if article, err := readability.FromReader(bytes.NewReader(body), resp.Request.URL); err == nil {
		text = collapseSpace(article.TextContent)
	}
	if len(text) < 100 {
		text = bodyText(doc)
	}

	page.Content = truncate(text, s.maxChars)
	page.Success = true
	return page
}

// bodyText is the whole-document text without page chrome.
func bodyText(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, aside, noscript").Remove()
	return collapseSpace(doc.Find("body").Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func describeFetchErr(err error) string {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return "Timeout: " + err.Error()
	}
	return "Connection error: " + err.Error()
}
