package outbound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/shandysiswandi/researchflow/internal/research/entity"
)

const (
	DefaultTavilyURL     = "https://api.tavily.com/search"
	DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

	ProviderTavily     = "tavily"
	ProviderDuckDuckGo = "duckduckgo"
)

type SearchConfig struct {
	TavilyAPIKey  string
	TavilyURL     string
	DuckDuckGoURL string
	Timeout       time.Duration
	Client        *http.Client
}

// WebSearch queries Tavily when a key is configured and falls back to the
// DuckDuckGo HTML endpoint. It never returns an error; a total failure is an
// empty result.
type WebSearch struct {
	apiKey    string
	tavilyURL string
	ddgURL    string
	client    *http.Client
}

func NewWebSearch(cfg SearchConfig) *WebSearch {
	s := &WebSearch{
		apiKey:    strings.TrimSpace(cfg.TavilyAPIKey),
		tavilyURL: cfg.TavilyURL,
		ddgURL:    cfg.DuckDuckGoURL,
		client:    cfg.Client,
	}
	if s.tavilyURL == "" {
		s.tavilyURL = DefaultTavilyURL
	}
	if s.ddgURL == "" {
		s.ddgURL = DefaultDuckDuckGoURL
	}
	if s.client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		s.client = &http.Client{Timeout: timeout}
	}
	return s
}

func (s *WebSearch) Search(ctx context.Context, query string, maxResults int) []entity.Source {
	if maxResults <= 0 {
		maxResults = 8
	}

	if s.apiKey != "" {
		results, err := s.tavily(ctx, query, maxResults)
		if err != nil {
			slog.WarnContext(ctx, "tavily search failed, falling back", "query", query, "error", err)
		} else if len(results) > 0 {
			return results
		}
	}

	results, err := s.duckduckgo(ctx, query, maxResults)
	if err != nil {
		slog.ErrorContext(ctx, "all search providers failed", "query", query, "error", err)
		return nil
	}
	return results
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

func (s *WebSearch) tavily(ctx context.Context, query string, maxResults int) ([]entity.Source, error) {
	data, err := json.Marshal(tavilyRequest{
		APIKey:      s.apiKey,
		Query:       query,
		MaxResults:  maxResults,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tavilyURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	results := make([]entity.Source, 0, len(out.Results))
	for _, r := range out.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, entity.Source{
			URL:      r.URL,
			Title:    r.Title,
			Snippet:  r.Content,
			Provider: ProviderTavily,
		})
		if len(results) == maxResults {
			break
		}
	}
	return results, nil
}

func (s *WebSearch) duckduckgo(ctx context.Context, query string, maxResults int) ([]entity.Source, error) {
	u := s.ddgURL + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing results: %w", err)
	}

	var results []entity.Source
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveDuckDuckGoLink(href)
		if target == "" {
			return true
		}
		results = append(results, entity.Source{
			URL:      target,
			Title:    strings.TrimSpace(link.Text()),
			Snippet:  strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
			Provider: ProviderDuckDuckGo,
		})
		return len(results) < maxResults
	})

	return results, nil
}

// resolveDuckDuckGoLink unwraps "//duckduckgo.com/l/?uddg=<target>" redirect
// links into the target URL.
func resolveDuckDuckGoLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return href
	}
	return ""
}
