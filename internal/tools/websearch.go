package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/soyeahso/voicebot/internal/logging"
)

const (
	defaultSearchURL = "https://html.duckduckgo.com/html/"
	searchFallback   = "Kunne ikke søge på nettet lige nu."
)

// SearchResult is one web search hit.
type SearchResult struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Body  string `json:"body"`
}

// WebSearch scrapes DuckDuckGo's HTML results page.
type WebSearch struct {
	HTTP       *http.Client
	Endpoint   string
	MaxResults int
	Log        *logging.Logger
}

type searchParams struct {
	Keywords string `json:"keywords"`
}

// Spec returns the search_web tool.
func (s *WebSearch) Spec() Spec {
	return Spec{
		Name:        "search_web",
		Description: "Søg på nettet efter de givne søgeord.",
		Parameters: objectSchema(map[string]any{
			"keywords": map[string]any{"type": "string"},
		}),
		Handler: Typed(func(ctx context.Context, _ State, p searchParams) (Result, error) {
			results, err := s.Search(ctx, p.Keywords)
			if err != nil {
				logOrNop(s.Log).Warn().Err(err).Str("keywords", p.Keywords).Msg("web search failed")
				return Result{Message: searchFallback}, nil
			}
			out, err := json.Marshal(results)
			if err != nil {
				return Result{}, err
			}
			return Result{Message: string(out)}, nil
		}),
	}
}

// Search returns up to MaxResults results for keywords.
func (s *WebSearch) Search(ctx context.Context, keywords string) ([]SearchResult, error) {
	endpoint := orDefault(s.Endpoint, defaultSearchURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+url.Values{"q": {keywords}}.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search: parsing results: %w", err)
	}

	limit := s.MaxResults
	if limit <= 0 {
		limit = 10
	}
	results := make([]SearchResult, 0, limit)
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.HasClass("result--ad") {
			return true
		}
		link := sel.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		results = append(results, SearchResult{
			Title: strings.TrimSpace(link.Text()),
			Href:  resolveRedirect(href),
			Body:  strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
		})
		return len(results) < limit
	})
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		u.Scheme = "https"
		return u.String()
	}
	return href
}
