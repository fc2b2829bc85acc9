package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// NoResults is returned as the search text when the engine finds nothing.
const NoResults = "No good DuckDuckGo Search Result was found"

// Searcher runs one keyword search and returns the raw result text, which
// embeds the result URLs.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// DuckDuckGo searches the DuckDuckGo HTML endpoint.
type DuckDuckGo struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewDuckDuckGo creates a search client. Requests are bounded by timeout and
// paced to reqPerSec.
func NewDuckDuckGo(baseURL string, timeout time.Duration, reqPerSec float64, logger zerolog.Logger) *DuckDuckGo {
	return &DuckDuckGo{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(reqPerSec), 1),
		log:     logger.With().Str("component", "search").Logger(),
	}
}

// Search returns the first page of results as text records. Failures are
// returned to the caller.
func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("query is empty")
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for search slot: %w", err)
	}

	u, err := url.Parse(d.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing search URL: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	d.log.Debug().Str("query", query).Msg("searching")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling DuckDuckGo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("DuckDuckGo returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing DuckDuckGo response: %w", err)
	}

	var records []string
	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("result--ad") {
			return
		}
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		title := collapseWhitespace(link.Text())
		snippet := collapseWhitespace(s.Find(".result__snippet").Text())
		records = append(records, fmt.Sprintf("Title: %s\nLink: %s\nSnippet: %s", title, decodeDDGRedirect(href), snippet))
	})

	d.log.Debug().Str("query", query).Int("results", len(records)).Msg("search done")

	if len(records) == 0 {
		return NoResults, nil
	}
	return strings.Join(records, "\n---\n"), nil
}

// decodeDDGRedirect unwraps DuckDuckGo's /l/?uddg=<target> redirect links.
func decodeDDGRedirect(href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}

// SearchWebTool exposes a Searcher to the agent.
type SearchWebTool struct {
	searcher Searcher
}

// NewSearchWebTool creates the search_web tool.
func NewSearchWebTool(searcher Searcher) *SearchWebTool {
	return &SearchWebTool{searcher: searcher}
}

func (t *SearchWebTool) Name() string {
	return "search_web"
}

func (t *SearchWebTool) Description() string {
	return "Search the web for information using DuckDuckGo."
}

func (t *SearchWebTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []string{"query"},
	}
}

func (t *SearchWebTool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	query, err := requiredString(args, "query")
	if err != nil {
		return "", err
	}
	return t.searcher.Search(ctx, query)
}
