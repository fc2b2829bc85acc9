package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// urlPattern matches http(s) URLs made of common URL characters and
// %XX escapes.
var urlPattern = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\\(\\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)

// PageFetcher fetches a single page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) FetchResult
}

// SearchScrapeTool searches for a company with each lead query and scrapes
// the first result of every search.
type SearchScrapeTool struct {
	searcher Searcher
	fetcher  PageFetcher
	log      zerolog.Logger
}

// NewSearchScrapeTool creates the search_and_scrape tool.
func NewSearchScrapeTool(searcher Searcher, fetcher PageFetcher, logger zerolog.Logger) *SearchScrapeTool {
	return &SearchScrapeTool{
		searcher: searcher,
		fetcher:  fetcher,
		log:      logger.With().Str("component", "scrape").Logger(),
	}
}

func (t *SearchScrapeTool) Name() string {
	return "search_and_scrape"
}

func (t *SearchScrapeTool) Description() string {
	return `Search the web for a company and scrape the top result of each search.

Input: A company name
Output: The combined text of the scraped pages

Runs one search per IT-related keyword and scrapes the first URL found in each.`
}

func (t *SearchScrapeTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"company_name": map[string]any{
				"type":        "string",
				"description": "The name of the company to research",
			},
		},
		"required": []string{"company_name"},
	}
}

func (t *SearchScrapeTool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	args, err := parseArgs(raw)
	if err != nil {
		return "", err
	}
	company, err := requiredString(args, "company_name")
	if err != nil {
		return "", err
	}
	return t.SearchAndScrape(ctx, company)
}

// SearchAndScrape runs the lead queries for company in order and joins the
// scraped text with single spaces. Queries whose results hold no URL add
// nothing. A search failure aborts the whole call.
func (t *SearchScrapeTool) SearchAndScrape(ctx context.Context, company string) (string, error) {
	var results []string

	for _, query := range BuildQueries(company) {
		searchResults, err := t.searcher.Search(ctx, query)
		if err != nil {
			return "", fmt.Errorf("searching %q: %w", query, err)
		}

		urls := ExtractURLs(searchResults)
		if len(urls) == 0 {
			t.log.Debug().Str("query", query).Msg("no URL in search results")
			continue
		}

		page := t.fetcher.Fetch(ctx, urls[0])
		results = append(results, page.String())
	}

	t.log.Info().Str("company", company).Int("pages", len(results)).Msg("scraped company")
	return strings.Join(results, " "), nil
}

// ExtractURLs returns every URL-shaped substring of text, in order.
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}
