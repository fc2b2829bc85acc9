package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	pages   map[string]FetchResult
	fetched []string
}

func (f *stubFetcher) Fetch(_ context.Context, url string) FetchResult {
	f.fetched = append(f.fetched, url)
	if r, ok := f.pages[url]; ok {
		return r
	}
	return FetchResult{URL: url, Err: errors.New("not found")}
}

func TestSearchAndScrapeFetchesFirstURLPerQuery(t *testing.T) {
	searcher := &stubSearcher{results: map[string]string{
		"Acme IT Services":          "Link: https://a.example/one and https://a.example/two",
		"Acme managed IT":           "Link: https://b.example/",
		"Acme technology solutions": "Link: https://a.example/one",
	}}
	fetcher := &stubFetcher{pages: map[string]FetchResult{
		"https://a.example/one": {Text: "alpha page"},
		"https://b.example/":    {Text: "beta page"},
	}}

	out, err := NewSearchScrapeTool(searcher, fetcher, zerolog.Nop()).SearchAndScrape(context.Background(), "Acme")
	require.NoError(t, err)

	assert.Equal(t, "alpha page beta page alpha page", out)
	assert.Equal(t, BuildQueries("Acme"), searcher.queries)
	assert.Equal(t, []string{"https://a.example/one", "https://b.example/", "https://a.example/one"}, fetcher.fetched)
}

func TestSearchAndScrapeSkipsQueriesWithoutURLs(t *testing.T) {
	all := &stubSearcher{results: map[string]string{
		"Acme IT Services":          "https://a.example/",
		"Acme managed IT":           "https://b.example/",
		"Acme technology solutions": "https://c.example/",
	}}
	partial := &stubSearcher{results: map[string]string{
		"Acme IT Services":          "https://a.example/",
		"Acme managed IT":           NoResults,
		"Acme technology solutions": "https://c.example/",
	}}
	fetcher := &stubFetcher{pages: map[string]FetchResult{
		"https://a.example/": {Text: "one two"},
		"https://b.example/": {Text: "three four"},
		"https://c.example/": {Text: "five six"},
	}}

	full, err := NewSearchScrapeTool(all, fetcher, zerolog.Nop()).SearchAndScrape(context.Background(), "Acme")
	require.NoError(t, err)
	missing, err := NewSearchScrapeTool(partial, fetcher, zerolog.Nop()).SearchAndScrape(context.Background(), "Acme")
	require.NoError(t, err)

	assert.Equal(t, "one two five six", missing)
	assert.Less(t, len(strings.Fields(missing)), len(strings.Fields(full)))
}

func TestSearchAndScrapeNoURLsAtAll(t *testing.T) {
	out, err := NewSearchScrapeTool(&stubSearcher{}, &stubFetcher{}, zerolog.Nop()).SearchAndScrape(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestSearchAndScrapeFetchErrorBecomesText(t *testing.T) {
	searcher := &stubSearcher{results: map[string]string{"Acme IT Services": "https://down.example/"}}
	out, err := NewSearchScrapeTool(searcher, &stubFetcher{}, zerolog.Nop()).SearchAndScrape(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Error scraping website: not found", out)
}

func TestSearchAndScrapeSearchErrorPropagates(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("rate limited")}
	fetcher := &stubFetcher{}

	_, err := NewSearchScrapeTool(searcher, fetcher, zerolog.Nop()).SearchAndScrape(context.Background(), "Acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Empty(t, fetcher.fetched)
}

func TestSearchScrapeToolWithRealFetcher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>Acme  Dental</p></body></html>")) //nolint:errcheck
	}))
	defer ts.Close()

	searcher := &stubSearcher{results: map[string]string{"Acme IT Services": "Link: " + ts.URL + "/home"}}
	tool := NewSearchScrapeTool(searcher, newTestFetcher(), zerolog.Nop())

	args, _ := json.Marshal(map[string]string{"company_name": "Acme"})
	out, err := tool.Execute(context.Background(), args)
	require.NoError(t, err)
	assert.Equal(t, "Acme Dental", out)

	_, err = tool.Execute(context.Background(), json.RawMessage(`{"company_name": ""}`))
	assert.Error(t, err)
}

func TestExtractURLs(t *testing.T) {
	text := `see https://example.com/a-b_c?x=1&y=%20z, or http://foo.example/(bar) "quoted" #frag`
	assert.Equal(t, []string{
		"https://example.com/a-b_c?x=1&y=%20z,",
		"http://foo.example/(bar)",
	}, ExtractURLs(text))
	assert.Empty(t, ExtractURLs("no links here"))
}
