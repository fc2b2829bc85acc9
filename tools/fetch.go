package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

const (
	// MaxScrapedChars caps the text returned for one page, in characters.
	MaxScrapedChars = 5000

	fetchErrorPrefix = "Error scraping website: "
	maxBodyBytes     = 5 << 20
	userAgent        = "Mozilla/5.0 (compatible; leadgen/1.0)"
)

// FetchResult is the outcome of fetching one page: either normalized page
// text or the reason the fetch failed.
type FetchResult struct {
	URL  string
	Text string
	Err  error
}

// OK reports whether the page was fetched and parsed.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// String collapses the result into the text handed to the model. Failures
// become an error marker so they can be told apart from page content.
func (r FetchResult) String() string {
	if r.Err != nil {
		return truncateChars(fetchErrorPrefix+r.Err.Error(), MaxScrapedChars)
	}
	return r.Text
}

// Fetcher downloads a web page and reduces it to plain text. It never
// retries.
type Fetcher struct {
	httpClient *http.Client
	log        zerolog.Logger
}

// NewFetcher creates a fetcher whose requests are bounded by timeout.
func NewFetcher(timeout time.Duration, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: logger.With().Str("component", "scrape").Logger(),
	}
}

// Fetch issues one GET for url. Transport, status and parse failures are
// reported in the result, never as a Go error.
func (f *Fetcher) Fetch(ctx context.Context, url string) FetchResult {
	result := FetchResult{URL: url}

	f.log.Debug().Str("url", url).Msg("fetching")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		result.Err = fmt.Errorf("creating request: %w", err)
		return result
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("fetching URL: %w", err)
		f.log.Warn().Err(result.Err).Str("url", url).Msg("fetch failed")
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		result.Err = fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		f.log.Warn().Int("status", resp.StatusCode).Str("url", url).Msg("fetch failed")
		return result
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		result.Err = fmt.Errorf("decoding response: %w", err)
		return result
	}

	text, err := ExtractText(body)
	if err != nil {
		result.Err = err
		return result
	}

	result.Text = truncateChars(text, MaxScrapedChars)
	f.log.Debug().Str("url", url).Int("chars", utf8.RuneCountInString(result.Text)).Msg("extracted text")
	return result
}

// ExtractText parses an HTML document and returns its visible text with all
// whitespace runs collapsed to single spaces.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	var sb strings.Builder
	extractTextFromNode(doc, &sb)
	return collapseWhitespace(sb.String()), nil
}

func extractTextFromNode(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "template", "svg":
			return
		}
	}

	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteString(" ")
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractTextFromNode(c, sb)
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateChars keeps the first max characters of s without splitting a
// multi-byte rune.
func truncateChars(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
