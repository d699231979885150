// Package websearch backs the search directive: it queries the DuckDuckGo
// HTML endpoint, collects the top results, and scrapes the first hit into
// markdown for the model to read on the follow-up turn.
package websearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/picobot/picobot/internal/config"
	"github.com/picobot/picobot/internal/logger"
)

const (
	searchEndpoint  = "https://html.duckduckgo.com/html/"
	maxResponseSize = 2 << 20 // 2 MiB per fetched page
	maxPageChars    = 6000    // scraped page text cap in the summary
)

// Result is one search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Client performs searches and page scrapes with a bounded HTTP client.
type Client struct {
	httpClient *http.Client
	cfg        config.SearchConfig
	log        *logger.Logger
}

// NewClient creates a search client from the search configuration.
func NewClient(cfg config.SearchConfig, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		cfg:        cfg,
		log:        log,
	}
}

// Search runs the query and returns a text block: the top results as a list,
// followed by a markdown rendition of the first result's page. The block is
// meant for model consumption, not direct display.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("websearch: empty query")
	}

	results, err := c.fetchResults(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No results for %q.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}

	// Scrape failures degrade to a results-only summary; the list alone is
	// often enough for the model to answer.
	page, err := c.scrapePage(ctx, results[0].URL)
	if err != nil {
		c.log.WarnCtx(ctx, "first result scrape failed",
			logger.Field{Key: "url", Value: results[0].URL},
			logger.Field{Key: "error", Value: err.Error()})
		return b.String(), nil
	}
	fmt.Fprintf(&b, "\nContent of %s:\n%s\n", results[0].URL, page)
	return b.String(), nil
}

// fetchResults queries the HTML endpoint and parses the result list.
func (c *Client) fetchResults(ctx context.Context, query string) ([]Result, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("websearch: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("websearch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("websearch: endpoint returned %s", resp.Status)
	}

	return parseResults(io.LimitReader(resp.Body, maxResponseSize), c.cfg.MaxResults)
}

// parseResults extracts up to limit results from a DuckDuckGo HTML results
// page.
func parseResults(r io.Reader, limit int) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("websearch: parse results: %w", err)
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find(".result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		results = append(results, Result{
			Title:   strings.TrimSpace(link.Text()),
			URL:     resolveRedirect(href),
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		})
		return len(results) < limit
	})
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the real
// target URL. Unrecognized links pass through unchanged.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		return "https:" + href
	}
	return href
}

// scrapePage fetches a result page and converts it to trimmed markdown.
func (c *Client) scrapePage(ctx context.Context, pageURL string) (string, error) {
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		return "", fmt.Errorf("websearch: unsupported url %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("websearch: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("websearch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("websearch: page returned %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		return "", fmt.Errorf("websearch: not an html page: %s", ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("websearch: %w", err)
	}

	return htmlToMarkdown(string(body)), nil
}

var newlineRuns = regexp.MustCompile(`\n{3,}`)

// htmlToMarkdown converts a page to markdown with navigation chrome
// dropped, then caps its length.
func htmlToMarkdown(html string) string {
	converter := md.NewConverter("", true, &md.Options{
		HeadingStyle:    "atx",
		CodeBlockStyle:  "fenced",
		EmDelimiter:     "*",
		StrongDelimiter: "**",
	})

	empty := ""
	converter.AddRules(md.Rule{
		Filter: []string{"nav", "footer", "aside", "script", "style"},
		Replacement: func(content string, sel *goquery.Selection, opt *md.Options) *string {
			return &empty
		},
	})

	markdown, err := converter.ConvertString(html)
	if err != nil {
		return ""
	}

	markdown = strings.TrimSpace(newlineRuns.ReplaceAllString(markdown, "\n\n"))
	if len(markdown) > maxPageChars {
		markdown = markdown[:maxPageChars] + "\n[truncated]"
	}
	return markdown
}
