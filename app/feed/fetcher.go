package feed

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const (
	// maxMediaURLs bounds the downstream payload size per item.
	maxMediaURLs = 8

	fetchTimeout = 30 * time.Second
)

type Fetcher struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
	}
}

// Run fetches a feed and returns its items newest-first. Any fetch or parse
// failure is swallowed and logged: the caller must treat "no items" and
// "fetch failed" identically, neither produces a trigger.
func (f *Fetcher) Run(ctx context.Context, url string) []Item {
	items, err := f.fetchItems(ctx, url)
	if err != nil {
		slog.Warn("Feed fetch failed, treating as no new items", "url", url, "error", err)
		return nil
	}
	return items
}

func (f *Fetcher) fetchItems(ctx context.Context, url string) ([]Item, error) {
	data, err := f.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	parsed, err := f.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		items = append(items, f.normalizeItem(item))
	}

	// Source documents are not guaranteed to be chronologically ordered.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	return items, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (f *Fetcher) normalizeItem(item *gofeed.Item) Item {
	normalized := Item{
		GUID:        cmp.Or(item.GUID, item.Link),
		Title:       item.Title,
		Link:        item.Link,
		Description: item.Description,
		Content:     item.Content,
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = *item.PublishedParsed
	}

	normalized.MediaURLs = discoverMedia(item)

	return normalized
}

// discoverMedia collects candidate media URLs in priority order: structured
// enclosure fields first, then the item image, then references embedded in
// content and description. Duplicates are removed, the result is capped.
func discoverMedia(item *gofeed.Item) []string {
	seen := make(map[string]bool)
	var urls []string

	add := func(url string) {
		url = strings.TrimSpace(url)
		if url == "" || seen[url] || len(urls) >= maxMediaURLs {
			return
		}
		seen[url] = true
		urls = append(urls, url)
	}

	for _, enclosure := range item.Enclosures {
		if enclosure != nil {
			add(enclosure.URL)
		}
	}

	if item.Image != nil {
		add(item.Image.URL)
	}

	for _, url := range extractImageURLs(item.Content) {
		add(url)
	}
	for _, url := range extractImageURLs(item.Description) {
		add(url)
	}

	return urls
}

func extractImageURLs(html string) []string {
	if html == "" || !strings.Contains(html, "<img") {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var urls []string
	doc.Find("img").Each(func(_ int, selection *goquery.Selection) {
		if src, ok := selection.Attr("src"); ok {
			urls = append(urls, src)
		}
	})

	return urls
}
