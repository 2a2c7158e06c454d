package compose

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-shiori/go-readability"
)

const (
	researchTimeout  = 30 * time.Second
	maxResearchChars = 4000
)

// Research gathers background context for long-form content by extracting
// the readable article text behind a source link.
type Research struct {
	httpClient *http.Client
	converter  *md.Converter
	userAgent  string
}

func NewResearch(httpClient *http.Client, userAgent string) *Research {
	return &Research{
		httpClient: httpClient,
		converter:  md.NewConverter("", true, nil),
		userAgent:  userAgent,
	}
}

// Run fetches the page and returns its readable content as markdown.
// Research is optional enrichment: every failure yields an empty string,
// never an error.
func (r *Research) Run(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return ""
	}

	text, err := r.extract(ctx, pageURL)
	if err != nil {
		slog.Debug("Research extraction failed, continuing without it", "url", pageURL, "error", err)
		return ""
	}

	return text
}

func (r *Research) extract(ctx context.Context, pageURL string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, researchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page url: %w", err)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return "", fmt.Errorf("no content extracted from page")
	}

	markdown, err := r.converter.ConvertString(article.Content)
	if err != nil {
		return "", fmt.Errorf("failed to convert content: %w", err)
	}

	if len(markdown) > maxResearchChars {
		markdown = markdown[:maxResearchChars]
	}

	return markdown, nil
}
