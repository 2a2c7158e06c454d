package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <item>
      <title>Older Post</title>
      <link>https://example.com/older</link>
      <guid>guid-older</guid>
      <description>Older description</description>
      <pubDate>Mon, 02 Jun 2025 08:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Newest Post</title>
      <link>https://example.com/newest</link>
      <guid>guid-newest</guid>
      <description>Newest description with &lt;img src="https://example.com/inline.jpg"&gt;</description>
      <pubDate>Mon, 02 Jun 2025 12:00:00 GMT</pubDate>
      <enclosure url="https://example.com/enclosure.jpg" type="image/jpeg" length="1000"/>
    </item>
    <item>
      <title>No GUID Post</title>
      <link>https://example.com/no-guid</link>
      <description>Falls back to link</description>
      <pubDate>Mon, 02 Jun 2025 06:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestFetcher_Run_SortsNewestFirst(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "Test/1.0")
	items := fetcher.Run(context.Background(), server.URL)

	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}

	if items[0].GUID != "guid-newest" {
		t.Errorf("Expected newest item first, got %q", items[0].GUID)
	}
	if items[2].Title != "No GUID Post" {
		t.Errorf("Expected oldest item last, got %q", items[2].Title)
	}
}

func TestFetcher_Run_GUIDFallsBackToLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "Test/1.0")
	items := fetcher.Run(context.Background(), server.URL)

	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	if items[2].GUID != "https://example.com/no-guid" {
		t.Errorf("Expected guid fallback to link, got %q", items[2].GUID)
	}
}

func TestFetcher_Run_DiscoversMediaInPriorityOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "Test/1.0")
	items := fetcher.Run(context.Background(), server.URL)

	if len(items) == 0 {
		t.Fatal("Expected items")
	}

	newest := items[0]
	if len(newest.MediaURLs) != 2 {
		t.Fatalf("Expected 2 media urls, got %v", newest.MediaURLs)
	}
	if newest.MediaURLs[0] != "https://example.com/enclosure.jpg" {
		t.Errorf("Expected enclosure url first, got %q", newest.MediaURLs[0])
	}
	if newest.MediaURLs[1] != "https://example.com/inline.jpg" {
		t.Errorf("Expected inline image url second, got %q", newest.MediaURLs[1])
	}
}

func TestFetcher_Run_HTTPErrorReturnsNoItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "Test/1.0")

	if items := fetcher.Run(context.Background(), server.URL); items != nil {
		t.Errorf("Expected no items on HTTP error, got %d", len(items))
	}
}

func TestFetcher_Run_ParseErrorReturnsNoItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "Test/1.0")

	if items := fetcher.Run(context.Background(), server.URL); items != nil {
		t.Errorf("Expected no items on parse error, got %d", len(items))
	}
}

func TestFetcher_Run_SetsUserAgent(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "Postwave/1.0")
	fetcher.Run(context.Background(), server.URL)

	if gotUserAgent != "Postwave/1.0" {
		t.Errorf("Expected configured user agent, got %q", gotUserAgent)
	}
}
