package content

import (
	"strings"
	"testing"
)

func TestParseParts_NumberedThread(t *testing.T) {
	raw := "Here is your thread:\n\n1. First point about the topic\n2. Second point with more detail\n3. Third and final point"

	parts := ParseParts(raw, KindThread)

	if len(parts) != 3 {
		t.Fatalf("Expected 3 parts, got %d", len(parts))
	}

	if parts[0].Index != 1 || parts[2].Index != 3 {
		t.Errorf("Expected 1-based indices in order, got %d and %d", parts[0].Index, parts[2].Index)
	}

	if parts[0].Text != "First point about the topic" {
		t.Errorf("Unexpected first part text: %q", parts[0].Text)
	}

	if strings.Contains(parts[0].Text, "Here is your thread") {
		t.Error("Preamble before the first marker should be discarded")
	}
}

func TestParseParts_SeparatorTakesPrecedence(t *testing.T) {
	raw := "First segment\n---\nSecond segment\n---\nThird segment"

	parts := ParseParts(raw, KindCarousel)

	if len(parts) != 3 {
		t.Fatalf("Expected 3 parts, got %d", len(parts))
	}
	if parts[1].Text != "Second segment" {
		t.Errorf("Unexpected second part text: %q", parts[1].Text)
	}
}

func TestParseParts_LabeledSlides(t *testing.T) {
	raw := "Slide 1: The hook\nSlide 2: The problem\nSlide 3: The solution"

	parts := ParseParts(raw, KindCarousel)

	if len(parts) != 3 {
		t.Fatalf("Expected 3 parts, got %d", len(parts))
	}

	for i, part := range parts {
		if strings.Contains(part.Text, "Slide") {
			t.Errorf("Part %d should have its label prefix stripped, got %q", i, part.Text)
		}
	}
	if parts[0].Text != "The hook" {
		t.Errorf("Unexpected first slide text: %q", parts[0].Text)
	}
}

func TestParseParts_EmbeddedJSON(t *testing.T) {
	raw := "Here are the messages as JSON:\n[\"first message\", \"second message\", \"third message\"]"

	parts := ParseParts(raw, KindThread)

	if len(parts) != 3 {
		t.Fatalf("Expected 3 parts, got %d", len(parts))
	}
	if parts[1].Text != "second message" {
		t.Errorf("Unexpected second part text: %q", parts[1].Text)
	}
}

func TestParseParts_UnstructuredReturnsNil(t *testing.T) {
	raw := "Just one block of prose without any structure markers at all."

	if parts := ParseParts(raw, KindThread); parts != nil {
		t.Errorf("Expected nil for unstructured text, got %d parts", len(parts))
	}
}

func TestParseParts_NonCompositeKindReturnsNil(t *testing.T) {
	raw := "1. First\n2. Second\n3. Third"

	if parts := ParseParts(raw, KindPost); parts != nil {
		t.Errorf("Expected nil for non-composite kind, got %d parts", len(parts))
	}
}

func TestParseParts_BelowMinimumReturnsNil(t *testing.T) {
	// Carousel requires at least 3 parts
	raw := "Slide 1: only\nSlide 2: two"

	if parts := ParseParts(raw, KindCarousel); parts != nil {
		t.Errorf("Expected nil below the minimum part count, got %d parts", len(parts))
	}
}

func TestParseParts_TruncatesToPartLimit(t *testing.T) {
	long := strings.Repeat("x", 500)
	raw := "1. " + long + "\n2. short second message"

	parts := ParseParts(raw, KindThread)

	if len(parts) != 2 {
		t.Fatalf("Expected 2 parts, got %d", len(parts))
	}
	if len([]rune(parts[0].Text)) > 280 {
		t.Errorf("Expected part truncated to 280 runes, got %d", len([]rune(parts[0].Text)))
	}
}

func TestDistributeMedia_RoundRobin(t *testing.T) {
	parts := []Part{{Index: 1}, {Index: 2}, {Index: 3}}
	urls := []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}

	DistributeMedia(parts, urls, 4)

	if len(parts[0].MediaURLs) != 2 {
		t.Errorf("Expected first part to get 2 urls, got %d", len(parts[0].MediaURLs))
	}
	if parts[0].MediaURLs[0] != "a.jpg" || parts[0].MediaURLs[1] != "d.jpg" {
		t.Errorf("Unexpected first part urls: %v", parts[0].MediaURLs)
	}
	if len(parts[1].MediaURLs) != 1 || parts[1].MediaURLs[0] != "b.jpg" {
		t.Errorf("Unexpected second part urls: %v", parts[1].MediaURLs)
	}
}

func TestDistributeMedia_RespectsPerPartCap(t *testing.T) {
	parts := []Part{{Index: 1}}
	urls := []string{"a.jpg", "b.jpg", "c.jpg"}

	DistributeMedia(parts, urls, 2)

	if len(parts[0].MediaURLs) != 2 {
		t.Errorf("Expected cap of 2 urls, got %d", len(parts[0].MediaURLs))
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Expected text below limit unchanged, got %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello" {
		t.Errorf("Expected truncation to 5 runes, got %q", got)
	}
	if got := Truncate("hello", 0); got != "hello" {
		t.Errorf("Expected zero limit to mean no ceiling, got %q", got)
	}

	// Rune-safe with multibyte characters
	if got := Truncate("日本語のテキスト", 3); got != "日本語" {
		t.Errorf("Expected rune-safe truncation, got %q", got)
	}
}
