package content

import (
	"strings"
	"testing"
)

func TestInfo_KnownKinds(t *testing.T) {
	thread := Info(KindThread)
	if thread.DefaultPlatform != "twitter" {
		t.Errorf("Expected twitter default platform for thread, got %q", thread.DefaultPlatform)
	}
	if !thread.Composite || thread.MinParts != 2 || thread.PartLimit != 280 {
		t.Errorf("Unexpected thread mapping: %+v", thread)
	}

	carousel := Info(KindCarousel)
	if carousel.DefaultPlatform != "instagram" || carousel.MinParts != 3 {
		t.Errorf("Unexpected carousel mapping: %+v", carousel)
	}

	article := Info(KindArticle)
	if !article.LongForm || article.Composite {
		t.Errorf("Unexpected article mapping: %+v", article)
	}
}

func TestInfo_UnknownKindFallsBackToPost(t *testing.T) {
	info := Info(Kind("podcast"))

	if info.DefaultPlatform != "linkedin" {
		t.Errorf("Expected post mapping for unknown kind, got %+v", info)
	}
}

func TestKnown(t *testing.T) {
	if !Known(KindPost) || !Known(KindNewsletter) {
		t.Error("Expected supported kinds to be known")
	}
	if Known(Kind("podcast")) {
		t.Error("Expected unsupported kind to be unknown")
	}
}

func TestFormatHint(t *testing.T) {
	if !strings.Contains(FormatHint(KindThread), "280") {
		t.Error("Expected thread hint to mention the character limit")
	}
	if !strings.Contains(FormatHint(KindCarousel), "Slide") {
		t.Error("Expected carousel hint to mention slides")
	}
	if FormatHint(KindPost) == "" || FormatHint(Kind("podcast")) == "" {
		t.Error("Expected a hint for every kind, including unknown ones")
	}
}
