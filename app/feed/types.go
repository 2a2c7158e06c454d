package feed

import (
	"time"
)

// Item is one normalized syndication entry. Items are ephemeral: they are
// rebuilt on every fetch and only their guid and a content snapshot survive
// inside a run record.
type Item struct {
	GUID        string
	Title       string
	Link        string
	Description string
	Content     string
	PublishedAt time.Time
	MediaURLs   []string
}
