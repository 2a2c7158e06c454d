package content

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

// Part is one segment of a composite artifact (thread message, carousel slide).
type Part struct {
	Index     int      `json:"index"`
	Text      string   `json:"text"`
	MediaURLs []string `json:"media_urls,omitempty"`
}

// A strategy is one named way of segmenting generated text. Strategies are
// tried in order; the first one producing the kind's minimum viable part
// count wins and later strategies are not attempted.
type strategy struct {
	name  string
	split func(raw string) []string
}

var strategies = []strategy{
	{"separator", splitBySeparator},
	{"numbered", splitByNumberedPrefix},
	{"labeled", splitByLabeledPrefix},
	{"embedded_json", splitByEmbeddedJSON},
}

var (
	separatorRe = regexp.MustCompile(`(?m)^\s*-{3,}\s*$`)
	numberedRe  = regexp.MustCompile(`(?m)^\s*\d{1,2}[./)]\s+`)
	labeledRe   = regexp.MustCompile(`(?mi)^\s*(?:tweet|slide|page|post|part)\s*\d+\s*:\s*`)
)

// ParseParts segments generated text into ordered parts for composite
// content kinds. It returns nil when the kind is not composite or when no
// strategy reaches the minimum viable count; the caller keeps the artifact
// as a single unstructured block in that case.
func ParseParts(raw string, kind Kind) []Part {
	info := Info(kind)
	if !info.Composite {
		return nil
	}

	for _, s := range strategies {
		segments := cleanSegments(s.split(raw))
		if len(segments) >= info.MinParts {
			slog.Debug("Structured content parsed", "strategy", s.name, "kind", string(kind), "parts", len(segments))
			return buildParts(segments, info.PartLimit)
		}
	}

	slog.Debug("No segmentation strategy matched, keeping single block", "kind", string(kind))
	return nil
}

// DistributeMedia assigns media URLs round-robin across parts up to a
// per-part cap. This is a post-pass over an already segmented result and
// mutates the parts in place.
func DistributeMedia(parts []Part, urls []string, perPartCap int) {
	if len(parts) == 0 || len(urls) == 0 || perPartCap <= 0 {
		return
	}

	idx := 0
	for _, url := range urls {
		assigned := false
		for attempts := 0; attempts < len(parts); attempts++ {
			part := &parts[idx%len(parts)]
			idx++
			if len(part.MediaURLs) < perPartCap {
				part.MediaURLs = append(part.MediaURLs, url)
				assigned = true
				break
			}
		}
		if !assigned {
			return
		}
	}
}

func splitBySeparator(raw string) []string {
	if !separatorRe.MatchString(raw) {
		return nil
	}
	return separatorRe.Split(raw, -1)
}

func splitByNumberedPrefix(raw string) []string {
	return splitAtMarkers(raw, numberedRe)
}

func splitByLabeledPrefix(raw string) []string {
	return splitAtMarkers(raw, labeledRe)
}

// splitAtMarkers cuts the text at every marker match, discarding any
// preamble before the first marker.
func splitAtMarkers(raw string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(raw, -1)
	if len(locs) < 2 {
		return nil
	}

	segments := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segments = append(segments, raw[loc[1]:end])
	}
	return segments
}

// splitByEmbeddedJSON locates a machine-readable block inside the text and
// decodes it. Accepts an array of strings or an array of objects with a
// "text" field.
func splitByEmbeddedJSON(raw string) []string {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end <= start {
		return nil
	}

	block := raw[start : end+1]

	var plain []string
	if err := json.Unmarshal([]byte(block), &plain); err == nil {
		return plain
	}

	var objects []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(block), &objects); err == nil {
		segments := make([]string, 0, len(objects))
		for _, o := range objects {
			segments = append(segments, o.Text)
		}
		return segments
	}

	return nil
}

func cleanSegments(segments []string) []string {
	cleaned := make([]string, 0, len(segments))
	for _, segment := range segments {
		segment = labeledRe.ReplaceAllString(segment, "")
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		cleaned = append(cleaned, segment)
	}
	return cleaned
}

func buildParts(segments []string, partLimit int) []Part {
	parts := make([]Part, 0, len(segments))
	for i, segment := range segments {
		parts = append(parts, Part{
			Index: i + 1,
			Text:  Truncate(segment, partLimit),
		})
	}
	return parts
}

// Truncate cuts text to at most limit runes. A limit of zero means no
// ceiling.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit]))
}
