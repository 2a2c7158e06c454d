package compose

import (
	"fmt"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/postwave/postwave/app/content"
	"github.com/postwave/postwave/app/feed"
)

const (
	// Templates below this length are treated as degenerate and replaced
	// by the synthesized default prompt.
	minTemplateLength = 10

	maxExcerptChars = 1200
)

// Composer assembles the generation instruction payload: template variable
// substitution, layered enrichment and fixed per-kind format rules.
type Composer struct {
	converter *md.Converter
}

func NewComposer() *Composer {
	return &Composer{
		converter: md.NewConverter("", true, nil),
	}
}

func (c *Composer) Run(req Request) string {
	base := strings.TrimSpace(req.Template)
	if len(base) < minTemplateLength {
		base = c.defaultPrompt(req)
	} else {
		base = c.substitute(base, req)
	}

	var sections []string

	// Enrichment layers are higher-priority context, prepended ahead of
	// the source-derived prompt, never replacing it.
	if req.Profile != nil {
		sections = append(sections, profileSection(req.Profile))
	}
	if len(req.Examples) > 0 {
		sections = append(sections, examplesSection(req.Examples))
	}
	if req.Research != "" {
		sections = append(sections, "Background research:\n"+req.Research)
	}

	sections = append(sections, base)
	sections = append(sections, "Format rules:\n"+content.FormatHint(req.Kind))

	return strings.Join(sections, "\n\n")
}

func (c *Composer) substitute(template string, req Request) string {
	item := req.Item
	if item == nil {
		item = &feed.Item{}
	}

	replacer := strings.NewReplacer(
		"{{title}}", item.Title,
		"{{description}}", item.Description,
		"{{link}}", item.Link,
		"{{content}}", c.bodyExcerpt(item),
		"{{media_note}}", mediaNote(item),
		"{{time_of_day}}", timeOfDayBucket(req.Now),
	)

	return replacer.Replace(template)
}

// defaultPrompt synthesizes a structured prompt when the configured
// template is empty or degenerate.
func (c *Composer) defaultPrompt(req Request) string {
	var b strings.Builder

	platform := req.Platform
	if platform == "" {
		platform = content.Info(req.Kind).DefaultPlatform
	}

	fmt.Fprintf(&b, "Produce a publish-ready %s for %s.\n", string(req.Kind), platform)
	fmt.Fprintf(&b, "It is %s for the audience.\n", timeOfDayBucket(req.Now))

	if req.Item != nil {
		fmt.Fprintf(&b, "\nSource title: %s\n", req.Item.Title)
		if req.Item.Description != "" {
			fmt.Fprintf(&b, "Source summary: %s\n", stripTags(req.Item.Description))
		}
		if req.Item.Link != "" {
			fmt.Fprintf(&b, "Source link: %s\n", req.Item.Link)
		}
		if excerpt := c.bodyExcerpt(req.Item); excerpt != "" {
			fmt.Fprintf(&b, "\nSource body:\n%s\n", excerpt)
		}
		fmt.Fprintf(&b, "\n%s\n", mediaNote(req.Item))
	}

	b.WriteString("\nFollow the format rules exactly. Deliver finished copy only: no placeholders, no notes to the editor.")

	return b.String()
}

// bodyExcerpt converts the item body to markdown and bounds its size so a
// single oversized source cannot dominate the payload.
func (c *Composer) bodyExcerpt(item *feed.Item) string {
	body := item.Content
	if body == "" {
		body = item.Description
	}
	if body == "" {
		return ""
	}

	markdown, err := c.converter.ConvertString(body)
	if err != nil {
		markdown = stripTags(body)
	}

	markdown = strings.TrimSpace(markdown)
	if len(markdown) > maxExcerptChars {
		markdown = markdown[:maxExcerptChars]
	}

	return markdown
}

func profileSection(profile *Profile) string {
	var b strings.Builder
	b.WriteString("Client context:\n")
	if profile.BrandVoice != "" {
		fmt.Fprintf(&b, "Brand voice: %s\n", profile.BrandVoice)
	}
	if profile.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", profile.Audience)
	}
	if profile.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", profile.Tone)
	}
	for _, note := range profile.Knowledge {
		fmt.Fprintf(&b, "- %s\n", note)
	}
	return strings.TrimRight(b.String(), "\n")
}

func examplesSection(examples []string) string {
	var b strings.Builder
	b.WriteString("High-performing examples from this client:\n")
	for i, example := range examples {
		fmt.Fprintf(&b, "%d. %s\n", i+1, example)
	}
	return strings.TrimRight(b.String(), "\n")
}

func mediaNote(item *feed.Item) string {
	if len(item.MediaURLs) == 0 {
		return "The source provides no media attachments."
	}
	return fmt.Sprintf("The source provides %d media attachment(s).", len(item.MediaURLs))
}

func timeOfDayBucket(now time.Time) string {
	switch hour := now.In(time.Local).Hour(); {
	case hour < 6:
		return "night"
	case hour < 12:
		return "morning"
	case hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// stripTags is a cheap fallback when markdown conversion fails.
func stripTags(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
