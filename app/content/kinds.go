package content

// Kind identifies the produced content format.
type Kind string

const (
	KindPost       Kind = "post"
	KindThread     Kind = "thread"
	KindCarousel   Kind = "carousel"
	KindArticle    Kind = "article"
	KindNewsletter Kind = "newsletter"
)

// KindInfo is the static production mapping for one content kind.
type KindInfo struct {
	DefaultPlatform string
	DefaultBucket   string
	PartLimit       int // character ceiling per part
	MinParts        int // minimum viable part count for composite kinds
	Composite       bool
	LongForm        bool // long form kinds get research enrichment
}

var kindInfos = map[Kind]KindInfo{
	KindPost: {
		DefaultPlatform: "linkedin",
		DefaultBucket:   "drafts",
		PartLimit:       3000,
	},
	KindThread: {
		DefaultPlatform: "twitter",
		DefaultBucket:   "drafts",
		PartLimit:       280,
		MinParts:        2,
		Composite:       true,
	},
	KindCarousel: {
		DefaultPlatform: "instagram",
		DefaultBucket:   "drafts",
		PartLimit:       2200,
		MinParts:        3,
		Composite:       true,
	},
	KindArticle: {
		DefaultPlatform: "blog",
		DefaultBucket:   "articles",
		PartLimit:       0,
		LongForm:        true,
	},
	KindNewsletter: {
		DefaultPlatform: "email",
		DefaultBucket:   "newsletters",
		PartLimit:       0,
		LongForm:        true,
	},
}

// Info returns the production mapping for a kind. Unrecognized kinds fall
// back to the plain post mapping.
func Info(kind Kind) KindInfo {
	if info, ok := kindInfos[kind]; ok {
		return info
	}
	return kindInfos[KindPost]
}

// Known reports whether the kind is one of the supported content kinds.
func Known(kind Kind) bool {
	_, ok := kindInfos[kind]
	return ok
}

// FormatHint returns the fixed formatting reminder appended to generation
// prompts for a kind.
func FormatHint(kind Kind) string {
	switch kind {
	case KindThread:
		return "Format the result as a numbered thread (1/, 2/, ...). Each message must fit within 280 characters. Do not use hashtags in every message."
	case KindCarousel:
		return "Format the result as numbered slides (Slide 1:, Slide 2:, ...). At least 3 slides. Keep each slide under 2200 characters, first slide is the hook."
	case KindArticle:
		return "Write a complete long-form article with a headline and subheadings. No placeholders or TODO markers."
	case KindNewsletter:
		return "Write a complete newsletter issue with a subject line and short sections. No placeholders."
	default:
		return "Write a single publish-ready post. No placeholders, no meta commentary."
	}
}
