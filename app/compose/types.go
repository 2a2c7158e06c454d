package compose

import (
	"time"

	"github.com/postwave/postwave/app/content"
	"github.com/postwave/postwave/app/feed"
)

// Profile holds client brand context loaded from a profile file.
type Profile struct {
	Name       string   // Derived from filename (without .yml extension)
	BrandVoice string   `yaml:"brand_voice"`
	Audience   string   `yaml:"audience"`
	Tone       string   `yaml:"tone"`
	Knowledge  []string `yaml:"knowledge"`
	Examples   []string `yaml:"examples"`
}

// Request carries everything the composer merges into one instruction
// payload. Item, Profile, Examples and Research are all optional layers.
type Request struct {
	Template string
	Kind     content.Kind
	Platform string
	Item     *feed.Item
	Profile  *Profile
	Examples []string
	Research string
	Now      time.Time
}
