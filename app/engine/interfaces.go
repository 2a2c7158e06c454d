package engine

import (
	"context"

	"github.com/postwave/postwave/app/clients"
)

// ContentGenerator produces publish-ready text for a composed prompt.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string, formatHints string) (string, error)
}

// ImageGenerator produces a hosted media URL for an image instruction.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, style string) (string, error)
}

// Publisher delivers text to a social platform and reports the stated outcome.
type Publisher interface {
	Publish(ctx context.Context, request clients.PublishRequest) (clients.PublishResult, error)
}

var _ ContentGenerator = (*clients.GenerationClient)(nil)
var _ ImageGenerator = (*clients.ImageClient)(nil)
var _ Publisher = (*clients.PublishClient)(nil)
