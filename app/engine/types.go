package engine

import (
	"time"

	"github.com/postwave/postwave/app/database"
	"github.com/postwave/postwave/app/feed"
)

// Options controls one run invocation.
type Options struct {
	// Force bypasses the idempotency guards (manual "run now").
	Force bool
	// Item supplies the source payload directly, standing in for trigger
	// evaluation (inbound webhook deliveries).
	Item *feed.Item
}

// RunResult summarizes one automation's outcome for the batch caller.
type RunResult struct {
	AutomationID string             `json:"automation_id"`
	RunID        string             `json:"run_id,omitempty"`
	Status       database.RunStatus `json:"status"`
	Fired        bool               `json:"fired"`
	Reason       string             `json:"reason,omitempty"`
	ArtifactID   string             `json:"artifact_id,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// BatchResult is the only thing that escapes the per-automation boundary.
type BatchResult struct {
	Processed int         `json:"processed"`
	Triggered int         `json:"triggered"`
	Skipped   int         `json:"skipped"`
	Failed    int         `json:"failed"`
	Results   []RunResult `json:"results"`
}

// TriggerData is the structured outcome payload persisted on a run record
// for the audit/history views.
type TriggerData struct {
	Source         *SourceInfo     `json:"source,omitempty"`
	ContentPreview string          `json:"content_preview,omitempty"`
	GenerateError  string          `json:"generate_error,omitempty"`
	ImageError     string          `json:"image_error,omitempty"`
	Publish        *PublishOutcome `json:"publish,omitempty"`
	ArtifactID     string          `json:"artifact_id,omitempty"`
}

// SourceInfo is a by-value snapshot of the source item; items are never
// persisted themselves.
type SourceInfo struct {
	GUID        string    `json:"guid,omitempty"`
	Title       string    `json:"title,omitempty"`
	Link        string    `json:"link,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// PublishOutcome names every publish branch explicitly, including the
// silent skips.
type PublishOutcome struct {
	Attempted     bool   `json:"attempted"`
	Published     bool   `json:"published"`
	ExternalID    string `json:"external_id,omitempty"`
	Error         string `json:"error,omitempty"`
	SkippedReason string `json:"skipped_reason,omitempty"`
}
