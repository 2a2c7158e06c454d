package database

import (
	"encoding/json"
	"time"
)

// Automation is a configured recipe: when to act and what to produce.
type Automation struct {
	ID          string // Database UUID
	WorkspaceID string
	ClientID    string // Optional client scope, empty for workspace-wide
	Name        string
	IsActive    bool

	TriggerType   string // schedule, feed, webhook
	TriggerConfig json.RawMessage

	ContentType         string
	Platform            string
	Bucket              string
	Template            string
	AutoGenerateContent bool
	AutoGenerateImage   bool
	AutoPublish         bool
	ImageStyle          string
	ImageTemplate       string

	// Bookkeeping, written only by the orchestrator after a successful fire
	LastTriggeredAt *time.Time
	ItemsCreated    int
	CreatedBy       string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusSkipped   RunStatus = "skipped"
)

// IsTerminal reports whether the status allows no further transition.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusSkipped
}

// Run is one execution attempt of one automation.
type Run struct {
	ID           string
	AutomationID string
	WorkspaceID  string
	Status       RunStatus
	StartedAt    time.Time
	CompletedAt  *time.Time
	DurationMs   int64
	Result       string
	Error        string
	ItemsCreated int
	TriggerData  json.RawMessage
	CreatedAt    time.Time
}

// Artifact is the content record produced by a successful run.
type Artifact struct {
	ID           string
	WorkspaceID  string
	ClientID     string
	AutomationID string
	Title        string
	Description  string
	Platform     string
	ContentType  string
	Bucket       string
	Content      string
	MediaURLs    []string
	Metadata     map[string]interface{}
	Status       string // draft, ready

	PublishStatus string // empty, published, failed
	ExternalID    string
	PublishError  string
	PublishedAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	ArtifactStatusDraft = "draft"
	ArtifactStatusReady = "ready"

	PublishStatusPublished = "published"
	PublishStatusFailed    = "failed"
)

// Credential holds a stored publishing credential for one platform.
type Credential struct {
	ID          string
	WorkspaceID string
	ClientID    string
	Platform    string
	AccessToken string
	CreatedAt   time.Time
}

// Notification is an outcome event addressed to a user.
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Refs      map[string]string
	CreatedAt time.Time
}

// RunFilter narrows run history queries for the audit/history views.
type RunFilter struct {
	Status RunStatus
	Since  *time.Time
	Until  *time.Time
	Limit  int
}
