package database

import (
	"time"
)

type AutomationRepository interface {
	Create(automation *Automation) error
	GetByID(id string) (*Automation, error)
	List() ([]Automation, error)
	ListActive() ([]Automation, error)
	SetActive(id string, active bool) error

	// MarkFired updates the bookkeeping fields after a successful fire.
	// A non-empty dedupeKey is persisted into the feed trigger config.
	MarkFired(id string, firedAt time.Time, dedupeKey string) error
}

type RunRepository interface {
	Create(run *Run) error
	CreateFinalized(run *Run) error
	Finalize(id string, status RunStatus, result, errMsg string, itemsCreated int, triggerData []byte, completedAt time.Time) error

	GetByID(id string) (*Run, error)
	ListByAutomation(automationID string, filter RunFilter) ([]Run, error)
	CountByStatus(automationID string) (map[RunStatus]int, error)
}

type ArtifactRepository interface {
	Create(artifact *Artifact) error
	GetByID(id string) (*Artifact, error)
	UpdateContent(id string, content string, metadata map[string]interface{}) error
	PrependMediaURL(id string, url string) error
	SetPublishResult(id string, status, externalID, publishError string, publishedAt *time.Time) error
}

type CredentialRepository interface {
	Create(credential *Credential) error
	Get(workspaceID, clientID, platform string) (*Credential, error)
}

type NotificationRepository interface {
	Create(notification *Notification) error
	ListByUser(userID string, limit int) ([]Notification, error)
}
