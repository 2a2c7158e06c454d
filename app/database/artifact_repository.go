package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type artifactRepo struct {
	db *DB
}

func NewArtifactRepository(db *DB) ArtifactRepository {
	return &artifactRepo{db: db}
}

const artifactColumns = `id, workspace_id, client_id, automation_id, title, description,
	platform, content_type, bucket, content, media_urls, metadata, status,
	publish_status, external_id, publish_error, published_at, created_at, updated_at`

func (r *artifactRepo) Create(artifact *Artifact) error {
	now := time.Now().UTC()
	artifact.CreatedAt = now
	artifact.UpdatedAt = now

	mediaURLs, err := marshalStringSlice(artifact.MediaURLs)
	if err != nil {
		return fmt.Errorf("failed to encode media urls: %w", err)
	}
	metadata, err := marshalMap(artifact.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO artifacts (id, workspace_id, client_id, automation_id, title, description,
			platform, content_type, bucket, content, media_urls, metadata, status,
			publish_status, external_id, publish_error, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`, artifact.ID, artifact.WorkspaceID, artifact.ClientID, artifact.AutomationID,
		artifact.Title, artifact.Description, artifact.Platform, artifact.ContentType,
		artifact.Bucket, artifact.Content, mediaURLs, metadata, artifact.Status,
		artifact.PublishStatus, artifact.ExternalID, artifact.PublishError, artifact.PublishedAt,
		artifact.CreatedAt, artifact.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}

	return nil
}

func (r *artifactRepo) GetByID(id string) (*Artifact, error) {
	row := r.db.QueryRow(`SELECT `+artifactColumns+` FROM artifacts WHERE id = $1`, id)

	artifact, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	return artifact, nil
}

func (r *artifactRepo) UpdateContent(id string, content string, metadata map[string]interface{}) error {
	encoded, err := marshalMap(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = r.db.Exec(`
		UPDATE artifacts
		SET content = $2, metadata = $3, status = $4, updated_at = $5
		WHERE id = $1
	`, id, content, encoded, ArtifactStatusReady, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to update artifact content: %w", err)
	}

	return nil
}

func (r *artifactRepo) PrependMediaURL(id string, url string) error {
	artifact, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if artifact == nil {
		return fmt.Errorf("artifact %s not found", id)
	}

	urls := append([]string{url}, artifact.MediaURLs...)
	encoded, err := marshalStringSlice(urls)
	if err != nil {
		return fmt.Errorf("failed to encode media urls: %w", err)
	}

	_, err = r.db.Exec(`
		UPDATE artifacts SET media_urls = $2, updated_at = $3 WHERE id = $1
	`, id, encoded, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to prepend media url: %w", err)
	}

	return nil
}

func (r *artifactRepo) SetPublishResult(id string, status, externalID, publishError string, publishedAt *time.Time) error {
	_, err := r.db.Exec(`
		UPDATE artifacts
		SET publish_status = $2, external_id = $3, publish_error = $4, published_at = $5, updated_at = $6
		WHERE id = $1
	`, id, status, externalID, publishError, publishedAt, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to set publish result: %w", err)
	}

	return nil
}

func scanArtifact(row rowScanner) (*Artifact, error) {
	var artifact Artifact
	var mediaURLs, metadata string

	err := row.Scan(
		&artifact.ID, &artifact.WorkspaceID, &artifact.ClientID, &artifact.AutomationID,
		&artifact.Title, &artifact.Description, &artifact.Platform, &artifact.ContentType,
		&artifact.Bucket, &artifact.Content, &mediaURLs, &metadata, &artifact.Status,
		&artifact.PublishStatus, &artifact.ExternalID, &artifact.PublishError, &artifact.PublishedAt,
		&artifact.CreatedAt, &artifact.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(mediaURLs), &artifact.MediaURLs); err != nil {
		return nil, fmt.Errorf("failed to decode media urls: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata), &artifact.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	return &artifact, nil
}

func marshalStringSlice(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func marshalMap(values map[string]interface{}) (string, error) {
	if values == nil {
		values = map[string]interface{}{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
