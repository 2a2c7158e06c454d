package database

import (
	"database/sql"
	"fmt"
	"time"
)

type automationRepo struct {
	db *DB
}

func NewAutomationRepository(db *DB) AutomationRepository {
	return &automationRepo{db: db}
}

const automationColumns = `id, workspace_id, client_id, name, is_active, trigger_type, trigger_config,
	content_type, platform, bucket, template,
	auto_generate_content, auto_generate_image, auto_publish,
	image_style, image_template,
	last_triggered_at, items_created, created_by, created_at, updated_at`

func (r *automationRepo) Create(automation *Automation) error {
	now := time.Now().UTC()
	automation.CreatedAt = now
	automation.UpdatedAt = now

	if len(automation.TriggerConfig) == 0 {
		automation.TriggerConfig = []byte("{}")
	}

	_, err := r.db.Exec(`
		INSERT INTO automations (
			id, workspace_id, client_id, name, is_active, trigger_type, trigger_config,
			content_type, platform, bucket, template,
			auto_generate_content, auto_generate_image, auto_publish,
			image_style, image_template,
			last_triggered_at, items_created, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`, automation.ID, automation.WorkspaceID, automation.ClientID, automation.Name,
		automation.IsActive, automation.TriggerType, string(automation.TriggerConfig),
		automation.ContentType, automation.Platform, automation.Bucket, automation.Template,
		automation.AutoGenerateContent, automation.AutoGenerateImage, automation.AutoPublish,
		automation.ImageStyle, automation.ImageTemplate,
		automation.LastTriggeredAt, automation.ItemsCreated, automation.CreatedBy,
		automation.CreatedAt, automation.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create automation: %w", err)
	}

	return nil
}

func (r *automationRepo) GetByID(id string) (*Automation, error) {
	row := r.db.QueryRow(`SELECT `+automationColumns+` FROM automations WHERE id = $1`, id)

	automation, err := scanAutomation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get automation: %w", err)
	}

	return automation, nil
}

func (r *automationRepo) List() ([]Automation, error) {
	return r.list(`SELECT ` + automationColumns + ` FROM automations ORDER BY created_at`)
}

func (r *automationRepo) ListActive() ([]Automation, error) {
	return r.list(`SELECT ` + automationColumns + ` FROM automations WHERE is_active = 1 ORDER BY created_at`)
}

func (r *automationRepo) list(query string) ([]Automation, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}
	defer rows.Close()

	var automations []Automation
	for rows.Next() {
		automation, err := scanAutomation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation row: %w", err)
		}
		automations = append(automations, *automation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating automation rows: %w", err)
	}

	return automations, nil
}

func (r *automationRepo) SetActive(id string, active bool) error {
	_, err := r.db.Exec(`
		UPDATE automations SET is_active = $2, updated_at = $3 WHERE id = $1
	`, id, active, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to set automation active status: %w", err)
	}

	return nil
}

func (r *automationRepo) MarkFired(id string, firedAt time.Time, dedupeKey string) error {
	var err error
	if dedupeKey != "" {
		_, err = r.db.Exec(`
			UPDATE automations
			SET last_triggered_at = $2,
			    items_created = items_created + 1,
			    trigger_config = json_set(json_set(trigger_config, '$.last_seen_guid', $3), '$.last_checked_at', $4),
			    updated_at = $2
			WHERE id = $1
		`, id, firedAt, dedupeKey, firedAt.Format(time.RFC3339))
	} else {
		_, err = r.db.Exec(`
			UPDATE automations
			SET last_triggered_at = $2,
			    items_created = items_created + 1,
			    updated_at = $2
			WHERE id = $1
		`, id, firedAt)
	}

	if err != nil {
		return fmt.Errorf("failed to mark automation fired: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAutomation(row rowScanner) (*Automation, error) {
	var automation Automation
	var triggerConfig string

	err := row.Scan(
		&automation.ID, &automation.WorkspaceID, &automation.ClientID, &automation.Name,
		&automation.IsActive, &automation.TriggerType, &triggerConfig,
		&automation.ContentType, &automation.Platform, &automation.Bucket, &automation.Template,
		&automation.AutoGenerateContent, &automation.AutoGenerateImage, &automation.AutoPublish,
		&automation.ImageStyle, &automation.ImageTemplate,
		&automation.LastTriggeredAt, &automation.ItemsCreated, &automation.CreatedBy,
		&automation.CreatedAt, &automation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	automation.TriggerConfig = []byte(triggerConfig)

	return &automation, nil
}
