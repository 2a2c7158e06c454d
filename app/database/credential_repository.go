package database

import (
	"database/sql"
	"fmt"
	"time"
)

type credentialRepo struct {
	db *DB
}

func NewCredentialRepository(db *DB) CredentialRepository {
	return &credentialRepo{db: db}
}

func (r *credentialRepo) Create(credential *Credential) error {
	credential.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO credentials (id, workspace_id, client_id, platform, access_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workspace_id, client_id, platform) DO UPDATE SET
			access_token = EXCLUDED.access_token
	`, credential.ID, credential.WorkspaceID, credential.ClientID, credential.Platform,
		credential.AccessToken, credential.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}

	return nil
}

// Get returns nil when no credential is stored for the platform. A client
// scoped credential takes precedence over a workspace wide one.
func (r *credentialRepo) Get(workspaceID, clientID, platform string) (*Credential, error) {
	var credential Credential

	err := r.db.QueryRow(`
		SELECT id, workspace_id, client_id, platform, access_token, created_at
		FROM credentials
		WHERE workspace_id = $1 AND platform = $2 AND (client_id = $3 OR client_id = '')
		ORDER BY client_id DESC
		LIMIT 1
	`, workspaceID, platform, clientID).Scan(
		&credential.ID, &credential.WorkspaceID, &credential.ClientID,
		&credential.Platform, &credential.AccessToken, &credential.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return &credential, nil
}
