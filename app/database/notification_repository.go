package database

import (
	"encoding/json"
	"fmt"
	"time"
)

type notificationRepo struct {
	db *DB
}

func NewNotificationRepository(db *DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(notification *Notification) error {
	notification.CreatedAt = time.Now().UTC()

	refs := notification.Refs
	if refs == nil {
		refs = map[string]string{}
	}
	encoded, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("failed to encode notification refs: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO notifications (id, user_id, title, message, refs, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, notification.ID, notification.UserID, notification.Title, notification.Message,
		string(encoded), notification.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

func (r *notificationRepo) ListByUser(userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT id, user_id, title, message, refs, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var notification Notification
		var refs string
		err := rows.Scan(
			&notification.ID, &notification.UserID, &notification.Title,
			&notification.Message, &refs, &notification.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		if err := json.Unmarshal([]byte(refs), &notification.Refs); err != nil {
			return nil, fmt.Errorf("failed to decode notification refs: %w", err)
		}
		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}

	return notifications, nil
}
