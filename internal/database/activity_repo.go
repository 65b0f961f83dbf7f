package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mixelka/zeronode/pkg/models"
)

// RecordActivity appends an activity entry
func (db *DB) RecordActivity(ctx context.Context, activity *models.Activity) error {
	query := `
		INSERT INTO activity_log (email, action, status, detail, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	result, err := db.ExecContext(ctx, query,
		activity.Email,
		activity.Action,
		activity.Status,
		activity.Detail,
		activity.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	activity.ID = id
	return nil
}

// ListRecentActivity returns the newest entries of an account, newest first
func (db *DB) ListRecentActivity(ctx context.Context, email string, limit int) ([]*models.Activity, error) {
	var activities []*models.Activity
	query := `SELECT * FROM activity_log WHERE email = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	err := db.SelectContext(ctx, &activities, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	return activities, nil
}

// PruneActivity deletes entries created before the given time.
// Timestamps are stored in UTC so the text comparison orders correctly.
func (db *DB) PruneActivity(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM activity_log WHERE created_at < ?`
	result, err := db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune activity: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
