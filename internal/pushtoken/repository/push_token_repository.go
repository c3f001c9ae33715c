package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"seedorders/internal/domain"
)

type MySQLPushTokenRepository struct {
	db *sql.DB
}

func NewMySQLPushTokenRepository(db *sql.DB) *MySQLPushTokenRepository {
	return &MySQLPushTokenRepository{db: db}
}

// Upsert inserts the token or, when it already exists, reassigns it to the
// given user and refreshes its device info.
func (r *MySQLPushTokenRepository) Upsert(ctx context.Context, token *domain.PushToken) error {
	token.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	query := `
		INSERT INTO push_tokens (token, user_id, device_info, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			user_id = VALUES(user_id),
			device_info = VALUES(device_info),
			updated_at = VALUES(updated_at)
	`

	_, err := r.db.ExecContext(ctx, query, token.Token, token.UserID, token.DeviceInfo, token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting push token: %w", err)
	}

	return nil
}

func (r *MySQLPushTokenRepository) FindAll(ctx context.Context) ([]domain.PushToken, error) {
	query := `SELECT user_id, token, device_info, updated_at FROM push_tokens ORDER BY updated_at ASC`
	return r.query(ctx, query)
}

func (r *MySQLPushTokenRepository) FindByUserID(ctx context.Context, userID string) ([]domain.PushToken, error) {
	query := `
		SELECT user_id, token, device_info, updated_at
		FROM push_tokens
		WHERE user_id = ?
		ORDER BY updated_at ASC`
	return r.query(ctx, query, userID)
}

func (r *MySQLPushTokenRepository) query(ctx context.Context, query string, args ...any) ([]domain.PushToken, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying push tokens: %w", err)
	}
	defer rows.Close()

	tokens := []domain.PushToken{}
	for rows.Next() {
		var t domain.PushToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.DeviceInfo, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning push token row: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating push token rows: %w", err)
	}

	return tokens, nil
}
