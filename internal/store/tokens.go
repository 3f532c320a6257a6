// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/kanban-go/internal/model"
)

const tokenColumns = `id, user_id, name, token_hash, created_at, last_used_at`

// CreateAPITokenParams holds parameters for CreateAPIToken.
type CreateAPITokenParams struct {
	UserID    string
	Name      string
	TokenHash string
}

// CreateAPIToken inserts a new API token row. Only the hash is stored.
func (q *Queries) CreateAPIToken(ctx context.Context, arg CreateAPITokenParams) (model.APIToken, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO api_tokens (id, user_id, name, token_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+tokenColumns,
		uuid.NewString(), arg.UserID, arg.Name, arg.TokenHash, time.Now().UTC(),
	)
	var t model.APIToken
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &t.CreatedAt, &t.LastUsedAt)
	return t, err
}

// ListAPITokensByUser returns the user's tokens, newest first.
func (q *Queries) ListAPITokensByUser(ctx context.Context, userID string) ([]model.APIToken, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+tokenColumns+` FROM api_tokens
		WHERE user_id = ?
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tokens []model.APIToken
	for rows.Next() {
		var t model.APIToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &t.CreatedAt, &t.LastUsedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// DeleteAPIToken revokes a token owned by the user. Revocation is immediate:
// the next bearer lookup will miss.
func (q *Queries) DeleteAPIToken(ctx context.Context, id, userID string) error {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM api_tokens WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// APITokenNameTaken reports whether the user already has a token with the name.
func (q *Queries) APITokenNameTaken(ctx context.Context, userID, name string) (bool, error) {
	var one int64
	err := q.db.QueryRowContext(ctx, `
		SELECT 1 FROM api_tokens WHERE user_id = ? AND name = ?`,
		userID, name,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetUserByTokenHash resolves a bearer token hash to its owning user.
func (q *Queries) GetUserByTokenHash(ctx context.Context, tokenHash string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.display_name, u.password_hash, u.is_admin, u.created_at, u.updated_at
		FROM users u
		JOIN api_tokens t ON t.user_id = u.id
		WHERE t.token_hash = ?`,
		tokenHash,
	)
	return scanUser(row)
}

// TouchAPIToken records a successful bearer authentication.
func (q *Queries) TouchAPIToken(ctx context.Context, tokenHash string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE api_tokens SET last_used_at = ? WHERE token_hash = ?`,
		time.Now().UTC(), tokenHash,
	)
	return err
}
