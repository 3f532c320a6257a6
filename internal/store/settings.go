// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/olegiv/kanban-go/internal/model"
)

// GetSettings returns the global settings row, creating it with defaults on
// first access.
func (q *Queries) GetSettings(ctx context.Context) (model.Settings, error) {
	var s model.Settings
	err := q.db.QueryRowContext(ctx, `
		SELECT id, allow_signup, updated_at FROM settings WHERE id = 1`).
		Scan(&s.ID, &s.AllowSignup, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		row := q.db.QueryRowContext(ctx, `
			INSERT INTO settings (id, allow_signup, updated_at) VALUES (1, 1, ?)
			ON CONFLICT (id) DO NOTHING
			RETURNING id, allow_signup, updated_at`,
			time.Now().UTC(),
		)
		if scanErr := row.Scan(&s.ID, &s.AllowSignup, &s.UpdatedAt); scanErr == nil {
			return s, nil
		}
		// Another request created the row first; read it back.
		err = q.db.QueryRowContext(ctx, `
			SELECT id, allow_signup, updated_at FROM settings WHERE id = 1`).
			Scan(&s.ID, &s.AllowSignup, &s.UpdatedAt)
	}
	return s, err
}

// UpdateAllowSignup toggles whether new registrations are accepted.
func (q *Queries) UpdateAllowSignup(ctx context.Context, allow bool) (model.Settings, error) {
	if _, err := q.GetSettings(ctx); err != nil {
		return model.Settings{}, err
	}
	var s model.Settings
	err := q.db.QueryRowContext(ctx, `
		UPDATE settings SET allow_signup = ?, updated_at = ? WHERE id = 1
		RETURNING id, allow_signup, updated_at`,
		allow, time.Now().UTC(),
	).Scan(&s.ID, &s.AllowSignup, &s.UpdatedAt)
	return s, err
}
