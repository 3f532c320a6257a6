// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PositionUpdate is one (id, position) pair of a bulk reorder batch.
type PositionUpdate struct {
	ID       string `json:"id"`
	Position int64  `json:"position"`
}

// bulkReorder applies a batch of position updates inside one transaction.
// Every statement carries the caller's ownership predicate; if any id is
// missing or foreign the whole batch rolls back and the prior positions
// remain unchanged.
func bulkReorder(ctx context.Context, db *sql.DB, entity, query, userID string, updates []PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting reorder transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, u := range updates {
		res, err := tx.ExecContext(ctx, query, u.Position, now, u.ID, userID)
		if err != nil {
			return fmt.Errorf("reordering %s %s: %w", entity, u.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reordering %s %s: %w", entity, u.ID, err)
		}
		if affected == 0 {
			return fmt.Errorf("reordering %s %s: %w", entity, u.ID, sql.ErrNoRows)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reorder transaction: %w", err)
	}
	return nil
}

// BulkReorderProjects applies project position updates atomically.
func BulkReorderProjects(ctx context.Context, db *sql.DB, userID string, updates []PositionUpdate) error {
	return bulkReorder(ctx, db, "project", `
		UPDATE projects SET position = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		userID, updates)
}

// BulkReorderColumns applies column position updates atomically.
func BulkReorderColumns(ctx context.Context, db *sql.DB, userID string, updates []PositionUpdate) error {
	return bulkReorder(ctx, db, "column", `
		UPDATE columns SET position = ?, updated_at = ?
		WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`,
		userID, updates)
}

// BulkReorderTasks applies task position updates atomically.
func BulkReorderTasks(ctx context.Context, db *sql.DB, userID string, updates []PositionUpdate) error {
	return bulkReorder(ctx, db, "task", `
		UPDATE tasks SET position = ?, updated_at = ?
		WHERE id = ? AND column_id IN `+ownedColumns,
		userID, updates)
}
