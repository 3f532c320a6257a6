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

const columnColumns = `id, title, project_id, position, created_at, updated_at`

func scanColumn(row *sql.Row) (model.Column, error) {
	var c model.Column
	err := row.Scan(&c.ID, &c.Title, &c.ProjectID, &c.Position, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func collectColumns(rows *sql.Rows) ([]model.Column, error) {
	defer func() { _ = rows.Close() }()

	var columns []model.Column
	for rows.Next() {
		var c model.Column
		if err := rows.Scan(&c.ID, &c.Title, &c.ProjectID, &c.Position, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// GetColumn returns a column owned by the user. Ownership is resolved through
// the projects join; a foreign or missing id yields sql.ErrNoRows either way.
func (q *Queries) GetColumn(ctx context.Context, id, userID string) (model.Column, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+columnColumns+` FROM columns
		WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`,
		id, userID,
	)
	return scanColumn(row)
}

// ListColumnsByUser returns all columns across the user's projects, ordered by
// position within each project.
func (q *Queries) ListColumnsByUser(ctx context.Context, userID string) ([]model.Column, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.project_id, c.position, c.created_at, c.updated_at
		FROM columns c
		JOIN projects p ON c.project_id = p.id
		WHERE p.user_id = ?
		ORDER BY c.project_id, c.position ASC, c.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return collectColumns(rows)
}

// ListColumnsByProject returns the columns of one owned project in board order.
func (q *Queries) ListColumnsByProject(ctx context.Context, projectID, userID string) ([]model.Column, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.project_id, c.position, c.created_at, c.updated_at
		FROM columns c
		JOIN projects p ON c.project_id = p.id
		WHERE c.project_id = ? AND p.user_id = ?
		ORDER BY c.position ASC, c.created_at DESC`,
		projectID, userID,
	)
	if err != nil {
		return nil, err
	}
	return collectColumns(rows)
}

// ListAllColumns returns every column in the database. Admin export only.
func (q *Queries) ListAllColumns(ctx context.Context) ([]model.Column, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+columnColumns+` FROM columns ORDER BY project_id, position ASC`)
	if err != nil {
		return nil, err
	}
	return collectColumns(rows)
}

// CreateColumnParams holds parameters for CreateColumn.
type CreateColumnParams struct {
	Title     string
	ProjectID string
}

// CreateColumn appends a column to a project. The caller must have verified
// project ownership first (ProjectOwned); creation under a foreign project is
// the one case reported as Forbidden rather than NotFound.
func (q *Queries) CreateColumn(ctx context.Context, arg CreateColumnParams) (model.Column, error) {
	now := time.Now().UTC()
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO columns (id, title, project_id, position, created_at, updated_at)
		VALUES (?, ?, ?, (SELECT COUNT(*) FROM columns WHERE project_id = ?), ?, ?)
		RETURNING `+columnColumns,
		uuid.NewString(), arg.Title, arg.ProjectID, arg.ProjectID, now, now,
	)
	return scanColumn(row)
}

// UpdateColumn renames a column. Ownership is resolved through the projects
// join inside the UPDATE; sql.ErrNoRows means missing or foreign.
func (q *Queries) UpdateColumn(ctx context.Context, id, userID, title string) (model.Column, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE columns
		SET title = ?, updated_at = ?
		WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)
		RETURNING `+columnColumns,
		title, time.Now().UTC(), id, userID,
	)
	return scanColumn(row)
}

// DeleteColumn removes an owned column and, via cascade, its tasks.
func (q *Queries) DeleteColumn(ctx context.Context, id, userID string) error {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM columns
		WHERE id = ? AND project_id IN (SELECT id FROM projects WHERE user_id = ?)`,
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

// ColumnOwned reports whether the column belongs to a project owned by the
// user. Precondition for creating a task under it.
func (q *Queries) ColumnOwned(ctx context.Context, id, userID string) (bool, error) {
	var one int64
	err := q.db.QueryRowContext(ctx, `
		SELECT 1 FROM columns c
		JOIN projects p ON c.project_id = p.id
		WHERE c.id = ? AND p.user_id = ?`,
		id, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
