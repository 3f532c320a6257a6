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

const projectColumns = `id, title, description, user_id, position, created_at, updated_at`

func scanProject(row *sql.Row) (model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.UserID, &p.Position, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collectProjects(rows *sql.Rows) ([]model.Project, error) {
	defer func() { _ = rows.Close() }()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.UserID, &p.Position, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject returns a project owned by the user. A foreign or missing id
// yields sql.ErrNoRows either way.
func (q *Queries) GetProject(ctx context.Context, id, userID string) (model.Project, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	return scanProject(row)
}

// ListProjectsByUser returns all projects owned by the user, ordered by their
// board position with creation time as the tiebreaker.
func (q *Queries) ListProjectsByUser(ctx context.Context, userID string) ([]model.Project, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects
		WHERE user_id = ?
		ORDER BY position ASC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

// ListAllProjects returns every project in the database. Admin export only.
func (q *Queries) ListAllProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM projects ORDER BY user_id, position ASC`)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

// CreateProjectParams holds parameters for CreateProject.
type CreateProjectParams struct {
	Title       string
	Description string
	UserID      string
}

// CreateProject inserts a project at the end of the owner's project list.
// The position is derived from the current sibling count inside the INSERT so
// concurrent creates cannot race a separate count query.
func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (model.Project, error) {
	now := time.Now().UTC()
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO projects (id, title, description, user_id, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, (SELECT COUNT(*) FROM projects WHERE user_id = ?), ?, ?)
		RETURNING `+projectColumns,
		uuid.NewString(), arg.Title, arg.Description, arg.UserID, arg.UserID, now, now,
	)
	return scanProject(row)
}

// UpdateProjectParams holds parameters for UpdateProject.
type UpdateProjectParams struct {
	ID          string
	UserID      string
	Title       string
	Description string
}

// UpdateProject updates a project's title and description. The ownership
// predicate is part of the UPDATE itself; a foreign or missing id yields
// sql.ErrNoRows.
func (q *Queries) UpdateProject(ctx context.Context, arg UpdateProjectParams) (model.Project, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE projects
		SET title = ?, description = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
		RETURNING `+projectColumns,
		arg.Title, arg.Description, time.Now().UTC(), arg.ID, arg.UserID,
	)
	return scanProject(row)
}

// DeleteProject removes a project owned by the user. Columns and tasks go with
// it via foreign key cascades. Returns sql.ErrNoRows when the ownership
// predicate matches nothing.
func (q *Queries) DeleteProject(ctx context.Context, id, userID string) error {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM projects WHERE id = ? AND user_id = ?`,
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

// DeleteProjectsByUser removes every project the user owns. Columns and tasks
// follow via cascade. Used by import to clear the tree before re-inserting.
func (q *Queries) DeleteProjectsByUser(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM projects WHERE user_id = ?`, userID)
	return err
}

// ProjectOwned reports whether the project exists and is owned by the user.
// Used as the explicit precondition for creating a column under it.
func (q *Queries) ProjectOwned(ctx context.Context, id, userID string) (bool, error) {
	var one int64
	err := q.db.QueryRowContext(ctx, `
		SELECT 1 FROM projects WHERE id = ? AND user_id = ?`,
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
