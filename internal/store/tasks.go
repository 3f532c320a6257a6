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

const taskColumns = `id, title, description, priority, due_date, column_id, position, created_at, updated_at`

// ownedColumns is the subquery resolving the set of column ids reachable
// through the caller's ownership chain. Takes one user id parameter.
const ownedColumns = `(SELECT c.id FROM columns c JOIN projects p ON c.project_id = p.id WHERE p.user_id = ?)`

func scanTask(row *sql.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.DueDate, &t.ColumnID, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func collectTasks(rows *sql.Rows) ([]model.Task, error) {
	defer func() { _ = rows.Close() }()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.DueDate, &t.ColumnID, &t.Position, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask returns a task owned by the user. A foreign or missing id yields
// sql.ErrNoRows either way.
func (q *Queries) GetTask(ctx context.Context, id, userID string) (model.Task, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE id = ? AND column_id IN `+ownedColumns,
		id, userID,
	)
	return scanTask(row)
}

// ListTasksByUser returns every task the user owns, ordered for the flat task
// listing: priority rank first, then due date with NULLs last, then newest
// first. This ordering is independent of the drag-drop position field.
func (q *Queries) ListTasksByUser(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.description, t.priority, t.due_date, t.column_id, t.position, t.created_at, t.updated_at
		FROM tasks t
		JOIN columns c ON t.column_id = c.id
		JOIN projects p ON c.project_id = p.id
		WHERE p.user_id = ?
		ORDER BY
			CASE t.priority
				WHEN 'high' THEN 1
				WHEN 'medium' THEN 2
				WHEN 'low' THEN 3
				ELSE 4
			END,
			t.due_date ASC NULLS LAST,
			t.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

// ListTasksByColumn returns the tasks of one owned column in board order.
func (q *Queries) ListTasksByColumn(ctx context.Context, columnID, userID string) ([]model.Task, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE column_id = ? AND column_id IN `+ownedColumns+`
		ORDER BY position ASC, created_at DESC`,
		columnID, userID,
	)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

// ListTasksByUserBoardOrder returns the user's tasks grouped by column in
// board position order. Used by export, where drag-drop order must survive a
// round trip.
func (q *Queries) ListTasksByUserBoardOrder(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE column_id IN `+ownedColumns+`
		ORDER BY column_id, position ASC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

// ListAllTasks returns every task in the database. Admin export only.
func (q *Queries) ListAllTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+taskColumns+` FROM tasks ORDER BY column_id, position ASC`)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

// CreateTaskParams holds parameters for CreateTask.
type CreateTaskParams struct {
	Title       string
	Description string
	Priority    string
	DueDate     sql.NullTime
	ColumnID    string
}

// CreateTask appends a task to a column. The caller must have verified column
// ownership first (ColumnOwned).
func (q *Queries) CreateTask(ctx context.Context, arg CreateTaskParams) (model.Task, error) {
	now := time.Now().UTC()
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO tasks (id, title, description, priority, due_date, column_id, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COUNT(*) FROM tasks WHERE column_id = ?), ?, ?)
		RETURNING `+taskColumns,
		uuid.NewString(), arg.Title, arg.Description, arg.Priority, arg.DueDate, arg.ColumnID, arg.ColumnID, now, now,
	)
	return scanTask(row)
}

// UpdateTaskParams holds parameters for UpdateTask.
type UpdateTaskParams struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Priority    string
	DueDate     sql.NullTime
}

// UpdateTask updates a task's editable fields. Ownership is resolved through
// the two-level join inside the UPDATE; sql.ErrNoRows means missing or foreign.
func (q *Queries) UpdateTask(ctx context.Context, arg UpdateTaskParams) (model.Task, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, priority = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND column_id IN `+ownedColumns+`
		RETURNING `+taskColumns,
		arg.Title, arg.Description, arg.Priority, arg.DueDate, time.Now().UTC(), arg.ID, arg.UserID,
	)
	return scanTask(row)
}

// DeleteTask removes an owned task.
func (q *Queries) DeleteTask(ctx context.Context, id, userID string) error {
	res, err := q.db.ExecContext(ctx, `
		DELETE FROM tasks
		WHERE id = ? AND column_id IN `+ownedColumns,
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

// MoveTaskParams holds parameters for MoveTask.
type MoveTaskParams struct {
	ID       string
	UserID   string
	ColumnID string
	Position int64
}

// MoveTask moves a task to a (possibly different) column and position in one
// statement. The WHERE clause verifies ownership of both the task and the
// target column, so there is no window where the task belongs to neither or
// both and no way to move a foreign task into an owned column.
func (q *Queries) MoveTask(ctx context.Context, arg MoveTaskParams) (model.Task, error) {
	row := q.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET column_id = ?, position = ?, updated_at = ?
		WHERE id = ?
			AND column_id IN `+ownedColumns+`
			AND ? IN `+ownedColumns+`
		RETURNING `+taskColumns,
		arg.ColumnID, arg.Position, time.Now().UTC(), arg.ID, arg.UserID, arg.ColumnID, arg.UserID,
	)
	return scanTask(row)
}
