// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/kanban-go/internal/model"
	"github.com/olegiv/kanban-go/internal/store"
)

// Importer replaces a user's board tree with the contents of an export file.
type Importer struct {
	store  *store.Queries
	db     *sql.DB
	logger *slog.Logger
}

// NewImporter creates a new Importer instance.
func NewImporter(queries *store.Queries, db *sql.DB, logger *slog.Logger) *Importer {
	return &Importer{
		store:  queries,
		db:     db,
		logger: logger,
	}
}

// Validate checks the export data before any write. The projects array must
// be present, every column must reference a project in the file and every
// task a column in the file, and task priorities must be known values. Ids
// are optional; an entity only needs one when something else references it.
func (i *Importer) Validate(data *ExportData) []ImportError {
	var result ImportResult

	// A nil slice means the field was absent from the payload. Import clears
	// the existing tree first, so an absent projects array must not be read
	// as an empty board.
	if data.Projects == nil {
		result.AddError("import", "", "projects array is required")
	}

	projectIDs := make(map[string]bool, len(data.Projects))
	for _, p := range data.Projects {
		if p.Title == "" {
			result.AddError("project", p.ID, "missing title")
		}
		if p.ID != "" {
			projectIDs[p.ID] = true
		}
	}

	columnIDs := make(map[string]bool, len(data.Columns))
	for _, c := range data.Columns {
		if c.Title == "" {
			result.AddError("column", c.ID, "missing title")
		}
		if !projectIDs[c.ProjectID] {
			result.AddError("column", c.ID, "references unknown project "+c.ProjectID)
		}
		if c.ID != "" {
			columnIDs[c.ID] = true
		}
	}

	for _, t := range data.Tasks {
		if t.Title == "" {
			result.AddError("task", t.ID, "missing title")
		}
		if !columnIDs[t.ColumnID] {
			result.AddError("task", t.ID, "references unknown column "+t.ColumnID)
		}
		if t.Priority != "" && !model.ValidPriority(t.Priority) {
			result.AddError("task", t.ID, "invalid priority "+t.Priority)
		}
	}

	return result.Errors
}

// Import replaces the user's entire tree with the export data in a single
// transaction. Ids from the file are remapped to fresh ones; on any failure
// the transaction rolls back and the existing tree survives untouched.
func (i *Importer) Import(ctx context.Context, userID string, data *ExportData) (*ImportResult, error) {
	result := &ImportResult{}

	if validationErrors := i.Validate(data); len(validationErrors) > 0 {
		result.Errors = validationErrors
		return result, errors.New("validation failed")
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	queries := i.store.WithTx(tx)

	// Clear the existing tree; columns and tasks go with their projects.
	if err := queries.DeleteProjectsByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear existing projects: %w", err)
	}

	// Insert in dependency order, remapping the file's ids to fresh ones.
	// Rows are inserted in array order, so the count-based position in the
	// INSERT reproduces the exported order.
	projectMap := make(map[string]string, len(data.Projects))
	for _, p := range data.Projects {
		created, err := queries.CreateProject(ctx, store.CreateProjectParams{
			Title:       p.Title,
			Description: p.Description,
			UserID:      userID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to import project %q: %w", p.Title, err)
		}
		if p.ID != "" {
			projectMap[p.ID] = created.ID
		}
		result.Projects++
	}

	columnMap := make(map[string]string, len(data.Columns))
	for _, c := range data.Columns {
		created, err := queries.CreateColumn(ctx, store.CreateColumnParams{
			Title:     c.Title,
			ProjectID: projectMap[c.ProjectID],
		})
		if err != nil {
			return nil, fmt.Errorf("failed to import column %q: %w", c.Title, err)
		}
		if c.ID != "" {
			columnMap[c.ID] = created.ID
		}
		result.Columns++
	}

	for _, t := range data.Tasks {
		priority := t.Priority
		if priority == "" {
			priority = model.PriorityNone
		}
		var dueDate sql.NullTime
		if t.DueDate != nil {
			dueDate = sql.NullTime{Time: *t.DueDate, Valid: true}
		}
		if _, err := queries.CreateTask(ctx, store.CreateTaskParams{
			Title:       t.Title,
			Description: t.Description,
			Priority:    priority,
			DueDate:     dueDate,
			ColumnID:    columnMap[t.ColumnID],
		}); err != nil {
			return nil, fmt.Errorf("failed to import task %q: %w", t.Title, err)
		}
		result.Tasks++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	i.logger.Info("import completed",
		"user_id", userID,
		"projects", result.Projects,
		"columns", result.Columns,
		"tasks", result.Tasks,
	)

	return result, nil
}
