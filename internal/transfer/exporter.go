// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/olegiv/kanban-go/internal/model"
	"github.com/olegiv/kanban-go/internal/store"
)

// Exporter handles exporting board content to JSON format.
type Exporter struct {
	store  *store.Queries
	logger *slog.Logger
}

// NewExporter creates a new Exporter instance.
func NewExporter(queries *store.Queries, logger *slog.Logger) *Exporter {
	return &Exporter{
		store:  queries,
		logger: logger,
	}
}

// ExportOptions controls what an export contains.
type ExportOptions struct {
	// UserID scopes the export to one user's tree.
	UserID string
	// AllUsers exports every user's tree plus the user list. Admin only;
	// the handler enforces that.
	AllUsers bool
}

// Export generates an ExportData structure based on the provided options.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*ExportData, error) {
	data := &ExportData{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Projects:   []ExportProject{},
		Columns:    []ExportColumn{},
		Tasks:      []ExportTask{},
	}

	var (
		projects []model.Project
		columns  []model.Column
		tasks    []model.Task
		err      error
	)

	if opts.AllUsers {
		if err := e.exportUsers(ctx, data); err != nil {
			return nil, err
		}
		projects, err = e.store.ListAllProjects(ctx)
		if err != nil {
			return nil, err
		}
		columns, err = e.store.ListAllColumns(ctx)
		if err != nil {
			return nil, err
		}
		tasks, err = e.store.ListAllTasks(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		projects, err = e.store.ListProjectsByUser(ctx, opts.UserID)
		if err != nil {
			return nil, err
		}
		columns, err = e.store.ListColumnsByUser(ctx, opts.UserID)
		if err != nil {
			return nil, err
		}
		tasks, err = e.store.ListTasksByUserBoardOrder(ctx, opts.UserID)
		if err != nil {
			return nil, err
		}
	}

	for _, p := range projects {
		ep := ExportProject{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Position:    p.Position,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		}
		if opts.AllUsers {
			ep.UserID = p.UserID
		}
		data.Projects = append(data.Projects, ep)
	}

	for _, c := range columns {
		data.Columns = append(data.Columns, ExportColumn{
			ID:        c.ID,
			Title:     c.Title,
			ProjectID: c.ProjectID,
			Position:  c.Position,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}

	for _, t := range tasks {
		et := ExportTask{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Priority:    t.Priority,
			ColumnID:    t.ColumnID,
			Position:    t.Position,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		}
		if t.DueDate.Valid {
			due := t.DueDate.Time
			et.DueDate = &due
		}
		data.Tasks = append(data.Tasks, et)
	}

	e.logger.Info("export generated",
		"all_users", opts.AllUsers,
		"projects", len(data.Projects),
		"columns", len(data.Columns),
		"tasks", len(data.Tasks),
	)

	return data, nil
}

func (e *Exporter) exportUsers(ctx context.Context, data *ExportData) error {
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		data.Users = append(data.Users, ExportUser{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			IsAdmin:     u.IsAdmin,
			CreatedAt:   u.CreatedAt,
		})
	}
	return nil
}
