// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/olegiv/kanban-go/internal/middleware"
	"github.com/olegiv/kanban-go/internal/store"
)

// CreateProjectRequest represents the request body for creating a project.
type CreateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UpdateProjectRequest represents the request body for updating a project.
type UpdateProjectRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ReorderRequest represents the request body for bulk position updates.
type ReorderRequest struct {
	Items []store.PositionUpdate `json:"items"`
}

// ListProjects handles GET /api/projects
// Returns only the caller's projects, in board order.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	projects, err := h.queries.ListProjectsByUser(r.Context(), userID)
	if err != nil {
		WriteInternalError(w, "Failed to list projects")
		return
	}

	WriteSuccess(w, projects, &Meta{Total: int64(len(projects))})
}

// CreateProject handles POST /api/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		WriteValidationError(w, map[string]string{"title": "Title is required"})
		return
	}

	project, err := h.queries.CreateProject(r.Context(), store.CreateProjectParams{
		Title:       req.Title,
		Description: req.Description,
		UserID:      userID,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create project")
		return
	}

	WriteCreated(w, project)
}

// UpdateProject handles PUT /api/projects/{id}
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	id := URLParam(r, "id")

	// Fetch-then-update so omitted fields keep their values. The ownership
	// predicate in the UPDATE still decides whether the row is visible.
	existing, err := h.queries.GetProject(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Project not found")
		} else {
			WriteInternalError(w, "Failed to load project")
		}
		return
	}
	params := store.UpdateProjectParams{
		ID:          id,
		UserID:      userID,
		Title:       existing.Title,
		Description: existing.Description,
	}

	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			WriteValidationError(w, map[string]string{"title": "Title cannot be empty"})
			return
		}
		params.Title = title
	}
	if req.Description != nil {
		params.Description = *req.Description
	}

	project, err := h.queries.UpdateProject(r.Context(), params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Project not found")
		} else {
			WriteInternalError(w, "Failed to update project")
		}
		return
	}

	WriteSuccess(w, project, nil)
}

// DeleteProject handles DELETE /api/projects/{id}
// Columns and tasks under the project are removed by cascade.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	id := URLParam(r, "id")

	if err := h.queries.DeleteProject(r.Context(), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Project not found")
		} else {
			WriteInternalError(w, "Failed to delete project")
		}
		return
	}

	WriteSuccess(w, map[string]string{"status": "deleted"}, nil)
}

// ReorderProjects handles POST /api/projects/reorder
// Applies every position update in one transaction or none of them.
func (h *Handler) ReorderProjects(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if len(req.Items) == 0 {
		WriteValidationError(w, map[string]string{"items": "At least one item is required"})
		return
	}

	if err := store.BulkReorderProjects(r.Context(), h.db, userID, req.Items); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Project not found")
		} else {
			WriteInternalError(w, "Failed to reorder projects")
		}
		return
	}

	WriteSuccess(w, map[string]string{"status": "reordered"}, nil)
}
