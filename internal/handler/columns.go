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

// CreateColumnRequest represents the request body for creating a column.
type CreateColumnRequest struct {
	Title     string `json:"title"`
	ProjectID string `json:"project_id"`
}

// UpdateColumnRequest represents the request body for renaming a column.
type UpdateColumnRequest struct {
	Title string `json:"title"`
}

// ListColumns handles GET /api/columns
// With ?project_id= it returns that project's columns; otherwise all columns
// across the caller's projects.
func (h *Handler) ListColumns(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	var (
		columns any
		total   int
	)

	if projectID := r.URL.Query().Get("project_id"); projectID != "" {
		list, err := h.queries.ListColumnsByProject(r.Context(), projectID, userID)
		if err != nil {
			WriteInternalError(w, "Failed to list columns")
			return
		}
		columns, total = list, len(list)
	} else {
		list, err := h.queries.ListColumnsByUser(r.Context(), userID)
		if err != nil {
			WriteInternalError(w, "Failed to list columns")
			return
		}
		columns, total = list, len(list)
	}

	WriteSuccess(w, columns, &Meta{Total: int64(total)})
}

// CreateColumn handles POST /api/columns
// Creating under another user's project is the one case reported as 403
// rather than 404: the parent demonstrably exists, the caller just does not
// own it.
func (h *Handler) CreateColumn(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	var req CreateColumnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	validationErrors := make(map[string]string)
	if req.Title == "" {
		validationErrors["title"] = "Title is required"
	}
	if req.ProjectID == "" {
		validationErrors["project_id"] = "Project ID is required"
	}
	if len(validationErrors) > 0 {
		WriteValidationError(w, validationErrors)
		return
	}

	owned, err := h.queries.ProjectOwned(r.Context(), req.ProjectID, userID)
	if err != nil {
		WriteInternalError(w, "Failed to verify project")
		return
	}
	if !owned {
		WriteForbidden(w, "Project does not belong to you")
		return
	}

	column, err := h.queries.CreateColumn(r.Context(), store.CreateColumnParams{
		Title:     req.Title,
		ProjectID: req.ProjectID,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create column")
		return
	}

	WriteCreated(w, column)
}

// UpdateColumn handles PUT /api/columns/{id}
func (h *Handler) UpdateColumn(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	id := URLParam(r, "id")

	var req UpdateColumnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		WriteValidationError(w, map[string]string{"title": "Title is required"})
		return
	}

	column, err := h.queries.UpdateColumn(r.Context(), id, userID, req.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Column not found")
		} else {
			WriteInternalError(w, "Failed to update column")
		}
		return
	}

	WriteSuccess(w, column, nil)
}

// DeleteColumn handles DELETE /api/columns/{id}
// Tasks under the column are removed by cascade.
func (h *Handler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	id := URLParam(r, "id")

	if err := h.queries.DeleteColumn(r.Context(), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Column not found")
		} else {
			WriteInternalError(w, "Failed to delete column")
		}
		return
	}

	WriteSuccess(w, map[string]string{"status": "deleted"}, nil)
}

// ReorderColumns handles POST /api/columns/reorder
func (h *Handler) ReorderColumns(w http.ResponseWriter, r *http.Request) {
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

	if err := store.BulkReorderColumns(r.Context(), h.db, userID, req.Items); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Column not found")
		} else {
			WriteInternalError(w, "Failed to reorder columns")
		}
		return
	}

	WriteSuccess(w, map[string]string{"status": "reordered"}, nil)
}
