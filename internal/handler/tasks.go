// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/kanban-go/internal/middleware"
	"github.com/olegiv/kanban-go/internal/model"
	"github.com/olegiv/kanban-go/internal/store"
)

// TaskResponse represents a task in API responses. The due date is rendered
// as a plain timestamp or omitted, never as a nullable wrapper.
type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ColumnID    string     `json:"column_id"`
	Position    int64      `json:"position"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func taskResponse(t model.Task) TaskResponse {
	resp := TaskResponse{
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
		resp.DueDate = &due
	}
	return resp
}

func taskResponses(tasks []model.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, taskResponse(t))
	}
	return responses
}

// CreateTaskRequest represents the request body for creating a task.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date"`
	ColumnID    string `json:"column_id"`
}

// UpdateTaskRequest represents the request body for updating a task.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// MoveTaskRequest represents the request body for moving a task.
type MoveTaskRequest struct {
	ColumnID string `json:"column_id"`
	Position int64  `json:"position"`
}

// ListTasks handles GET /api/tasks
// With ?column_id= it returns that column's tasks in board order; otherwise a
// flat listing of every task the caller owns, sorted by priority and due date.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	var tasks []model.Task
	var err error

	if columnID := r.URL.Query().Get("column_id"); columnID != "" {
		tasks, err = h.queries.ListTasksByColumn(r.Context(), columnID, userID)
	} else {
		tasks, err = h.queries.ListTasksByUser(r.Context(), userID)
	}
	if err != nil {
		WriteInternalError(w, "Failed to list tasks")
		return
	}

	WriteSuccess(w, taskResponses(tasks), &Meta{Total: int64(len(tasks))})
}

// CreateTask handles POST /api/tasks
// Like column creation, a foreign parent column is reported as 403.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Priority == "" {
		req.Priority = model.PriorityNone
	}

	validationErrors := make(map[string]string)
	if req.Title == "" {
		validationErrors["title"] = "Title is required"
	}
	if req.ColumnID == "" {
		validationErrors["column_id"] = "Column ID is required"
	}
	if !model.ValidPriority(req.Priority) {
		validationErrors["priority"] = "Priority must be one of: high, medium, low, none"
	}
	dueDate, ok := parseDueDate(req.DueDate)
	if !ok {
		validationErrors["due_date"] = "Due date must be YYYY-MM-DD or RFC 3339"
	}
	if len(validationErrors) > 0 {
		WriteValidationError(w, validationErrors)
		return
	}

	owned, err := h.queries.ColumnOwned(r.Context(), req.ColumnID, userID)
	if err != nil {
		WriteInternalError(w, "Failed to verify column")
		return
	}
	if !owned {
		WriteForbidden(w, "Column does not belong to you")
		return
	}

	task, err := h.queries.CreateTask(r.Context(), store.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     dueDate,
		ColumnID:    req.ColumnID,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create task")
		return
	}

	WriteCreated(w, taskResponse(task))
}

// UpdateTask handles PUT /api/tasks/{id}
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	id := URLParam(r, "id")

	existing, err := h.queries.GetTask(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Task not found")
		} else {
			WriteInternalError(w, "Failed to load task")
		}
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	params := store.UpdateTaskParams{
		ID:          id,
		UserID:      userID,
		Title:       existing.Title,
		Description: existing.Description,
		Priority:    existing.Priority,
		DueDate:     existing.DueDate,
	}

	validationErrors := make(map[string]string)
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			validationErrors["title"] = "Title cannot be empty"
		}
		params.Title = title
	}
	if req.Description != nil {
		params.Description = *req.Description
	}
	if req.Priority != nil {
		if !model.ValidPriority(*req.Priority) {
			validationErrors["priority"] = "Priority must be one of: high, medium, low, none"
		}
		params.Priority = *req.Priority
	}
	if req.DueDate != nil {
		dueDate, ok := parseDueDate(*req.DueDate)
		if !ok {
			validationErrors["due_date"] = "Due date must be YYYY-MM-DD or RFC 3339"
		}
		params.DueDate = dueDate
	}
	if len(validationErrors) > 0 {
		WriteValidationError(w, validationErrors)
		return
	}

	task, err := h.queries.UpdateTask(r.Context(), params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Task not found")
		} else {
			WriteInternalError(w, "Failed to update task")
		}
		return
	}

	WriteSuccess(w, taskResponse(task), nil)
}

// DeleteTask handles DELETE /api/tasks/{id}
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	id := URLParam(r, "id")

	if err := h.queries.DeleteTask(r.Context(), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Task not found")
		} else {
			WriteInternalError(w, "Failed to delete task")
		}
		return
	}

	WriteSuccess(w, map[string]string{"status": "deleted"}, nil)
}

// MoveTask handles PUT /api/tasks/{id}/move
// One statement moves the task and verifies ownership of both the task and
// the target column; a miss on either side is a 404.
func (h *Handler) MoveTask(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	id := URLParam(r, "id")

	var req MoveTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	validationErrors := make(map[string]string)
	if req.ColumnID == "" {
		validationErrors["column_id"] = "Column ID is required"
	}
	if req.Position < 0 {
		validationErrors["position"] = "Position cannot be negative"
	}
	if len(validationErrors) > 0 {
		WriteValidationError(w, validationErrors)
		return
	}

	task, err := h.queries.MoveTask(r.Context(), store.MoveTaskParams{
		ID:       id,
		UserID:   userID,
		ColumnID: req.ColumnID,
		Position: req.Position,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Task or column not found")
		} else {
			WriteInternalError(w, "Failed to move task")
		}
		return
	}

	WriteSuccess(w, taskResponse(task), nil)
}

// ReorderTasks handles POST /api/tasks/reorder
func (h *Handler) ReorderTasks(w http.ResponseWriter, r *http.Request) {
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

	if err := store.BulkReorderTasks(r.Context(), h.db, userID, req.Items); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Task not found")
		} else {
			WriteInternalError(w, "Failed to reorder tasks")
		}
		return
	}

	WriteSuccess(w, map[string]string{"status": "reordered"}, nil)
}
