// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/olegiv/kanban-go/internal/middleware"
	"github.com/olegiv/kanban-go/internal/transfer"
)

// Export handles GET /api/admin/export
// Regular users receive their own tree; admins receive every user's tree
// plus the user list.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	exporter := transfer.NewExporter(h.queries, slog.Default())
	data, err := exporter.Export(r.Context(), transfer.ExportOptions{
		UserID:   user.ID,
		AllUsers: user.IsAdmin,
	})
	if err != nil {
		slog.Error("export failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Failed to export data")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="kanban-export.json"`)
	WriteJSON(w, http.StatusOK, data)
}

// Import handles POST /api/admin/import
// Replaces the caller's own tree atomically; a failed import leaves the
// existing tree untouched.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	var data transfer.ExportData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	importer := transfer.NewImporter(h.queries, h.db, slog.Default())
	result, err := importer.Import(r.Context(), user.ID, &data)
	if err != nil {
		if result != nil && len(result.Errors) > 0 {
			details := make(map[string]string, len(result.Errors))
			for _, e := range result.Errors {
				key := e.Entity
				if e.ID != "" {
					key = e.Entity + ":" + e.ID
				}
				details[key] = e.Message
			}
			WriteError(w, http.StatusBadRequest, "validation_error", "Import validation failed", details)
			return
		}
		slog.Error("import failed", "error", err, "user_id", user.ID)
		WriteInternalError(w, "Failed to import data")
		return
	}

	slog.Info("board imported", "user_id", user.ID,
		"projects", result.Projects, "columns", result.Columns, "tasks", result.Tasks)

	WriteSuccess(w, result, nil)
}
