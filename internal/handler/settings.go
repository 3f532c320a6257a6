// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// UpdateSettingsRequest represents the request body for updating settings.
type UpdateSettingsRequest struct {
	AllowSignup *bool `json:"allow_signup"`
}

// GetSettings handles GET /api/auth/settings
// Public: the login page needs to know whether to offer registration.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.queries.GetSettings(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to load settings")
		return
	}

	WriteSuccess(w, settings, nil)
}

// UpdateSettings handles PUT /api/auth/settings
// Admin only.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if req.AllowSignup == nil {
		WriteValidationError(w, map[string]string{"allow_signup": "allow_signup is required"})
		return
	}

	settings, err := h.queries.UpdateAllowSignup(r.Context(), *req.AllowSignup)
	if err != nil {
		WriteInternalError(w, "Failed to update settings")
		return
	}

	slog.Info("signup setting updated", "allow_signup", settings.AllowSignup)

	WriteSuccess(w, settings, nil)
}
