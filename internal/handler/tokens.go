// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/kanban-go/internal/middleware"
	"github.com/olegiv/kanban-go/internal/model"
	"github.com/olegiv/kanban-go/internal/store"
)

// TokenResponse represents an API token in responses. The secret appears only
// in the creation response; afterwards there is nothing to show but metadata.
type TokenResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Token      string     `json:"token,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

func tokenResponse(t model.APIToken) TokenResponse {
	resp := TokenResponse{
		ID:        t.ID,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
	}
	if t.LastUsedAt.Valid {
		lastUsed := t.LastUsedAt.Time
		resp.LastUsedAt = &lastUsed
	}
	return resp
}

// CreateTokenRequest represents the request body for creating an API token.
type CreateTokenRequest struct {
	Name string `json:"name"`
}

// ListTokens handles GET /api/tokens
func (h *Handler) ListTokens(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	tokens, err := h.queries.ListAPITokensByUser(r.Context(), userID)
	if err != nil {
		WriteInternalError(w, "Failed to list tokens")
		return
	}

	responses := make([]TokenResponse, 0, len(tokens))
	for _, t := range tokens {
		responses = append(responses, tokenResponse(t))
	}

	WriteSuccess(w, responses, &Meta{Total: int64(len(responses))})
}

// CreateToken handles POST /api/tokens
// The raw secret is generated server side, returned once, and only its hash
// is stored.
func (h *Handler) CreateToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	var req CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		WriteValidationError(w, map[string]string{"name": "Name is required"})
		return
	}

	taken, err := h.queries.APITokenNameTaken(r.Context(), userID, req.Name)
	if err != nil {
		WriteInternalError(w, "Failed to check token name")
		return
	}
	if taken {
		WriteValidationError(w, map[string]string{"name": "A token with this name already exists"})
		return
	}

	rawToken, err := model.GenerateToken()
	if err != nil {
		slog.Error("token generation error", "error", err)
		WriteInternalError(w, "Failed to generate token")
		return
	}

	token, err := h.queries.CreateAPIToken(r.Context(), store.CreateAPITokenParams{
		UserID:    userID,
		Name:      req.Name,
		TokenHash: model.HashToken(rawToken),
	})
	if err != nil {
		WriteInternalError(w, "Failed to create token")
		return
	}

	slog.Info("api token created", "user_id", userID, "token_id", token.ID, "name", token.Name)

	resp := tokenResponse(token)
	resp.Token = rawToken
	WriteCreated(w, resp)
}

// DeleteToken handles DELETE /api/tokens/{id}
func (h *Handler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	id := URLParam(r, "id")

	if err := h.queries.DeleteAPIToken(r.Context(), id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Token not found")
		} else {
			WriteInternalError(w, "Failed to delete token")
		}
		return
	}

	slog.Info("api token revoked", "user_id", userID, "token_id", id)

	WriteSuccess(w, map[string]string{"status": "deleted"}, nil)
}
