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

	"github.com/olegiv/kanban-go/internal/auth"
	"github.com/olegiv/kanban-go/internal/middleware"
	"github.com/olegiv/kanban-go/internal/model"
	"github.com/olegiv/kanban-go/internal/store"
)

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func userResponse(u model.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UsersCount handles GET /api/users/count
// Public: lets the client decide between first-run setup and the login form.
func (h *Handler) UsersCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.queries.CountUsers(r.Context())
	if err != nil {
		WriteInternalError(w, "Failed to count users")
		return
	}

	WriteSuccess(w, map[string]int64{"count": count}, nil)
}

// Register handles POST /api/auth/register
// The first registered user becomes the admin. Further signups require
// allow_signup to be enabled.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	validationErrors := make(map[string]string)
	if req.Username == "" {
		validationErrors["username"] = "Username is required"
	}
	if len(req.Password) < 8 {
		validationErrors["password"] = "Password must be at least 8 characters"
	}
	if len(validationErrors) > 0 {
		WriteValidationError(w, validationErrors)
		return
	}

	count, err := h.queries.CountUsers(ctx)
	if err != nil {
		WriteInternalError(w, "Failed to count users")
		return
	}

	// The first user bypasses the signup switch; everyone after needs it on.
	isFirstUser := count == 0
	if !isFirstUser {
		settings, err := h.queries.GetSettings(ctx)
		if err != nil {
			WriteInternalError(w, "Failed to load settings")
			return
		}
		if !settings.AllowSignup {
			WriteForbidden(w, "Signups are disabled")
			return
		}
	}

	if _, err := h.queries.GetUserByUsername(ctx, req.Username); err == nil {
		WriteValidationError(w, map[string]string{"username": "Username already taken"})
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		WriteInternalError(w, "Failed to check username")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("password hash error", "error", err)
		WriteInternalError(w, "Failed to create user")
		return
	}

	user, err := h.queries.CreateUser(ctx, store.CreateUserParams{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: passwordHash,
		IsAdmin:      isFirstUser,
	})
	if err != nil {
		WriteInternalError(w, "Failed to create user")
		return
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(ctx); err != nil {
		slog.Error("session renewal error", "error", err)
		WriteInternalError(w, "Failed to create session")
		return
	}
	h.sessionManager.Put(ctx, middleware.SessionKeyUserID, user.ID)

	slog.Info("user registered", "user_id", user.ID, "username", user.Username, "is_admin", user.IsAdmin)

	WriteCreated(w, userResponse(user))
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	if req.Username == "" || req.Password == "" {
		WriteBadRequest(w, "Username and password are required", nil)
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(req.Username); locked {
			slog.Warn("login attempt on locked account", "username", req.Username)
			WriteError(w, http.StatusTooManyRequests, "account_locked",
				"Account temporarily locked. Try again in "+remaining.Round(time.Second).String(), nil)
			return
		}
	}

	user, err := h.queries.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("database error during login", "error", err)
		}
		// Record failed attempt even for non-existent users to prevent enumeration
		h.recordLoginFailure(w, req.Username)
		return
	}

	valid, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		if err != nil {
			slog.Error("password check error", "error", err)
		}
		slog.Debug("invalid password attempt", "username", req.Username)
		h.recordLoginFailure(w, req.Username)
		return
	}

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(req.Username)
	}

	// Re-hash password if it uses old/expensive parameters
	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(req.Password); err == nil {
			if err := h.queries.UpdateUserPasswordHash(ctx, user.ID, newHash); err != nil {
				slog.Error("failed to re-hash password", "error", err, "user_id", user.ID)
			} else {
				slog.Info("password re-hashed with updated parameters", "user_id", user.ID)
			}
		}
	}

	// Regenerate session ID to prevent session fixation
	if err := h.sessionManager.RenewToken(ctx); err != nil {
		slog.Error("session renewal error", "error", err)
		WriteInternalError(w, "Failed to create session")
		return
	}
	h.sessionManager.Put(ctx, middleware.SessionKeyUserID, user.ID)

	slog.Info("user logged in", "user_id", user.ID, "username", user.Username)

	WriteSuccess(w, userResponse(user), nil)
}

// recordLoginFailure records a failed attempt and writes the appropriate
// error response. The response never reveals whether the account exists.
func (h *Handler) recordLoginFailure(w http.ResponseWriter, username string) {
	if h.loginProtection != nil {
		if locked, lockDuration := h.loginProtection.RecordFailedAttempt(username); locked {
			WriteError(w, http.StatusTooManyRequests, "account_locked",
				"Too many failed attempts. Account locked for "+lockDuration.Round(time.Second).String(), nil)
			return
		}
	}
	WriteUnauthorized(w, "Invalid username or password")
}

// Logout handles POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
		WriteInternalError(w, "Failed to log out")
		return
	}

	WriteSuccess(w, map[string]string{"status": "logged_out"}, nil)
}

// Me handles GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteUnauthorized(w, "Not authenticated")
		return
	}

	WriteSuccess(w, userResponse(*user), nil)
}
