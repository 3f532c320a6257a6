// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/kanban-go/internal/model"
	"github.com/olegiv/kanban-go/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser is the context key for the authenticated user.
const ContextKeyUser ContextKey = "user"

// SessionKeyUserID is the session key holding the authenticated user's ID.
const SessionKeyUserID = "user_id"

// Auth creates middleware that requires authentication.
// It accepts either a Bearer API token or a session cookie, in that order.
// The resolved user is stored in the request context.
func Auth(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Bearer tokens take priority so API clients work without cookies.
			user, errorWritten := validateToken(w, r, queries, false)
			if errorWritten {
				return
			}

			if user == nil {
				userID := sm.GetString(r.Context(), SessionKeyUserID)
				if userID == "" {
					WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
					return
				}

				u, err := queries.GetUserByID(r.Context(), userID)
				if err != nil {
					// Stale session pointing at a deleted user.
					_ = sm.Destroy(r.Context())
					WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
					return
				}
				user = &u
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, *user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *model.User {
	user, ok := r.Context().Value(ContextKeyUser).(model.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the current user's ID from context, or empty string if not found.
// Safe to use in logging where a zero-value is acceptable.
func GetUserID(r *http.Request) string {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return ""
}

// RequireAdmin creates middleware that requires the authenticated user to be
// an administrator. This should be used after Auth middleware.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
				return
			}

			if !user.IsAdmin {
				WriteAPIError(w, http.StatusForbidden, "forbidden", "Admin privileges required", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
