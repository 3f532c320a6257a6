// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/kanban-go/internal/middleware"
	"github.com/olegiv/kanban-go/internal/store"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db              *sql.DB
	queries         *store.Queries
	sessionManager  *scs.SessionManager
	loginProtection *middleware.LoginProtection
}

// NewHandler creates a new API handler.
func NewHandler(db *sql.DB, sm *scs.SessionManager, lp *middleware.LoginProtection) *Handler {
	return &Handler{
		db:              db,
		queries:         store.New(db),
		sessionManager:  sm,
		loginProtection: lp,
	}
}

// URLParam returns the named chi route parameter.
func URLParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// parseDueDate accepts a date-only or RFC 3339 due date string.
// An empty string clears the due date.
func parseDueDate(s string) (sql.NullTime, bool) {
	if s == "" {
		return sql.NullTime{}, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return sql.NullTime{Time: t.UTC(), Valid: true}, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return sql.NullTime{Time: t.UTC(), Valid: true}, true
	}
	return sql.NullTime{}, false
}
