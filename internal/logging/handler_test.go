// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/olegiv/kanban-go/internal/model"
	"github.com/olegiv/kanban-go/internal/store"
	"github.com/olegiv/kanban-go/internal/testutil"
)

func newTestHandler(t *testing.T) (*EventLogHandler, *store.Queries) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewEventLogHandler(inner, db), store.New(db)
}

func TestHandle_WarnAndAboveReachEventLog(t *testing.T) {
	h, queries := newTestHandler(t)
	logger := slog.New(h)
	ctx := context.Background()

	logger.Info("routine startup message")
	logger.Warn("login rate limit exceeded", "ip", "203.0.113.9")
	logger.Error("export failed", "error", "disk full")

	events, err := queries.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (info must not be persisted)", len(events))
	}

	byMessage := make(map[string]model.Event, len(events))
	for _, e := range events {
		byMessage[e.Message] = e
	}

	warn, ok := byMessage["login rate limit exceeded"]
	if !ok {
		t.Fatal("warning event missing")
	}
	if warn.Level != model.EventLevelWarning {
		t.Errorf("warn level = %q, want warning", warn.Level)
	}
	if warn.Category != model.EventCategoryAuth {
		t.Errorf("warn category = %q, want auth", warn.Category)
	}

	errEvent, ok := byMessage["export failed"]
	if !ok {
		t.Fatal("error event missing")
	}
	if errEvent.Level != model.EventLevelError {
		t.Errorf("error level = %q, want error", errEvent.Level)
	}
	if errEvent.Category != model.EventCategoryTransfer {
		t.Errorf("error category = %q, want transfer", errEvent.Category)
	}
}

func TestHandle_ExplicitCategoryAttr(t *testing.T) {
	h, queries := newTestHandler(t)
	logger := slog.New(h)

	logger.Warn("something odd", "category", model.EventCategoryConfig)

	events, err := queries.ListRecentEvents(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Category != model.EventCategoryConfig {
		t.Errorf("category = %q, want config", events[0].Category)
	}
}

func TestHandle_MetadataIsValidJSON(t *testing.T) {
	h, queries := newTestHandler(t)
	logger := slog.New(h)

	logger.Warn("task update failed", "task_id", "abc-123", "detail", `quote " and newline
here`)

	events, err := queries.ListRecentEvents(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	var metadata map[string]string
	if err := json.Unmarshal([]byte(events[0].Metadata), &metadata); err != nil {
		t.Fatalf("metadata is not valid JSON: %v (raw: %s)", err, events[0].Metadata)
	}
	if metadata["task_id"] != "abc-123" {
		t.Errorf("metadata task_id = %q, want abc-123", metadata["task_id"])
	}
}

func TestExtractCategory(t *testing.T) {
	h := &EventLogHandler{}

	tests := []struct {
		message string
		want    string
	}{
		{"failed login attempt", model.EventCategoryAuth},
		{"project created", model.EventCategoryBoard},
		{"user registered", model.EventCategoryUser},
		{"signup setting updated", model.EventCategoryConfig},
		{"board imported", model.EventCategoryTransfer},
		{"disk almost full", model.EventCategorySystem},
	}

	for _, tt := range tests {
		r := slog.Record{Message: tt.message}
		if got := h.extractCategory(r); got != tt.want {
			t.Errorf("extractCategory(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}
