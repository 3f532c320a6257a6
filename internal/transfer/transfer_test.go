// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/kanban-go/internal/model"
	"github.com/olegiv/kanban-go/internal/store"
	"github.com/olegiv/kanban-go/internal/testutil"
	"github.com/olegiv/kanban-go/internal/transfer"
)

type fixture struct {
	db      *sql.DB
	queries *store.Queries
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	return &fixture{db: db, queries: store.New(db)}
}

func (f *fixture) user(t *testing.T, username string, admin bool) model.User {
	t.Helper()
	u, err := f.queries.CreateUser(context.Background(), store.CreateUserParams{
		Username:     username,
		DisplayName:  username,
		PasswordHash: "x",
		IsAdmin:      admin,
	})
	require.NoError(t, err)
	return u
}

// seedBoard creates a small two-column board with three tasks for the user.
func (f *fixture) seedBoard(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()

	p, err := f.queries.CreateProject(ctx, store.CreateProjectParams{
		Title:       "Website",
		Description: "relaunch",
		UserID:      userID,
	})
	require.NoError(t, err)

	todo, err := f.queries.CreateColumn(ctx, store.CreateColumnParams{Title: "Todo", ProjectID: p.ID})
	require.NoError(t, err)
	done, err := f.queries.CreateColumn(ctx, store.CreateColumnParams{Title: "Done", ProjectID: p.ID})
	require.NoError(t, err)

	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	_, err = f.queries.CreateTask(ctx, store.CreateTaskParams{
		Title:    "design",
		Priority: model.PriorityHigh,
		DueDate:  sql.NullTime{Time: due, Valid: true},
		ColumnID: todo.ID,
	})
	require.NoError(t, err)
	_, err = f.queries.CreateTask(ctx, store.CreateTaskParams{
		Title:    "build",
		Priority: model.PriorityMedium,
		ColumnID: todo.ID,
	})
	require.NoError(t, err)
	_, err = f.queries.CreateTask(ctx, store.CreateTaskParams{
		Title:    "kickoff",
		Priority: model.PriorityNone,
		ColumnID: done.ID,
	})
	require.NoError(t, err)
}

func TestExport_OwnTree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.user(t, "alice", false)
	bob := f.user(t, "bob", false)
	f.seedBoard(t, alice.ID)
	f.seedBoard(t, bob.ID)

	exporter := transfer.NewExporter(f.queries, testutil.TestLoggerSilent())
	data, err := exporter.Export(ctx, transfer.ExportOptions{UserID: alice.ID})
	require.NoError(t, err)

	assert.Equal(t, transfer.ExportVersion, data.Version)
	assert.Empty(t, data.Users, "per-user export must not carry the user list")
	assert.Len(t, data.Projects, 1, "export must not include other users' projects")
	assert.Len(t, data.Columns, 2)
	assert.Len(t, data.Tasks, 3)
	assert.Empty(t, data.Projects[0].UserID, "per-user export must not expose owner ids")

	// Tasks come grouped by column in position order.
	require.NotNil(t, data.Tasks[0].DueDate)
	assert.Equal(t, "design", data.Tasks[0].Title)
	assert.Equal(t, "build", data.Tasks[1].Title)
}

func TestExport_AllUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.user(t, "admin", true)
	member := f.user(t, "member", false)
	f.seedBoard(t, admin.ID)
	f.seedBoard(t, member.ID)

	exporter := transfer.NewExporter(f.queries, testutil.TestLoggerSilent())
	data, err := exporter.Export(ctx, transfer.ExportOptions{UserID: admin.ID, AllUsers: true})
	require.NoError(t, err)

	assert.Len(t, data.Users, 2)
	assert.Len(t, data.Projects, 2)
	for _, p := range data.Projects {
		assert.NotEmpty(t, p.UserID, "admin export must attribute projects to owners")
	}
}

func TestImport_Roundtrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.user(t, "alice", false)
	f.seedBoard(t, alice.ID)

	exporter := transfer.NewExporter(f.queries, testutil.TestLoggerSilent())
	data, err := exporter.Export(ctx, transfer.ExportOptions{UserID: alice.ID})
	require.NoError(t, err)

	bob := f.user(t, "bob", false)
	importer := transfer.NewImporter(f.queries, f.db, testutil.TestLoggerSilent())
	result, err := importer.Import(ctx, bob.ID, data)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Projects)
	assert.Equal(t, 2, result.Columns)
	assert.Equal(t, 3, result.Tasks)
	assert.Empty(t, result.Errors)

	projects, err := f.queries.ListProjectsByUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Website", projects[0].Title)
	assert.NotEqual(t, data.Projects[0].ID, projects[0].ID, "imported ids must be freshly minted")

	columns, err := f.queries.ListColumnsByProject(ctx, projects[0].ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "Todo", columns[0].Title)
	assert.Equal(t, "Done", columns[1].Title)

	tasks, err := f.queries.ListTasksByColumn(ctx, columns[0].ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "design", tasks[0].Title)
	assert.Equal(t, "build", tasks[1].Title)
	assert.True(t, tasks[0].DueDate.Valid, "due date must survive the round trip")

	// The source tree is untouched.
	aliceProjects, err := f.queries.ListProjectsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, aliceProjects, 1)
}

func TestImport_ReplacesExistingTree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.user(t, "alice", false)
	f.seedBoard(t, alice.ID)

	data := &transfer.ExportData{
		Version:  transfer.ExportVersion,
		Projects: []transfer.ExportProject{{ID: "p1", Title: "Fresh start"}},
		Columns:  []transfer.ExportColumn{{ID: "c1", Title: "Inbox", ProjectID: "p1"}},
		Tasks:    []transfer.ExportTask{{ID: "t1", Title: "begin", ColumnID: "c1"}},
	}

	importer := transfer.NewImporter(f.queries, f.db, testutil.TestLoggerSilent())
	result, err := importer.Import(ctx, alice.ID, data)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Projects)

	projects, err := f.queries.ListProjectsByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1, "the old tree must be gone")
	assert.Equal(t, "Fresh start", projects[0].Title)
}

func TestImport_ValidationFailureLeavesTreeIntact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.user(t, "alice", false)
	f.seedBoard(t, alice.ID)

	data := &transfer.ExportData{
		Version:  transfer.ExportVersion,
		Projects: []transfer.ExportProject{{ID: "p1", Title: "Broken"}},
		Columns:  []transfer.ExportColumn{{ID: "c1", Title: "Inbox", ProjectID: "p1"}},
		Tasks: []transfer.ExportTask{
			{ID: "t1", Title: "orphan", ColumnID: "no-such-column"},
			{ID: "t2", Title: "bad", ColumnID: "c1", Priority: "urgent"},
		},
	}

	importer := transfer.NewImporter(f.queries, f.db, testutil.TestLoggerSilent())
	result, err := importer.Import(ctx, alice.ID, data)
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Len(t, result.Errors, 2)

	// Nothing was written.
	projects, err := f.queries.ListProjectsByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Website", projects[0].Title)
}

func TestImport_MissingProjectsArrayLeavesTreeIntact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.user(t, "alice", false)
	f.seedBoard(t, alice.ID)

	// An empty JSON object decodes to nil slices across the board.
	var data transfer.ExportData
	require.NoError(t, json.Unmarshal([]byte(`{}`), &data))

	importer := transfer.NewImporter(f.queries, f.db, testutil.TestLoggerSilent())
	result, err := importer.Import(ctx, alice.ID, &data)
	require.Error(t, err, "a payload without a projects array must be rejected")
	require.NotNil(t, result)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "projects array is required", result.Errors[0].Message)

	projects, err := f.queries.ListProjectsByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1, "the existing tree must survive the rejected import")
	assert.Equal(t, "Website", projects[0].Title)

	// An explicit empty array is a deliberate wipe and goes through.
	require.NoError(t, json.Unmarshal([]byte(`{"projects":[]}`), &data))
	result, err = importer.Import(ctx, alice.ID, &data)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Projects)

	projects, err = f.queries.ListProjectsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestImport_EntriesWithoutIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.user(t, "alice", false)

	// Hand-written files may omit ids; an id is only needed when a child
	// references the entry.
	data := &transfer.ExportData{
		Projects: []transfer.ExportProject{
			{Title: "Scratch"},
			{ID: "p1", Title: "Planned"},
		},
		Columns: []transfer.ExportColumn{{ID: "c1", Title: "Inbox", ProjectID: "p1"}},
		Tasks:   []transfer.ExportTask{{Title: "first", ColumnID: "c1"}},
	}

	importer := transfer.NewImporter(f.queries, f.db, testutil.TestLoggerSilent())
	result, err := importer.Import(ctx, alice.ID, data)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Projects)
	assert.Equal(t, 1, result.Columns)
	assert.Equal(t, 1, result.Tasks)

	projects, err := f.queries.ListProjectsByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Scratch", projects[0].Title)
	assert.Equal(t, "Planned", projects[1].Title)

	columns, err := f.queries.ListColumnsByProject(ctx, projects[1].ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, columns, 1)

	tasks, err := f.queries.ListTasksByColumn(ctx, columns[0].ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "first", tasks[0].Title)
}

func TestValidate(t *testing.T) {
	importer := transfer.NewImporter(nil, nil, testutil.TestLoggerSilent())

	tests := []struct {
		name    string
		data    transfer.ExportData
		wantErr string
	}{
		{
			name:    "missing projects array",
			data:    transfer.ExportData{},
			wantErr: "projects array is required",
		},
		{
			name:    "project missing title",
			data:    transfer.ExportData{Projects: []transfer.ExportProject{{ID: "p1"}}},
			wantErr: "missing title",
		},
		{
			name: "column references unknown project",
			data: transfer.ExportData{
				Columns: []transfer.ExportColumn{{ID: "c1", Title: "x", ProjectID: "ghost"}},
			},
			wantErr: "references unknown project ghost",
		},
		{
			name: "task invalid priority",
			data: transfer.ExportData{
				Projects: []transfer.ExportProject{{ID: "p1", Title: "p"}},
				Columns:  []transfer.ExportColumn{{ID: "c1", Title: "c", ProjectID: "p1"}},
				Tasks:    []transfer.ExportTask{{ID: "t1", Title: "t", ColumnID: "c1", Priority: "urgent"}},
			},
			wantErr: "invalid priority urgent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := importer.Validate(&tt.data)
			require.NotEmpty(t, errs)
			found := false
			for _, e := range errs {
				if e.Message == tt.wantErr {
					found = true
				}
			}
			assert.True(t, found, "expected %q in %+v", tt.wantErr, errs)
		})
	}
}
