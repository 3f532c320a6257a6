// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"testing"

	"github.com/olegiv/kanban-go/internal/model"
	"github.com/olegiv/kanban-go/internal/store"
)

func (e *testEnv) createProject(title string) model.Project {
	e.t.Helper()
	code, raw := e.do(http.MethodPost, "/api/projects", CreateProjectRequest{Title: title})
	if code != http.StatusCreated {
		e.t.Fatalf("create project: status %d (body: %s)", code, raw)
	}
	var p model.Project
	e.decodeData(raw, &p)
	return p
}

func (e *testEnv) createColumn(projectID, title string) model.Column {
	e.t.Helper()
	code, raw := e.do(http.MethodPost, "/api/columns", CreateColumnRequest{Title: title, ProjectID: projectID})
	if code != http.StatusCreated {
		e.t.Fatalf("create column: status %d (body: %s)", code, raw)
	}
	var c model.Column
	e.decodeData(raw, &c)
	return c
}

func (e *testEnv) createTask(columnID, title string) TaskResponse {
	e.t.Helper()
	code, raw := e.do(http.MethodPost, "/api/tasks", CreateTaskRequest{Title: title, ColumnID: columnID})
	if code != http.StatusCreated {
		e.t.Fatalf("create task: status %d (body: %s)", code, raw)
	}
	var task TaskResponse
	e.decodeData(raw, &task)
	return task
}

func TestProjectCRUD(t *testing.T) {
	env := newTestEnv(t)
	env.register("alice")

	p := env.createProject("Website")
	if p.Position != 0 {
		t.Errorf("first project position = %d, want 0", p.Position)
	}

	code, raw := env.do(http.MethodGet, "/api/projects", nil)
	if code != http.StatusOK {
		t.Fatalf("list projects: status %d", code)
	}
	var projects []model.Project
	env.decodeData(raw, &projects)
	if len(projects) != 1 {
		t.Fatalf("got %d projects, want 1", len(projects))
	}
	if total := env.metaTotal(raw); total != 1 {
		t.Errorf("meta.total = %d, want 1", total)
	}

	newTitle := "Website v2"
	code, raw = env.do(http.MethodPut, "/api/projects/"+p.ID, UpdateProjectRequest{Title: &newTitle})
	if code != http.StatusOK {
		t.Fatalf("update project: status %d (body: %s)", code, raw)
	}
	var updated model.Project
	env.decodeData(raw, &updated)
	if updated.Title != newTitle {
		t.Errorf("Title = %q, want %q", updated.Title, newTitle)
	}

	// Omitted fields keep their values.
	desc := "relaunch"
	code, raw = env.do(http.MethodPut, "/api/projects/"+p.ID, UpdateProjectRequest{Description: &desc})
	if code != http.StatusOK {
		t.Fatalf("partial update: status %d", code)
	}
	env.decodeData(raw, &updated)
	if updated.Title != newTitle || updated.Description != desc {
		t.Errorf("after partial update: title %q desc %q", updated.Title, updated.Description)
	}

	if code, _ := env.do(http.MethodDelete, "/api/projects/"+p.ID, nil); code != http.StatusOK {
		t.Fatalf("delete project: status %d", code)
	}
	code, raw = env.do(http.MethodGet, "/api/projects", nil)
	if code != http.StatusOK {
		t.Fatalf("list after delete: status %d", code)
	}
	env.decodeData(raw, &projects)
	if len(projects) != 0 {
		t.Errorf("projects after delete = %d, want 0", len(projects))
	}
}

func TestCreateProject_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.register("alice")

	code, raw := env.do(http.MethodPost, "/api/projects", CreateProjectRequest{Title: "   "})
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if got := env.errorCode(raw); got != "validation_error" {
		t.Errorf("error code = %q, want validation_error", got)
	}
}

func TestForeignProject_Masked(t *testing.T) {
	env := newTestEnv(t)
	env.register("alice")
	p := env.createProject("Alice's board")

	intruder := newCookieClient(t)
	env.registerAs(intruder, "bob")

	// Foreign rows look missing, not forbidden.
	title := "hijacked"
	code, raw := env.doAs(intruder, http.MethodPut, "/api/projects/"+p.ID, UpdateProjectRequest{Title: &title}, "")
	if code != http.StatusNotFound {
		t.Errorf("foreign update: status %d, want 404", code)
	}
	if got := env.errorCode(raw); got != "not_found" {
		t.Errorf("error code = %q, want not_found", got)
	}

	if code, _ := env.doAs(intruder, http.MethodDelete, "/api/projects/"+p.ID, nil, ""); code != http.StatusNotFound {
		t.Errorf("foreign delete: status %d, want 404", code)
	}

	code, raw = env.doAs(intruder, http.MethodGet, "/api/projects", nil, "")
	if code != http.StatusOK {
		t.Fatalf("list as intruder: status %d", code)
	}
	var projects []model.Project
	env.decodeData(raw, &projects)
	if len(projects) != 0 {
		t.Errorf("intruder sees %d projects, want 0", len(projects))
	}
}

func TestCreateColumn_ForeignProject(t *testing.T) {
	env := newTestEnv(t)
	env.register("alice")
	p := env.createProject("Alice's board")

	intruder := newCookieClient(t)
	env.registerAs(intruder, "bob")

	code, raw := env.doAs(intruder, http.MethodPost, "/api/columns", CreateColumnRequest{
		Title:     "Sneaky",
		ProjectID: p.ID,
	}, "")
	if code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", code)
	}
	if got := env.errorCode(raw); got != "forbidden" {
		t.Errorf("error code = %q, want forbidden", got)
	}
}

func TestColumnCRUD(t *testing.T) {
	env := newTestEnv(t)
	env.register("alice")
	p := env.createProject("Board")

	todo := env.createColumn(p.ID, "Todo")
	done := env.createColumn(p.ID, "Done")
	if todo.Position != 0 || done.Position != 1 {
		t.Errorf("positions = %d, %d, want 0, 1", todo.Position, done.Position)
	}

	code, raw := env.do(http.MethodGet, "/api/columns?project_id="+p.ID, nil)
	if code != http.StatusOK {
		t.Fatalf("list columns: status %d", code)
	}
	var columns []model.Column
	env.decodeData(raw, &columns)
	if len(columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(columns))
	}

	code, raw = env.do(http.MethodPut, "/api/columns/"+todo.ID, UpdateColumnRequest{Title: "Backlog"})
	if code != http.StatusOK {
		t.Fatalf("rename column: status %d", code)
	}
	var renamed model.Column
	env.decodeData(raw, &renamed)
	if renamed.Title != "Backlog" {
		t.Errorf("Title = %q, want Backlog", renamed.Title)
	}

	if code, _ := env.do(http.MethodDelete, "/api/columns/"+done.ID, nil); code != http.StatusOK {
		t.Fatalf("delete column: status %d", code)
	}
}

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.register("alice")
	p := env.createProject("Board")
	todo := env.createColumn(p.ID, "Todo")
	done := env.createColumn(p.ID, "Done")

	// Validation failures come back as one batch of field errors.
	code, raw := env.do(http.MethodPost, "/api/tasks", CreateTaskRequest{
		Priority: "urgent",
		DueDate:  "tomorrow",
		ColumnID: todo.ID,
	})
	if code != http.StatusBadRequest {
		t.Fatalf("invalid task: status %d, want 400", code)
	}
	if got := env.errorCode(raw); got != "validation_error" {
		t.Errorf("error code = %q, want validation_error", got)
	}

	code, raw = env.do(http.MethodPost, "/api/tasks", CreateTaskRequest{
		Title:    "ship it",
		Priority: model.PriorityHigh,
		DueDate:  "2026-09-15",
		ColumnID: todo.ID,
	})
	if code != http.StatusCreated {
		t.Fatalf("create task: status %d (body: %s)", code, raw)
	}
	var task TaskResponse
	env.decodeData(raw, &task)
	if task.Priority != model.PriorityHigh {
		t.Errorf("Priority = %q, want high", task.Priority)
	}
	if task.DueDate == nil {
		t.Error("DueDate missing from response")
	}

	// Clearing the due date with an empty string.
	empty := ""
	code, raw = env.do(http.MethodPut, "/api/tasks/"+task.ID, UpdateTaskRequest{DueDate: &empty})
	if code != http.StatusOK {
		t.Fatalf("clear due date: status %d", code)
	}
	task = TaskResponse{}
	env.decodeData(raw, &task)
	if task.DueDate != nil {
		t.Errorf("DueDate = %v after clearing, want nil", task.DueDate)
	}

	code, raw = env.do(http.MethodPut, "/api/tasks/"+task.ID+"/move", MoveTaskRequest{
		ColumnID: done.ID,
		Position: 0,
	})
	if code != http.StatusOK {
		t.Fatalf("move task: status %d (body: %s)", code, raw)
	}
	env.decodeData(raw, &task)
	if task.ColumnID != done.ID {
		t.Errorf("ColumnID = %s, want %s", task.ColumnID, done.ID)
	}

	if code, _ := env.do(http.MethodDelete, "/api/tasks/"+task.ID, nil); code != http.StatusOK {
		t.Fatalf("delete task: status %d", code)
	}
}

func TestCreateTask_ForeignColumn(t *testing.T) {
	env := newTestEnv(t)
	env.register("alice")
	p := env.createProject("Board")
	c := env.createColumn(p.ID, "Todo")

	intruder := newCookieClient(t)
	env.registerAs(intruder, "bob")

	code, _ := env.doAs(intruder, http.MethodPost, "/api/tasks", CreateTaskRequest{
		Title:    "sneaky",
		ColumnID: c.ID,
	}, "")
	if code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", code)
	}
}

func TestMoveTask_ForeignColumn(t *testing.T) {
	env := newTestEnv(t)
	env.register("alice")
	p := env.createProject("Board")
	c := env.createColumn(p.ID, "Todo")
	task := env.createTask(c.ID, "mine")

	intruder := newCookieClient(t)
	env.registerAs(intruder, "bob")
	theirProject := struct {
		ID string `json:"id"`
	}{}
	code, raw := env.doAs(intruder, http.MethodPost, "/api/projects", CreateProjectRequest{Title: "Bob's"}, "")
	if code != http.StatusCreated {
		t.Fatalf("create foreign project: status %d", code)
	}
	env.decodeData(raw, &theirProject)
	code, raw = env.doAs(intruder, http.MethodPost, "/api/columns", CreateColumnRequest{Title: "Todo", ProjectID: theirProject.ID}, "")
	if code != http.StatusCreated {
		t.Fatalf("create foreign column: status %d", code)
	}
	var theirColumn model.Column
	env.decodeData(raw, &theirColumn)

	// Moving an owned task into a foreign column misses like a missing row.
	code, raw = env.do(http.MethodPut, "/api/tasks/"+task.ID+"/move", MoveTaskRequest{
		ColumnID: theirColumn.ID,
		Position: 0,
	})
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 (body: %s)", code, raw)
	}
}

func TestReorderProjectsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.register("alice")
	p1 := env.createProject("First")
	p2 := env.createProject("Second")

	code, raw := env.do(http.MethodPost, "/api/projects/reorder", ReorderRequest{})
	if code != http.StatusBadRequest {
		t.Fatalf("empty reorder: status %d, want 400", code)
	}
	if got := env.errorCode(raw); got != "validation_error" {
		t.Errorf("error code = %q, want validation_error", got)
	}

	code, _ = env.do(http.MethodPost, "/api/projects/reorder", ReorderRequest{
		Items: []store.PositionUpdate{
			{ID: p2.ID, Position: 0},
			{ID: p1.ID, Position: 1},
		},
	})
	if code != http.StatusOK {
		t.Fatalf("reorder: status %d", code)
	}

	code, raw = env.do(http.MethodGet, "/api/projects", nil)
	if code != http.StatusOK {
		t.Fatalf("list: status %d", code)
	}
	var projects []model.Project
	env.decodeData(raw, &projects)
	if projects[0].ID != p2.ID {
		t.Errorf("first project = %s, want %s", projects[0].ID, p2.ID)
	}

	// An unknown id rejects the whole batch.
	code, _ = env.do(http.MethodPost, "/api/projects/reorder", ReorderRequest{
		Items: []store.PositionUpdate{
			{ID: p1.ID, Position: 0},
			{ID: "no-such-id", Position: 1},
		},
	})
	if code != http.StatusNotFound {
		t.Errorf("reorder with unknown id: status %d, want 404", code)
	}
}
