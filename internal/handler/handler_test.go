// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/kanban-go/internal/middleware"
	"github.com/olegiv/kanban-go/internal/testutil"
)

// testEnv runs the API over a real database and a real session manager so
// handler tests exercise the same request path as production, minus the rate
// limiters and CSRF wrapper.
type testEnv struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	sm := scs.New()
	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       1000,
		IPBurst:           1000,
		MaxFailedAttempts: 5,
		LockoutDuration:   time.Minute,
		AttemptWindow:     time.Minute,
	})
	h := NewHandler(db, sm, lp)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Route("/api", func(r chi.Router) {
		r.Get("/users/count", h.UsersCount)
		r.Get("/auth/settings", h.GetSettings)
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sm, db))

			r.Get("/auth/me", h.Me)

			r.Get("/projects", h.ListProjects)
			r.Post("/projects", h.CreateProject)
			r.Post("/projects/reorder", h.ReorderProjects)
			r.Put("/projects/{id}", h.UpdateProject)
			r.Delete("/projects/{id}", h.DeleteProject)

			r.Get("/columns", h.ListColumns)
			r.Post("/columns", h.CreateColumn)
			r.Post("/columns/reorder", h.ReorderColumns)
			r.Put("/columns/{id}", h.UpdateColumn)
			r.Delete("/columns/{id}", h.DeleteColumn)

			r.Get("/tasks", h.ListTasks)
			r.Post("/tasks", h.CreateTask)
			r.Post("/tasks/reorder", h.ReorderTasks)
			r.Put("/tasks/{id}", h.UpdateTask)
			r.Put("/tasks/{id}/move", h.MoveTask)
			r.Delete("/tasks/{id}", h.DeleteTask)

			r.Get("/tokens", h.ListTokens)
			r.Post("/tokens", h.CreateToken)
			r.Delete("/tokens/{id}", h.DeleteToken)

			r.Get("/admin/export", h.Export)
			r.Post("/admin/import", h.Import)

			r.With(middleware.RequireAdmin()).Put("/auth/settings", h.UpdateSettings)
		})
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testEnv{t: t, server: server, client: newCookieClient(t)}
}

func newCookieClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// do sends a JSON request with the env's default (cookie-carrying) client.
func (e *testEnv) do(method, path string, body any) (int, []byte) {
	return e.doAs(e.client, method, path, body, "")
}

func (e *testEnv) doAs(client *http.Client, method, path string, body any, bearer string) (int, []byte) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		e.t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.t.Fatalf("reading response body: %v", err)
	}
	return resp.StatusCode, raw
}

// decodeData unmarshals the "data" field of a success envelope.
func (e *testEnv) decodeData(raw []byte, out any) {
	e.t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		e.t.Fatalf("decoding envelope: %v (body: %s)", err, raw)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		e.t.Fatalf("decoding data: %v (body: %s)", err, raw)
	}
}

func (e *testEnv) metaTotal(raw []byte) int64 {
	e.t.Helper()
	var envelope struct {
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		e.t.Fatalf("decoding meta: %v (body: %s)", err, raw)
	}
	return envelope.Meta.Total
}

func (e *testEnv) errorCode(raw []byte) string {
	e.t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		e.t.Fatalf("decoding error envelope: %v (body: %s)", err, raw)
	}
	return envelope.Error.Code
}

// register registers a user through the API with the given client and returns
// the created user. The client's cookie jar ends up holding the session.
func (e *testEnv) registerAs(client *http.Client, username string) UserResponse {
	e.t.Helper()
	code, raw := e.doAs(client, http.MethodPost, "/api/auth/register", RegisterRequest{
		Username: username,
		Password: "correct horse battery",
	}, "")
	if code != http.StatusCreated {
		e.t.Fatalf("register %s: status %d (body: %s)", username, code, raw)
	}
	var user UserResponse
	e.decodeData(raw, &user)
	return user
}

func (e *testEnv) register(username string) UserResponse {
	return e.registerAs(e.client, username)
}
