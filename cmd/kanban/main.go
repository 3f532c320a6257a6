// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/kanban-go/internal/config"
	"github.com/olegiv/kanban-go/internal/handler"
	"github.com/olegiv/kanban-go/internal/logging"
	"github.com/olegiv/kanban-go/internal/middleware"
	"github.com/olegiv/kanban-go/internal/scheduler"
	"github.com/olegiv/kanban-go/internal/session"
	"github.com/olegiv/kanban-go/internal/store"
	"github.com/olegiv/kanban-go/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "kanban - multi-user kanban board server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KANBAN_SESSION_SECRET        Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KANBAN_DB_PATH               SQLite database path (default: ./data/kanban.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KANBAN_SERVER_PORT           Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KANBAN_ENV                   Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KANBAN_LOG_LEVEL             Log level: debug|info|warn|error (default: info)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  KANBAN_EVENT_RETENTION_DAYS  Event log retention in days (default: 90)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		info := version.Get()
		_, _ = fmt.Printf("kanban %s (commit: %s, built: %s)\n", info.Version, info.GitCommit, info.BuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the Event Log database
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Start maintenance scheduler (nightly event log pruning)
	sched := scheduler.New(db, logger, cfg.EventRetentionDays)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(sessionManager.LoadAndSave)

	// CSRF protection. Fetch metadata based, so bearer clients pass through.
	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	csrfMiddleware := middleware.CSRF(csrfConfig)
	slog.Info("CSRF protection initialized")

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	slog.Info("login protection initialized",
		"ip_rate_limit", "0.5 req/s",
		"max_failed_attempts", 5,
		"lockout_duration", "15m",
	)

	// 10 requests per second with burst of 20 per IP
	publicRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	// Initialize handlers
	apiHandler := handler.NewHandler(db, sessionManager, loginProtection)
	healthHandler := handler.NewHealthHandler(db, sessionManager)

	// Health check routes (public, returns additional details for authenticated callers)
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	r.Route("/api", func(r chi.Router) {
		r.Use(csrfMiddleware)

		// Public routes
		r.Group(func(r chi.Router) {
			r.Use(publicRateLimiter.Middleware())
			r.Get("/users/count", apiHandler.UsersCount)
			r.Get("/auth/settings", apiHandler.GetSettings)
			r.Post("/auth/register", apiHandler.Register)
			r.With(loginProtection.Middleware()).Post("/auth/login", apiHandler.Login)
			r.Post("/auth/logout", apiHandler.Logout)
		})

		// Authenticated routes (session cookie or Bearer token)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionManager, db))

			r.Get("/auth/me", apiHandler.Me)

			r.Get("/projects", apiHandler.ListProjects)
			r.Post("/projects", apiHandler.CreateProject)
			r.Post("/projects/reorder", apiHandler.ReorderProjects)
			r.Put("/projects/{id}", apiHandler.UpdateProject)
			r.Delete("/projects/{id}", apiHandler.DeleteProject)

			r.Get("/columns", apiHandler.ListColumns)
			r.Post("/columns", apiHandler.CreateColumn)
			r.Post("/columns/reorder", apiHandler.ReorderColumns)
			r.Put("/columns/{id}", apiHandler.UpdateColumn)
			r.Delete("/columns/{id}", apiHandler.DeleteColumn)

			r.Get("/tasks", apiHandler.ListTasks)
			r.Post("/tasks", apiHandler.CreateTask)
			r.Post("/tasks/reorder", apiHandler.ReorderTasks)
			r.Put("/tasks/{id}", apiHandler.UpdateTask)
			r.Put("/tasks/{id}/move", apiHandler.MoveTask)
			r.Delete("/tasks/{id}", apiHandler.DeleteTask)

			r.Get("/tokens", apiHandler.ListTokens)
			r.Post("/tokens", apiHandler.CreateToken)
			r.Delete("/tokens/{id}", apiHandler.DeleteToken)

			r.Get("/admin/export", apiHandler.Export)
			r.Post("/admin/import", apiHandler.Import)

			// Admin only
			r.With(middleware.RequireAdmin()).Put("/auth/settings", apiHandler.UpdateSettings)
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
