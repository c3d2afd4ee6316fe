// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — it connects handlers, middleware, and routes.
// Think of it as the control centre that decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — just "start the server")
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go creates: config, logger, optional docker executor
//	Server.New() creates: sqlite.DB → services → handlers → routes
//
// This is the "composition root" pattern — all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/executor"
	"github.com/sakif/snippetshare/internal/handler"
	"github.com/sakif/snippetshare/internal/middleware"
	sqliteRepo "github.com/sakif/snippetshare/internal/repository/sqlite"
	"github.com/sakif/snippetshare/internal/service"
)

// Config holds server configuration.
// Using a struct for config (instead of individual parameters) makes it easy to:
// - Add new config options without changing function signatures
// - Pass config around as a single value
// - Load config from files/env vars in one place
type Config struct {
	Port      int
	DBPath    string // path to the SQLite database file
	JWTSecret string // HMAC secret for session tokens (required)

	// GitHub OAuth credentials. When ClientID is empty the GitHub routes
	// respond 404 and only credentials sign-in is available.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// RequestTimeout bounds every request's context. Handlers that outlive
	// it see context.DeadlineExceeded, which maps to 504. Zero means the
	// default of 15 seconds.
	RequestTimeout time.Duration
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. When the server shuts down we
// must close it to flush the WAL and release the file lock; that happens
// in Start() during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a new Server with the given config.
//
// exec may be nil — the run endpoint then responds 503 but everything else
// works. This keeps local development possible without a Docker daemon.
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func New(cfg Config, logger *slog.Logger, exec executor.Executor) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("server: JWT secret is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(exec); err != nil {
		db.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /auth/register               → create a credentials account
//	POST   /auth/login                  → sign in, set session cookie
//	GET    /auth/github/login           → redirect to GitHub
//	GET    /auth/github/callback        → complete OAuth, set session cookie
//	POST   /auth/logout                 → clear session cookie
//	GET    /api/me                      → current user            [auth]
//	GET    /api/snippets                → public listing          [optional auth]
//	POST   /api/snippets                → create snippet          [auth]
//	GET    /api/snippets/{id}           → fetch snippet           [optional auth]
//	PUT    /api/snippets/{id}           → update snippet          [auth]
//	DELETE /api/snippets/{id}           → delete snippet          [auth]
//	GET    /api/snippets/{id}/versions  → code history            [optional auth]
//	POST   /api/snippets/{id}/run       → execute snippet         [optional auth]
//	POST   /api/snippets/{id}/like      → toggle like             [auth]
//	POST   /api/snippets/{id}/comments  → post comment            [auth]
//	GET    /api/user/snippets           → caller's own snippets   [auth]
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
// 1. RequestID — assigns unique ID to each request (for tracing)
// 2. RealIP — extracts real client IP from proxy headers
// 3. Recoverer — catches panics and returns 500 instead of crashing
// 4. Logger — logs each request with timing info
// 5. Timeout — cancels the request context at the deadline
func (s *Server) setupRoutes(exec executor.Executor) error {
	s.router.Use(chimiddleware.RequestID) // Adds X-Request-ID header
	s.router.Use(chimiddleware.RealIP)    // Extracts real IP from X-Forwarded-For
	s.router.Use(chimiddleware.Recoverer) // Recovers from panics, returns 500
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Timeout(s.config.RequestTimeout))

	// === Auth plumbing ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Warn("GitHub OAuth not configured — only credentials sign-in is available")
	}

	// === Services ===
	// DEPENDENCY CHAIN:
	//   s.db (sqlite.DB) implements the repository interfaces
	//   services receive the interfaces, handlers receive the services.
	// The handler never touches the database; the service never touches HTTP.
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	snippetService := service.NewSnippetService(s.db, s.db, s.logger)
	engagementService := service.NewEngagementService(s.db, s.db, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	engagementHandler := handler.NewEngagementHandler(engagementService, s.logger)
	runHandler := handler.NewRunHandler(snippetService, exec, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		// Readable by anyone; identity, when present, changes the outcome
		// (private snippets, view counting, like state).
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/snippets", snippetHandler.HandleList)
			r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
			r.Get("/snippets/{id}/versions", snippetHandler.HandleVersions)
			r.Post("/snippets/{id}/run", runHandler.HandleRun)
		})

		// Everything that writes requires a signed-in user.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
			r.Post("/snippets/{id}/like", engagementHandler.HandleToggleLike)
			r.Post("/snippets/{id}/comments", engagementHandler.HandleCreateComment)
			r.Get("/user/snippets", snippetHandler.HandleMine)
		})
	})

	return nil
}

// Router exposes the configured router, mainly for tests that want to
// drive the full middleware + handler chain with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the server's resources without serving. Start() does this
// itself; Close exists for callers that only built the server.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
//
// The `defer s.db.Close()` ensures step 3 happens even if something panics.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give in-flight requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
