// Package server wires the application together: it owns the database
// connection, assembles repositories, services and handlers, and maps
// them onto the chi router. main.go stays minimal; everything that
// needs a dependency gets it here, in one place.
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

	"github.com/mlatour/codestash/internal/auth"
	"github.com/mlatour/codestash/internal/executor"
	"github.com/mlatour/codestash/internal/handler"
	"github.com/mlatour/codestash/internal/middleware"
	sqliteRepo "github.com/mlatour/codestash/internal/repository/sqlite"
	"github.com/mlatour/codestash/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port          int
	DBPath        string
	SessionSecret string

	// GitHub OAuth; login via GitHub is disabled when ClientID is
	// empty.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// SecureCookies marks session cookies Secure. Leave false for
	// plain-HTTP local development.
	SecureCookies bool
}

// Server owns the router and the resources that must be released on
// shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires the whole dependency chain:
// stores over the shared connection, services over the repository
// interfaces, handlers over the services. The runner may be nil, in
// which case the run endpoint reports itself unavailable.
func New(cfg Config, runner executor.Runner, logger *slog.Logger) (*Server, error) {
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

	if err := s.setupRoutes(runner); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly so tests can drive the server
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware, builds the handler graph and
// registers every route. Middleware runs in registration order:
// RequestID and RealIP first so downstream middleware sees them,
// Recoverer so a panicking handler answers 500 instead of killing the
// connection, then request logging.
func (s *Server) setupRoutes(runner executor.Runner) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	users := sqliteRepo.NewUserStore(s.db)
	folders := sqliteRepo.NewFolderStore(s.db)
	snippets := sqliteRepo.NewSnippetStore(s.db)
	tags := sqliteRepo.NewTagStore(s.db)

	authService := service.NewAuthService(users, auth.NewPasswordService(), s.logger)
	snippetService := service.NewSnippetService(snippets, folders, s.logger)
	folderService := service.NewFolderService(folders, snippets, s.logger)
	tagService := service.NewTagService(tags, s.logger)

	authHandler := handler.NewAuthHandler(authService, tokens, github, s.config.SecureCookies, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	folderHandler := handler.NewFolderHandler(folderService, s.logger)
	tagHandler := handler.NewTagHandler(tagService, s.logger)
	runHandler := handler.NewRunHandler(snippetService, runner, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/github", authHandler.GitHubLogin)
			r.Get("/github/callback", authHandler.GitHubCallback)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(tokens))
				r.Get("/me", authHandler.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Route("/snippets", func(r chi.Router) {
				r.Get("/", snippetHandler.List)
				r.Post("/", snippetHandler.Create)
				r.Get("/{id}", snippetHandler.Get)
				r.Put("/{id}", snippetHandler.Revise)
				r.Patch("/{id}", snippetHandler.UpdateMeta)
				r.Delete("/{id}", snippetHandler.Delete)
				r.Get("/{id}/history", snippetHandler.History)
				r.Put("/{id}/tags/{tagID}", snippetHandler.AttachTag)
				r.Delete("/{id}/tags/{tagID}", snippetHandler.DetachTag)
				r.Post("/{id}/run", runHandler.Run)
			})

			r.Route("/folders", func(r chi.Router) {
				r.Get("/", folderHandler.List)
				r.Post("/", folderHandler.Create)
				r.Get("/{id}", folderHandler.Get)
				r.Patch("/{id}", folderHandler.Rename)
				r.Delete("/{id}", folderHandler.Delete)
			})

			r.Route("/tags", func(r chi.Router) {
				r.Get("/", tagHandler.List)
				r.Post("/", tagHandler.Create)
			})
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains
// in-flight requests and closes the database so the WAL is flushed.
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
