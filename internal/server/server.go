// Package server is the composition root: it wires the repositories,
// services, and handlers together, defines every route, and owns the HTTP
// server lifecycle including graceful shutdown.
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

	"github.com/sakif/bite/internal/auth"
	"github.com/sakif/bite/internal/cache"
	"github.com/sakif/bite/internal/config"
	"github.com/sakif/bite/internal/handler"
	"github.com/sakif/bite/internal/middleware"
	"github.com/sakif/bite/internal/repository"
	sqliteRepo "github.com/sakif/bite/internal/repository/sqlite"
	"github.com/sakif/bite/internal/service"
)

// Server holds the router and the resources it must release on shutdown.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger

	db    *sqliteRepo.DB // nil when running degraded
	cache *cache.Cache   // nil when Redis is not configured
}

// New assembles the full dependency chain.
//
// The database is injected here once, at process start. When it cannot be
// opened the server still comes up in a degraded mode: reads return empty
// results and writes return an explicit unavailable error, instead of the
// process crashing or retrying.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
	}

	var bites repository.BiteRepository
	var users repository.UserRepository

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		logger.Error("database unavailable, starting degraded",
			slog.String("path", cfg.DBPath),
			slog.String("error", err.Error()),
		)
		unavailable := repository.Unavailable{}
		bites, users = unavailable, unavailable
	} else {
		s.db = db
		bites, users = db, db
	}

	s.cache = cache.New(cfg.RedisAddr, logger)

	if err := s.setupRoutes(bites, users); err != nil {
		if s.db != nil {
			s.db.Close()
		}
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes wires middleware, services, handlers, and every route.
//
// Route map:
//
//	GET    /healthz                                → liveness probe
//	GET    /auth/github/login                      → redirect to GitHub
//	GET    /auth/github/callback                   → complete OAuth, set cookie
//	POST   /auth/logout                            → clear cookie
//	GET    /api/me                          [auth] → current user profile
//	GET    /api/bites                              → public bites page
//	GET    /api/bites/mine                  [auth] → caller's bites
//	POST   /api/bites                       [auth] → create bite + defaults
//	GET    /api/bites/{biteId}                     → bite with files/meta/perms
//	PATCH  /api/bites/{biteId}              [auth] → edit bite fields
//	PUT    /api/bites/{biteId}/files/{filename} [auth] → overwrite file
//	POST   /api/bites/{biteId}/files        [auth] → add file
//	DELETE /api/bites/{biteId}/files/{filename} [auth] → remove file (owner)
//	POST   /api/bites/{biteId}/collaborators [auth] → grant role (owner)
//	DELETE /api/bites/{biteId}/collaborators/{userId} [auth] → revoke role (owner)
//	GET    /api/bites/{biteId}/permissions         → permission rows + users
//	GET    /b/{biteId}                             → composed share page
//	GET    /b/{biteId}/readme                      → rendered README
//	GET    /b/{biteId}/src/{filename}              → highlighted source
func (s *Server) setupRoutes(bites repository.BiteRepository, users repository.UserRepository) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	biteService := service.NewBiteService(bites, users, s.cache, s.logger)
	biteHandler := handler.NewBiteHandler(biteService, s.logger)
	shareHandler := handler.NewShareHandler(biteService, s.logger)

	s.router.Get("/healthz", s.handleHealthz)

	// Auth requires a JWT secret. Without one the server still serves the
	// public read endpoints; everything requiring a session is not
	// registered and falls through to 404.
	var tokens *auth.TokenService
	if s.cfg.JWTSecret != "" {
		var err error
		tokens, err = auth.NewTokenService(s.cfg.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
	} else {
		s.logger.Warn("JWT_SECRET not set, authentication disabled")
	}

	if tokens != nil {
		github := auth.NewGitHubProvider(s.cfg.GitHubClientID, s.cfg.GitHubSecret, s.cfg.GitHubCallbackURL)
		authService := service.NewAuthService(users, s.cfg.OwnerGitHubID, s.logger)
		authHandler := handler.NewAuthHandler(github, tokens, authService, s.logger)

		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		s.router.Post("/auth/logout", authHandler.HandleLogout)

		s.router.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/api/me", authHandler.HandleMe)
			r.Get("/api/bites/mine", biteHandler.HandleListMine)
			r.Post("/api/bites", biteHandler.HandleCreate)
			r.Patch("/api/bites/{biteId}", biteHandler.HandleUpdate)
			r.Put("/api/bites/{biteId}/files/{filename}", biteHandler.HandleUpdateFile)
			r.Post("/api/bites/{biteId}/files", biteHandler.HandleCreateFile)
			r.Delete("/api/bites/{biteId}/files/{filename}", biteHandler.HandleDeleteFile)
			r.Post("/api/bites/{biteId}/collaborators", biteHandler.HandleAddCollaborator)
			r.Delete("/api/bites/{biteId}/collaborators/{userId}", biteHandler.HandleRemoveCollaborator)
		})
	}

	// Public API routes. Identity is attached when a valid session cookie
	// rides along, but anonymous requests go through untouched.
	s.router.Group(func(r chi.Router) {
		if tokens != nil {
			r.Use(auth.OptionalAuth(tokens))
		}
		r.Get("/api/bites", biteHandler.HandleListPublic)
		r.Get("/api/bites/{biteId}", biteHandler.HandleGet)
		r.Get("/api/bites/{biteId}/permissions", biteHandler.HandleGetPermissions)
	})

	// Share pages.
	s.router.Get("/b/{biteId}", shareHandler.HandlePreview)
	s.router.Get("/b/{biteId}/readme", shareHandler.HandleReadme)
	s.router.Get("/b/{biteId}/src/{filename}", shareHandler.HandleSource)

	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.db == nil {
		w.Write([]byte(`{"status":"degraded","database":"unavailable"}` + "\n"))
		return
	}
	w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// Router exposes the configured router, mostly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database (flushes the WAL) and the cache.
func (s *Server) Start() error {
	if s.db != nil {
		defer s.db.Close()
	}
	defer s.cache.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
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
