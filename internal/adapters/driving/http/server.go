package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
	"github.com/custodia-labs/docspace/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the driving ports the HTTP adapter exposes
type Services struct {
	Spaces       driving.SpaceService
	Documents    driving.DocumentService
	Tree         driving.TreeService
	Slugs        driving.SlugRegistry
	Publications driving.PublicationService
	Gateway      driving.PublicGateway
	Drafts       driving.DraftQueue
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	logger     *slog.Logger

	Services

	auth driven.AuthAdapter

	// Readiness checks; nil entries are skipped
	checks map[string]Pinger
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// NewServer creates a new HTTP server.
// checks maps a backend name to its health check for GET /ready.
func NewServer(
	cfg Config,
	services Services,
	auth driven.AuthAdapter,
	checks map[string]Pinger,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:   http.NewServeMux(),
		version:  cfg.Version,
		logger:   logger,
		Services: services,
		auth:     auth,
		checks:   checks,
	}

	s.setupRoutes()

	s.handler = NewCORSMiddleware(cfg.AllowedOrigins).Handler(
		NewRecoveryMiddleware(logger).Handler(
			NewLoggingMiddleware(logger).Handler(s.router)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.auth)

	reader := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireRole(domain.RoleViewer)(h))
	}
	editor := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireRole(domain.RoleEditor)(h))
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.HandleFunc("GET /swagger/doc.json", s.handleSwagger)

	// Spaces
	s.router.Handle("GET /api/v1/spaces", reader(s.handleListSpaces))
	s.router.Handle("POST /api/v1/spaces", editor(s.handleCreateSpace))
	s.router.Handle("GET /api/v1/spaces/{id}", reader(s.handleGetSpace))
	s.router.Handle("GET /api/v1/spaces/{id}/tree", reader(s.handleGetTree))

	// Documents
	s.router.Handle("GET /api/v1/spaces/{id}/documents", reader(s.handleListRootDocuments))
	s.router.Handle("POST /api/v1/spaces/{id}/documents", editor(s.handleCreateDocument))
	s.router.Handle("GET /api/v1/documents/{id}", reader(s.handleGetDocument))
	s.router.Handle("PATCH /api/v1/documents/{id}", editor(s.handleUpdateDocument))
	s.router.Handle("DELETE /api/v1/documents/{id}", editor(s.handleDeleteDocument))
	s.router.Handle("POST /api/v1/documents/{id}/move", editor(s.handleMoveDocument))
	s.router.Handle("GET /api/v1/documents/{id}/children", reader(s.handleListChildren))
	s.router.Handle("GET /api/v1/documents/{id}/subtree", reader(s.handleListSubtree))
	s.router.Handle("GET /api/v1/documents/{id}/breadcrumbs", reader(s.handleBreadcrumbs))
	s.router.Handle("POST /api/v1/documents/{id}/duplicate", editor(s.handleDuplicateDocument))
	s.router.Handle("PATCH /api/v1/documents/{id}/publish", editor(s.handleSetDocumentPublic))
	s.router.Handle("GET /api/v1/spaces/{id}/documents/by-slug/{slug}", reader(s.handleGetDocumentBySlug))
	s.router.Handle("GET /api/v1/spaces/{id}/documents/by-slug/{slug}/children", reader(s.handleListChildrenBySlug))
	s.router.Handle("GET /api/v1/spaces/{id}/documents/by-slug/{slug}/breadcrumbs", reader(s.handleBreadcrumbsBySlug))
	s.router.Handle("POST /api/v1/spaces/{id}/documents/batch-delete", editor(s.handleBatchDeleteDocuments))
	s.router.Handle("POST /api/v1/spaces/{id}/documents/batch-publish", editor(s.handleBatchPublishDocuments))

	// Autosave
	s.router.Handle("PUT /api/v1/documents/{id}/draft", editor(s.handleSubmitDraft))
	s.router.Handle("GET /api/v1/documents/{id}/draft", reader(s.handleDraftStatus))
	s.router.Handle("POST /api/v1/documents/{id}/draft/flush", editor(s.handleFlushDraft))

	// Publications
	s.router.Handle("POST /api/v1/spaces/{id}/publications", editor(s.handlePublish))
	s.router.Handle("GET /api/v1/spaces/{id}/publications", reader(s.handleListPublications))
	s.router.Handle("GET /api/v1/publication-slugs/{slug}", reader(s.handleCheckPublicationSlug))
	s.router.Handle("GET /api/v1/publications/{id}", reader(s.handleGetPublication))
	s.router.Handle("PATCH /api/v1/publications/{id}", editor(s.handleUpdatePublication))
	s.router.Handle("DELETE /api/v1/publications/{id}", editor(s.handleDeletePublication))
	s.router.Handle("POST /api/v1/publications/{id}/republish", editor(s.handleRepublish))
	s.router.Handle("POST /api/v1/publications/{id}/unpublish", editor(s.handleUnpublish))
	s.router.Handle("POST /api/v1/publications/{id}/restore", editor(s.handleRestore))
	s.router.Handle("GET /api/v1/publications/{id}/tree", reader(s.handlePreviewTree))
	s.router.Handle("GET /api/v1/publications/{id}/docs/{docSlug}", reader(s.handlePreviewDocument))

	// Public reader (no auth)
	s.router.HandleFunc("GET /p/{slug}", s.handlePublicPublication)
	s.router.HandleFunc("GET /p/{slug}/tree", s.handlePublicTree)
	s.router.HandleFunc("GET /p/{slug}/docs/{docSlug}", s.handlePublicDocument)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
