// Package web provides the HTTP API for the card tracker.
package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/JonMunkholm/biomed/internal/config"
	"github.com/JonMunkholm/biomed/internal/core"
	webmw "github.com/JonMunkholm/biomed/internal/web/middleware"
)

// DocumentStore persists uploaded document files.
type DocumentStore interface {
	Save(ctx context.Context, fileName, contentType string, r io.Reader) (string, error)
}

// mediaServer is implemented by document stores that serve their own files.
type mediaServer interface {
	Prefix() string
	Handler() http.Handler
}

// Server is the HTTP server for the card tracker.
type Server struct {
	service *core.Service
	cfg     *config.Config
	docs    DocumentStore
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server. docs may be nil, in which case document
// uploads are rejected.
func NewServer(service *core.Service, cfg *config.Config, docs DocumentStore) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		docs:    docs,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(webmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(webmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "HX-Request"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if s.cfg.Rate.Enabled {
		s.router.Use(httprate.Limit(
			s.cfg.Rate.RequestsPerMinute,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(rateLimited),
		))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	if ms, ok := s.docs.(mediaServer); ok {
		s.router.Handle(ms.Prefix()+"*", ms.Handler())
	}

	// Capability URL printed on the card label; no API key.
	s.router.Get("/public/cards/{id}", s.handlePublicCard)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(webmw.APIKeyAuth(&s.cfg.Security))

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", s.handleListCards)
			r.Post("/", s.handleCreateCard)
			r.Get("/deleted", s.handleListDeletedCards)
			r.Get("/search", s.handleSearchCards)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCard)
				r.Put("/", s.handleUpdateCard)
				r.Delete("/", s.handleDeleteCard)
				r.Post("/soft-delete", s.handleSoftDeleteCard)
				r.Post("/restore", s.handleRestoreCard)
				r.Post("/toggle-status", s.handleToggleStatus)

				r.Get("/documents", s.handleListDocuments)
				r.Post("/documents", s.handleAddDocument)
				r.Get("/maintenance", s.handleMaintenance)
				r.Get("/history", s.handleHistory)
			})
		})

		r.Delete("/documents/{id}", s.handleRemoveDocument)

		r.Get("/cronograma", s.handleListCronogramas)
		r.Post("/cronograma", s.handleCreateCronograma)
		r.Put("/cronograma/{id}", s.handleUpdateCronograma)

		r.Post("/intervenciones", s.handleCreateIntervention)

		r.Get("/export", s.handleExport)

		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(httprate.Limit(
					s.cfg.Rate.ImportLimit,
					time.Minute,
					httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
					httprate.WithLimitHandler(rateLimited),
				))
			}
			r.Post("/import", s.handleImport)
		})
	})
}

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; frame-ancestors 'none'")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
}

// writeError writes a plain JSON error for failures that never reach the
// service layer.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSONStatus(w, status, map[string]string{"error": message})
}

// writeJSON encodes v with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
