// Package web is the HTTP host of the record services: a chi router with
// one generic resource per record type under /api.
package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"crudkit/internal/config"
)

// Server is the HTTP server.
type Server struct {
	router *chi.Mux
	log    *zap.Logger
	server *http.Server
}

// NewServer creates a server listening on cfg.Addr() once started.
func NewServer(cfg config.ServerConfig, log *zap.Logger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    log,
	}
	s.setupMiddleware()
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, s.log, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(withActor)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
}

// Mount serves h under /api/<name>.
func (s *Server) Mount(name string, h http.Handler) {
	s.router.Mount("/api/"+name, h)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called. It returns nil after a graceful
// shutdown.
func (s *Server) Start() error {
	s.log.Info("starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
