// Package server exposes model storage and document export over HTTP.
// Exports run as background jobs whose progress streams over a websocket.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"umlpdf/internal/config"
	"umlpdf/internal/storage"
)

// Server is the HTTP API of umlpdf.
type Server struct {
	router chi.Router
	store  storage.Store
	jobs   *Jobs
	log    *slog.Logger
	cfg    config.Config

	// base is the parent context of every export job.
	base context.Context
}

func NewServer(ctx context.Context, store storage.Store, cfg *config.Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := os.MkdirAll(cfg.Server.Workdir, 0755); err != nil {
		return nil, err
	}
	s := &Server{
		store: store,
		jobs:  NewJobs(cfg.Server.Retention, log),
		log:   log,
		cfg:   *cfg,
		base:  ctx,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Jobs exposes the export jobs of the server.
func (s *Server) Jobs() *Jobs { return s.jobs }

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.Server.APIKey))

		r.Route("/api/models", func(r chi.Router) {
			r.Get("/", s.handleListModels)
			r.Post("/", s.handleImportModel)
			r.Get("/{model}/tree", s.handleTree)
			r.Put("/{model}/images/{image}", s.handleUploadImage)
			r.Delete("/{model}", s.handleDeleteModel)
		})

		r.Route("/api/exports", func(r chi.Router) {
			r.Get("/", s.handleListExports)
			r.Post("/", s.handleCreateExport)
			r.Get("/{jobID}", s.handleExportStatus)
			r.Delete("/{jobID}", s.handleCancelExport)
			r.Get("/{jobID}/document", s.handleExportDocument)
			r.Get("/{jobID}/report", s.handleExportReport)
			r.Get("/{jobID}/events", s.handleExportEvents)
		})
	})

	s.router = r
}

// Run serves on the configured address until ctx ends, then cancels the
// running exports and shuts down.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sweep.C:
				if n := s.jobs.Sweep(); n > 0 {
					s.log.Info("expired exports removed", "count", n)
				}
			}
		}
	}()

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.jobs.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("exports still running at shutdown", "error", err)
	}
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
