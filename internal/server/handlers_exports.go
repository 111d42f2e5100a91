package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"umlpdf/internal/diagram"
	"umlpdf/internal/report"
	"umlpdf/internal/selection"
)

// ExportRequest asks for one document. Unset flags and fields fall back to
// the report section of the server config; no paths selects everything.
type ExportRequest struct {
	Model           string   `json:"model"`
	Paths           []string `json:"paths,omitempty"`
	Format          string   `json:"format,omitempty"`
	Title           string   `json:"title,omitempty"`
	Author          string   `json:"author,omitempty"`
	Subject         string   `json:"subject,omitempty"`
	TitlePage       *bool    `json:"title_page,omitempty"`
	TableOfContents *bool    `json:"table_of_contents,omitempty"`
	Diagrams        *bool    `json:"diagrams,omitempty"`
}

func orDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (s *Server) handleCreateExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Model == "" {
		jsonError(w, "model is required", http.StatusBadRequest)
		return
	}
	format, err := report.ParseFormat(orString(req.Format, s.cfg.Report.Format))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	m, ok := s.loadModel(w, r, req.Model)
	if !ok {
		return
	}
	tree := selection.Build(m)
	paths := req.Paths
	if len(paths) == 0 {
		paths = []string{"/"}
	}
	if err := selection.SelectPaths(tree, paths...); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rc := s.cfg.Report
	opts := report.Options{
		Output:          filepath.Join(s.cfg.Server.Workdir, uuid.NewString()+"."+string(format)),
		Format:          format,
		Title:           orString(req.Title, orString(rc.Title, m.Name)),
		Author:          orString(req.Author, rc.Author),
		Subject:         orString(req.Subject, rc.Subject),
		Logo:            rc.Logo,
		TitlePage:       orDefault(req.TitlePage, rc.TitlePage),
		TableOfContents: orDefault(req.TableOfContents, rc.TableOfContents),
		Diagrams:        orDefault(req.Diagrams, rc.Diagrams),
	}
	sources := diagram.Sources{
		Dir:       s.cfg.Diagrams.Images,
		Store:     s.store,
		Model:     req.Model,
		Scale:     s.cfg.Diagrams.Scale,
		Schematic: s.cfg.Diagrams.Schematic,
		Logger:    s.log,
	}
	engine := report.NewEngine(m, sources.Renderer(), s.log.With("model", req.Model))
	engine.Creator = "umlpdf server"

	view := s.jobs.Start(s.base, req.Model, opts.Output, format, func(ctx context.Context, progress func(report.Progress)) (*report.RunReport, error) {
		opts.Progress = progress
		return engine.Run(ctx, tree, opts)
	})
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":     view.ID,
		"status":     view.Status,
		"status_url": fmt.Sprintf("/api/exports/%s", view.ID),
		"events_url": fmt.Sprintf("/api/exports/%s/events", view.ID),
	})
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobs.List())
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	view, ok := s.jobs.Get(chi.URLParam(r, "jobID"))
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCancelExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	if !s.jobs.Cancel(id) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	view, _ := s.jobs.Get(id)
	writeJSON(w, http.StatusAccepted, view)
}

func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	view, ok := s.jobs.Get(id)
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if view.Status != StatusSucceeded {
		jsonError(w, fmt.Sprintf("job is %s", view.Status), http.StatusConflict)
		return
	}
	path, _, _ := s.jobs.Result(id)
	contentType := "application/pdf"
	if view.Format == report.FormatDOCX {
		contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", view.Model+"."+string(view.Format)))
	http.ServeFile(w, r, path)
}

func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	if _, ok := s.jobs.Get(id); !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	_, rep, finished := s.jobs.Result(id)
	if !finished {
		jsonError(w, "job has not finished", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
