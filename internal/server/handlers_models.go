package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"umlpdf/internal/document"
	"umlpdf/internal/model"
	"umlpdf/internal/selection"
	"umlpdf/internal/storage"
)

const (
	maxModelBytes = 16 << 20
	maxImageBytes = 32 << 20
)

type modelInfo struct {
	Name        string    `json:"name"`
	ContentHash string    `json:"content_hash"`
	Elements    int       `json:"elements"`
	Diagrams    int       `json:"diagrams"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.ListModels(r.Context())
	if err != nil {
		s.log.Error("failed to list models", "error", err)
		jsonError(w, "failed to list models", http.StatusInternalServerError)
		return
	}
	out := make([]modelInfo, 0, len(infos))
	for _, in := range infos {
		out = append(out, modelInfo(in))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleImportModel stores a YAML or JSON model document. The document must
// validate and load; with strict=true every reference must resolve.
func (s *Server) handleImportModel(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxModelBytes+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(raw) > maxModelBytes {
		jsonError(w, fmt.Sprintf("model exceeds max size (%d bytes)", maxModelBytes), http.StatusRequestEntityTooLarge)
		return
	}

	format := model.FormatYAML
	if strings.EqualFold(r.URL.Query().Get("format"), "json") || strings.Contains(r.Header.Get("Content-Type"), "json") {
		format = model.FormatJSON
	}
	doc, err := model.DecodeDocument(raw, format)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	_, rep, err := model.Build(doc, model.LoadOptions{Strict: r.URL.Query().Get("strict") == "true"})
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err := s.store.SaveModel(r.Context(), doc); err != nil {
		s.log.Error("failed to save model", "model", doc.Name, "error", err)
		jsonError(w, "failed to save model", http.StatusInternalServerError)
		return
	}

	unresolved := make([]string, 0, len(rep.Unresolved))
	for _, ref := range rep.Unresolved {
		unresolved = append(unresolved, fmt.Sprintf("%s.%s -> %q (%s)", ref.From, ref.Field, ref.Target, ref.Reason))
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"name":       doc.Name,
		"elements":   rep.Elements,
		"unresolved": unresolved,
	})
}

func (s *Server) modelExists(w http.ResponseWriter, r *http.Request, name string) bool {
	_, err := s.store.LoadModel(r.Context(), name)
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "model not found: "+name, http.StatusNotFound)
		return false
	}
	if err != nil {
		s.log.Error("failed to load model", "model", name, "error", err)
		jsonError(w, "failed to load model", http.StatusInternalServerError)
		return false
	}
	return true
}

// loadModel fetches and builds a stored model, writing the error response
// itself when that fails.
func (s *Server) loadModel(w http.ResponseWriter, r *http.Request, name string) (*model.Model, bool) {
	doc, err := s.store.LoadModel(r.Context(), name)
	if errors.Is(err, storage.ErrNotFound) {
		jsonError(w, "model not found: "+name, http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.log.Error("failed to load model", "model", name, "error", err)
		jsonError(w, "failed to load model", http.StatusInternalServerError)
		return nil, false
	}
	m, _, err := model.Build(doc, model.LoadOptions{})
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return nil, false
	}
	return m, true
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	m, ok := s.loadModel(w, r, chi.URLParam(r, "model"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, selection.Build(m).View())
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "model")
	image := chi.URLParam(r, "image")
	if !s.modelExists(w, r, name) {
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImageBytes+1))
	if err != nil {
		jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(data) > maxImageBytes {
		jsonError(w, fmt.Sprintf("image exceeds max size (%d bytes)", maxImageBytes), http.StatusRequestEntityTooLarge)
		return
	}
	if _, err := document.DecodeRaster(image, data); err != nil {
		jsonError(w, "not an image: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if err := s.store.SaveImage(r.Context(), name, image, data); err != nil {
		s.log.Error("failed to save image", "model", name, "image", image, "error", err)
		jsonError(w, "failed to save image", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "model")
	if !s.modelExists(w, r, name) {
		return
	}
	if err := s.store.DeleteModel(r.Context(), name); err != nil {
		s.log.Error("failed to delete model", "model", name, "error", err)
		jsonError(w, "failed to delete model", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
