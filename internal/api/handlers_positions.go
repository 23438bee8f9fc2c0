package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/KevinLongeway/Safe2Day/internal/positions"
	"github.com/KevinLongeway/Safe2Day/internal/scanner"
	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists the source documents and how many logo
// positions the last scan recorded for each.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	paths, err := scanner.ListDocuments(s.cfg.FormsDir, s.cfg.DocPrefix)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	ds, err := s.positions.Load()
	if err != nil && !errors.Is(err, positions.ErrNotFound) {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	docs := make([]map[string]any, 0, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		doc := map[string]any{"name": name, "scanned": false, "positions": 0}
		if ds != nil {
			if recs, ok := ds.Get(name); ok {
				doc["scanned"] = true
				doc["positions"] = len(recs)
			}
		}
		docs = append(docs, doc)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": docs})
}

// handleScan rescans the forms folder and replaces the saved positions.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	ds, err := s.scanner.ScanFolder(s.cfg.FormsDir, s.cfg.DocPrefix)
	if errors.Is(err, scanner.ErrNoDocuments) {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "scan failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.positions.Save(ds); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"documents": ds.Len(),
		"logos":     ds.Total(),
		"positions": ds,
	})
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.loadPositions(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ds)
}

func (s *Server) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "doc")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}

	ds, ok := s.loadPositions(w)
	if !ok {
		return
	}
	recs, found := ds.Get(name)
	if !found {
		jsonError(w, "document not scanned: "+name, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"document":  name,
		"positions": recs,
	})
}

func (s *Server) loadPositions(w http.ResponseWriter) (*positions.Dataset, bool) {
	ds, err := s.positions.Load()
	if errors.Is(err, positions.ErrNotFound) {
		jsonError(w, "no position data, run a scan first", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return ds, true
}
