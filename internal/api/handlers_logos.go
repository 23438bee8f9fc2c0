package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/KevinLongeway/Safe2Day/internal/fsutil"
	"github.com/KevinLongeway/Safe2Day/internal/imaging"
	"github.com/KevinLongeway/Safe2Day/internal/selection"
)

func (s *Server) handleListLogos(w http.ResponseWriter, r *http.Request) {
	candidates, err := selection.Candidates(s.cfg.LogosDir)
	if err != nil {
		jsonError(w, "failed to list logos: "+err.Error(), http.StatusInternalServerError)
		return
	}

	current, _ := s.selection.Load()
	logos := make([]map[string]any, 0, len(candidates))
	for i, c := range candidates {
		logos = append(logos, map[string]any{
			"number":    i + 1,
			"logo_name": c.LogoName,
			"logo_path": c.LogoPath,
			"selected":  current.LogoPath != "" && c.LogoPath == current.LogoPath,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"logos": logos})
}

// handleUploadLogo stores an uploaded image in the logos folder. It does
// not change the selection.
func (s *Server) handleUploadLogo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxLogoBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !imaging.IsSupported(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxLogoBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxLogoBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxLogoBytes), http.StatusRequestEntityTooLarge)
		return
	}
	img, err := imaging.Decode(data)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.cfg.LogosDir, filename)
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		jsonError(w, "failed to store logo: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("logo uploaded", "logo", filename, "format", img.Format, "width", img.Width, "height", img.Height)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"logo_name": filename,
		"logo_path": path,
		"format":    img.Format,
		"width":     img.Width,
		"height":    img.Height,
	})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	sel, err := s.selection.Load()
	if errors.Is(err, selection.ErrNotFound) {
		jsonError(w, "no logo selected", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := map[string]any{"logo_name": sel.LogoName, "logo_path": sel.LogoPath, "valid": true}
	if err := sel.Validate(); err != nil {
		resp["valid"] = false
		resp["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type selectRequest struct {
	// Choice is a 1-based number from GET /api/logos or a file name.
	Choice string `json:"choice"`
}

func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Choice = strings.TrimSpace(req.Choice)
	if req.Choice == "" {
		jsonError(w, "choice is required", http.StatusBadRequest)
		return
	}

	candidates, err := selection.Candidates(s.cfg.LogosDir)
	if err != nil {
		jsonError(w, "failed to list logos: "+err.Error(), http.StatusInternalServerError)
		return
	}
	sel, err := selection.Choose(candidates, req.Choice)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err := sel.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.selection.Save(sel); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.log.Info("logo selected", "logo", sel.LogoName)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sel)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
