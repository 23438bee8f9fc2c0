package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/KevinLongeway/Safe2Day/internal/positions"
	"github.com/go-chi/chi/v5"
)

// handleApply queues a batch run. The run copies every source document,
// replaces the logos in the copies and renders PDFs.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	job, err := s.orchestrator.Submit()
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   job.Snapshot().Status,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"documents":   0,
		"logos":       0,
	}
	ds, err := s.positions.Load()
	switch {
	case err == nil:
		stats["documents"] = ds.Len()
		stats["logos"] = ds.Total()
	case !errors.Is(err, positions.ErrNotFound):
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}
