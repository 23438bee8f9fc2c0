package api

import (
	"log/slog"
	"net/http"

	"github.com/KevinLongeway/Safe2Day/internal/config"
	"github.com/KevinLongeway/Safe2Day/internal/pipeline"
	"github.com/KevinLongeway/Safe2Day/internal/positions"
	"github.com/KevinLongeway/Safe2Day/internal/scanner"
	"github.com/KevinLongeway/Safe2Day/internal/selection"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for safe2day.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	scanner      *scanner.Scanner
	positions    *positions.Store
	selection    *selection.Store
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, scan *scanner.Scanner, pos *positions.Store, sel *selection.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		scanner:      scan,
		positions:    pos,
		selection:    sel,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Get("/api/documents", s.handleListDocuments)
		r.Post("/api/scan", s.handleScan)
		r.Get("/api/positions", s.handleListPositions)
		r.Get("/api/positions/{doc}", s.handleGetPositions)

		r.Get("/api/logos", s.handleListLogos)
		r.Post("/api/logos", s.handleUploadLogo)
		r.Get("/api/selection", s.handleGetSelection)
		r.Put("/api/selection", s.handlePutSelection)

		r.Post("/api/apply", s.handleApply)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
