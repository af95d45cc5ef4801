package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/sitetree/internal/metrics"
	"github.com/dgallion1/sitetree/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for sitetree.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	metrics      *metrics.Metrics
	log          *slog.Logger
	apiKey       string
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, m *metrics.Metrics, log *slog.Logger, apiKey string) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		orchestrator: orch,
		metrics:      m,
		log:          log,
		apiKey:       apiKey,
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
	r.Use(RequestLogger(s.log, s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.apiKey, s.log))

		r.Post("/api/builds", s.handleSubmitBuild)
		r.Get("/api/builds/{jobID}", s.handleBuildStatus)

		r.Get("/api/categories", s.handleListCategories)
		r.Get("/api/categories/{category}", s.handleCategory)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
