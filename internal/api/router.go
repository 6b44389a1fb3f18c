// Package api is the HTTP facade over the Tower resource model: connection
// management, job template browsing and launch, and a live job status stream.
package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rflorenc/tower-client/internal/metrics"
	"github.com/rflorenc/tower-client/internal/models"
	"github.com/rflorenc/tower-client/internal/tower"
	"github.com/rflorenc/tower-client/internal/transport"
)

// Dialer opens a resource-model handle on a connection.
type Dialer func(conn *models.Connection) (*tower.API, error)

// NewDialer returns a Dialer that builds a transport client with opts and
// runs discovery against it.
func NewDialer(logger *slog.Logger, opts ...transport.Option) Dialer {
	return func(conn *models.Connection) (*tower.API, error) {
		client := transport.NewClient(conn, append([]transport.Option{transport.WithLogger(logger)}, opts...)...)
		return tower.Connect(client, logger)
	}
}

// Server holds shared state for all API handlers.
type Server struct {
	Connections *models.ConnectionStore
	Dial        Dialer
	Logger      *slog.Logger
	Metrics     *metrics.Collector

	// PollInterval is how often the job watcher re-reads a job.
	PollInterval time.Duration

	mu   sync.Mutex
	apis map[string]*tower.API
}

// api returns the cached handle for a connection, dialing on first use.
func (s *Server) api(conn *models.Connection) (*tower.API, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.apis[conn.ID]; ok {
		return a, nil
	}
	a, err := s.Dial(conn)
	if err != nil {
		return nil, err
	}
	if s.apis == nil {
		s.apis = make(map[string]*tower.API)
	}
	s.apis[conn.ID] = a
	s.Connections.SetVersion(conn.ID, a.Version(), a.Prefix())
	return a, nil
}

func (s *Server) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.apis, id)
}

// connectionAPI resolves the {id} URL parameter to a handle. It writes the
// error response itself and returns nil on failure.
func (s *Server) connectionAPI(w http.ResponseWriter, r *http.Request) *tower.API {
	conn := s.Connections.Get(chi.URLParam(r, "id"))
	if conn == nil {
		writeError(w, http.StatusNotFound, "connection not found")
		return nil
	}
	a, err := s.api(conn)
	if err != nil {
		s.logger().Warn("connecting to tower failed",
			slog.String("connection", conn.Name),
			slog.String("error", err.Error()),
		)
		writeTowerError(w, err)
		return nil
	}
	return a
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// NewRouter builds the chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Connections
		r.Post("/connections", s.CreateConnection)
		r.Get("/connections", s.ListConnections)
		r.Delete("/connections/{id}", s.DeleteConnection)
		r.Post("/connections/{id}/test", s.TestConnection)

		// Resources
		r.Get("/connections/{id}/job_templates", s.ListJobTemplates)
		r.Get("/connections/{id}/job_templates/{jt}", s.GetJobTemplate)
		r.Get("/connections/{id}/job_templates/{jt}/survey_spec", s.GetSurveySpec)
		r.Post("/connections/{id}/job_templates/{jt}/launch", s.LaunchJobTemplate)
		r.Get("/connections/{id}/projects", s.ListProjects)

		// Jobs
		r.Get("/connections/{id}/jobs/{job}", s.GetJob)
		r.Get("/connections/{id}/jobs/{job}/stdout", s.GetJobStdout)
	})

	// WebSocket (outside /api to avoid JSON content-type assumptions)
	r.Get("/ws/connections/{id}/jobs/{job}", s.WatchJob)

	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler())
	}
	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
