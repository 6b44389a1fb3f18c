package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/tower-client/internal/models"
)

func (s *Server) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var conn models.Connection
	if err := json.NewDecoder(r.Body).Decode(&conn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if conn.Host == "" {
		writeError(w, http.StatusBadRequest, "host is required")
		return
	}
	if conn.Name == "" {
		conn.Name = conn.Host
	}
	conn.Version, conn.APIPrefix = "", ""
	conn.ApplyDefaults()
	s.Connections.Create(&conn)
	s.logger().Info("connection created", slog.String("id", conn.ID), slog.String("name", conn.Name))
	writeJSON(w, http.StatusCreated, conn.Redacted())
}

func (s *Server) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns := s.Connections.List()
	sort.Slice(conns, func(i, j int) bool { return conns[i].Name < conns[j].Name })
	for i := range conns {
		conns[i] = conns[i].Redacted()
	}
	writeJSON(w, http.StatusOK, conns)
}

func (s *Server) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.Connections.Delete(id) {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	s.forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// TestConnection dials afresh, bypassing the cached handle, and reports the
// discovered version and prefix.
func (s *Server) TestConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	conn := s.Connections.Get(id)
	if conn == nil {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	s.forget(id)
	a, err := s.api(conn)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"version":    a.Version(),
		"api_prefix": a.Prefix(),
	})
}
