package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rflorenc/tower-client/internal/tower"
)

// LaunchJobTemplate launches {jt} with the JSON body as launch parameters,
// e.g. {"extra_vars": {"region": "eu"}, "limit": "webservers"}.
func (s *Server) LaunchJobTemplate(w http.ResponseWriter, r *http.Request) {
	a := s.connectionAPI(w, r)
	if a == nil {
		return
	}
	var params tower.LaunchParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	jt := s.jobTemplate(w, r, a)
	if jt == nil {
		return
	}
	job, err := jt.Launch(params)
	if err != nil {
		writeTowerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	a := s.connectionAPI(w, r)
	if a == nil {
		return
	}
	id, ok := intParam(w, r, "job")
	if !ok {
		return
	}
	job, err := a.Job(id)
	if err != nil {
		writeTowerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) GetJobStdout(w http.ResponseWriter, r *http.Request) {
	a := s.connectionAPI(w, r)
	if a == nil {
		return
	}
	id, ok := intParam(w, r, "job")
	if !ok {
		return
	}
	job, err := a.Job(id)
	if err != nil {
		writeTowerError(w, err)
		return
	}
	out, err := job.Stdout()
	if err != nil {
		writeTowerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(out))
}
