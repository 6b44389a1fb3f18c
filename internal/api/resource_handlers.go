package api

import (
	"net/http"
	"net/url"

	"github.com/rflorenc/tower-client/internal/tower"
)

// listFilters are the query parameters passed through to the Tower list
// endpoints.
var listFilters = []string{"name", "name__icontains", "organization", "project", "order_by"}

func filterQuery(r *http.Request) url.Values {
	q := url.Values{}
	for _, k := range listFilters {
		if v := r.URL.Query().Get(k); v != "" {
			q.Set(k, v)
		}
	}
	return q
}

func (s *Server) ListJobTemplates(w http.ResponseWriter, r *http.Request) {
	a := s.connectionAPI(w, r)
	if a == nil {
		return
	}
	templates, err := a.JobTemplates().Where(filterQuery(r)).All()
	if err != nil {
		writeTowerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) GetJobTemplate(w http.ResponseWriter, r *http.Request) {
	a := s.connectionAPI(w, r)
	if a == nil {
		return
	}
	id, ok := intParam(w, r, "jt")
	if !ok {
		return
	}
	jt, err := a.JobTemplate(id)
	if err != nil {
		writeTowerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jt)
}

// GetSurveySpec answers with the parsed survey spec. Templates without a
// survey answer with an empty object.
func (s *Server) GetSurveySpec(w http.ResponseWriter, r *http.Request) {
	a := s.connectionAPI(w, r)
	if a == nil {
		return
	}
	id, ok := intParam(w, r, "jt")
	if !ok {
		return
	}
	jt, err := a.JobTemplate(id)
	if err != nil {
		writeTowerError(w, err)
		return
	}
	spec, err := jt.SurveySpecHash()
	if err != nil {
		writeTowerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	a := s.connectionAPI(w, r)
	if a == nil {
		return
	}
	projects, err := a.Projects().Where(filterQuery(r)).All()
	if err != nil {
		writeTowerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

// jobTemplate loads the {jt} template for the launch handler.
func (s *Server) jobTemplate(w http.ResponseWriter, r *http.Request, a *tower.API) *tower.JobTemplate {
	id, ok := intParam(w, r, "jt")
	if !ok {
		return nil
	}
	jt, err := a.JobTemplate(id)
	if err != nil {
		writeTowerError(w, err)
		return nil
	}
	return jt
}
