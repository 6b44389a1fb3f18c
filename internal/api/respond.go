package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rflorenc/tower-client/internal/tower"
	"github.com/rflorenc/tower-client/internal/transport"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeTowerError maps a resource-model or transport error to a status.
func writeTowerError(w http.ResponseWriter, err error) {
	var herr *transport.HTTPError
	switch {
	case tower.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case tower.IsParseError(err), tower.IsTypeMismatch(err):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &herr):
		writeError(w, herr.StatusCode, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// intParam reads a numeric URL parameter, answering 400 when it is not one.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name+": "+raw)
		return 0, false
	}
	return n, true
}
