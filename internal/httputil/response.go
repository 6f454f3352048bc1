// Package httputil holds the JSON response and query parsing helpers shared
// by the HTTP handlers.
package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/drivestyle/internal/monitoring"
)

var logf = monitoring.Tagged("http")

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logf("failed to encode json response: %v", err)
	}
}

// WriteJSONError writes {"error": msg} with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}

// BadRequest writes a 400 Bad Request response with the given message.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSONError(w, http.StatusBadRequest, msg)
}

// IntParam reads an integer query parameter. A missing parameter yields def;
// a value that does not parse or is below min is an error naming the
// parameter.
func IntParam(r *http.Request, name string, def, min int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return 0, fmt.Errorf("invalid '%s' parameter", name)
	}
	return v, nil
}
