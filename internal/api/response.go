package api

import (
	"encoding/json"
	"net/http"

	"github.com/drivepulse/drivepulse/internal/event"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope. Code and Field are set for
// validation failures so producers learn which field was rejected and why.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeValidationError(w http.ResponseWriter, verr *event.ValidationError) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error: verr.Error(),
		Code:  verr.Code,
		Field: verr.Field,
	})
}
