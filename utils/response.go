package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

type M map[string]any

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, ErrorBody{Error: msg})
}

// RespondWithDetails reports field-level problems, e.g. validation failures.
func RespondWithDetails(w http.ResponseWriter, code int, msg string, details map[string]string) {
	RespondWithJSON(w, code, ErrorBody{Error: msg, Details: details})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[RespondWithJSON] encode error: %v", err)
	}
}
