package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nam-htran/DomainAIAgent/internal/contextutil"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger := contextutil.LoggerFromContext(ctx)
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(ctx context.Context, w http.ResponseWriter, statusCode int, message string) {
	writeJSON(ctx, w, statusCode, ErrorResponse{Error: message})
}
