package handlers

import (
	"net/http"
	"time"
)

// HealthCheck returns a handler for GET /health
func HealthCheck(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, APIResponse{
			Success: true,
			Data: map[string]interface{}{
				"status":    "healthy",
				"timestamp": time.Now().Unix(),
				"version":   version,
			},
		})
	}
}
