package api

import (
	"net/http"
	"time"

	"github.com/pathakanu/myAgenda/internal/api/respond"
)

// CheckHealth handles GET /health
func CheckHealth(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
