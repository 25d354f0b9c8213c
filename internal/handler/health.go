package handler

import (
	"net/http"

	"elenchus/internal/httputil"
)

// HealthCheck reports liveness.
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
