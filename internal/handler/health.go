package handler

import (
	"net/http"
	"time"

	"github.com/forgo/tontine/api/internal/database"
)

// HealthHandler reports process and database health
type HealthHandler struct {
	db database.Database
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db database.Database) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthResponse represents the health check response body
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Time     string `json:"time"`
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "ok",
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	if h.db != nil {
		if _, err := h.db.Query(r.Context(), "RETURN 1", nil); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}

	WriteJSON(w, http.StatusOK, resp)
}

// Ready handles GET /ready - liveness for orchestration, no dependencies
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
