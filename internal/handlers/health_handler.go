package handlers

import (
	"net/http"

	"attune/internal/database"
)

// HealthHandler answers liveness and database reachability probes
type HealthHandler struct {
	db *database.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Ping handles GET /ping
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Health handles GET /health: checks the database is reachable
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	if err := h.db.Ping(); err != nil {
		respondError(w, http.StatusInternalServerError, "Database unreachable", "health check failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
