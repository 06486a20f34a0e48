package api

import (
	"net/http"

	"github.com/ksebe/streakd/internal/logger"
)

// handleHealth returns a liveness probe - always returns 200 OK.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady returns 200 when the database answers, 503 otherwise.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if s.DB != nil {
		if err := s.DB.Ping(ctx); err != nil {
			log.Warn("readiness check failed - database: %v", err)
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
			return
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
