package api

import (
	"net/http"
	"strconv"

	"github.com/ksebe/streakd/internal/errors"
	"github.com/ksebe/streakd/internal/logger"
)

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	id := userID(r)
	if err := s.StreakService.RequestSync(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Debug("sync accepted for %s", id)
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	pending, err := s.SyncService.Pending(r.Context(), userID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"pending": pending})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil {
			handleError(w, r, errors.NewBadRequestError("limit must be an integer"))
			return
		}
		limit = l
	}

	events, err := s.SyncService.Events(r.Context(), userID(r), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"events": events})
}
