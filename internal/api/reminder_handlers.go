package api

import "net/http"

func (s *Server) handleReminder(w http.ResponseWriter, r *http.Request) {
	status, err := s.StreakService.Reminder(r.Context(), userID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

func (s *Server) handleReminderShown(w http.ResponseWriter, r *http.Request) {
	status, err := s.StreakService.MarkReminderShown(r.Context(), userID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}
