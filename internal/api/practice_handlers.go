package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/ksebe/streakd/internal/datekey"
	apperrors "github.com/ksebe/streakd/internal/errors"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/streak"
)

type practiceResponse struct {
	Days  []datekey.Key `json:"days"`
	Stats *streak.Stats `json:"stats,omitempty"`
}

type logPracticeRequest struct {
	// Day is YYYY-MM-DD; empty logs today.
	Day string `json:"day"`
}

func (s *Server) handleListPractice(w http.ResponseWriter, r *http.Request) {
	days, err := s.StreakService.Days(r.Context(), userID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, practiceResponse{Days: days})
}

func (s *Server) handleLogPractice(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := userID(r)

	var req logPracticeRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("invalid practice body: %v", err)
		handleError(w, r, apperrors.NewBadRequestError("body must be a JSON object like {\"day\":\"YYYY-MM-DD\"}"))
		return
	}

	days, err := s.StreakService.LogDay(r.Context(), id, req.Day)
	if err != nil {
		handleError(w, r, err)
		return
	}
	stats, err := s.StreakService.Stats(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("practice logged: user_id=%s, days=%d", id, len(days))
	writeJSON(w, r, http.StatusOK, practiceResponse{Days: days, Stats: &stats})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	stats, err := s.StreakService.Stats(r.Context(), userID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handleRecap(w http.ResponseWriter, r *http.Request) {
	minutes := 0
	if raw := r.URL.Query().Get("minutes"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil {
			handleError(w, r, apperrors.NewBadRequestError("minutes must be an integer"))
			return
		}
		minutes = m
	}

	summary, err := s.StreakService.Recap(r.Context(), userID(r), minutes)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}
