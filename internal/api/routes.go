package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Use(timeoutMiddleware(10 * time.Second))

		r.Get("/practice", s.handleListPractice)
		r.Post("/practice", s.handleLogPractice)
		r.Get("/streak", s.handleStreak)
		r.Get("/recap", s.handleRecap)
		r.Get("/reminder", s.handleReminder)
		r.Post("/reminder/shown", s.handleReminderShown)
		r.Post("/sync", s.handleSync)
		r.Get("/sync/pending", s.handlePending)
		r.Get("/events", s.handleEvents)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errNotFoundRoute(r))
	})
	return r
}
