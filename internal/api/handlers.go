package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/services"
)

// Pinger reports whether a dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	StreakService services.StreakService
	SyncService   services.SyncService
	// DB is checked by the readiness probe; nil skips the check.
	DB Pinger
}

const maxBodyBytes = 1 << 16

func userID(r *http.Request) string {
	return chi.URLParam(r, "userID")
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}
