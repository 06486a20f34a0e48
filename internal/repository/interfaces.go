package repository

import (
	"context"

	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/models"
)

// KVStore is the persistence adapter the practice log and reminder flags sit
// on. Values are opaque strings. A missing key is reported with ok=false and a
// nil error.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// PracticeEventRepository handles the remote mirror of logged days
type PracticeEventRepository interface {
	// Upsert inserts events, ignoring ones whose (user, day, kind) already
	// exists. It returns how many rows were newly inserted.
	Upsert(ctx context.Context, events []models.PracticeEvent) (int, error)
	Days(ctx context.Context, userID, kind string) ([]datekey.Key, error)
}

// AppEventRepository handles analytics events
type AppEventRepository interface {
	Insert(ctx context.Context, event models.AppEvent) error
	List(ctx context.Context, userID string, limit int) ([]models.AppEvent, error)
}
