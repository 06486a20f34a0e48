package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ksebe/streakd/internal/datekey"
)

// KindCompletion marks a finished practice. Other kinds may share a day with
// it; (UserID, Day, Kind) is the identity of an event.
const KindCompletion = "completion"

// Practice event sources.
const (
	SourceApp       = "app"
	SourcePending   = "pending"
	SourceMigration = "migration"
)

// PracticeEvent is the remote mirror of one logged day. (UserID, Day, Kind) is
// unique.
type PracticeEvent struct {
	UserID    string      `json:"user_id"`
	Day       datekey.Key `json:"day"`
	Kind      string      `json:"kind"`
	Source    string      `json:"source"`
	CreatedAt time.Time   `json:"created_at"`
}

// App event names.
const (
	EventPracticeCompleted           = "practice_completed"
	EventPracticeMigratedCompletions = "practice_migrated_completions"
	EventStreakShown                 = "streak_shown"
	EventReminderShown               = "reminder_shown"
)

// AppEvent is an analytics record of something the user did.
type AppEvent struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"user_id"`
	Name      string         `json:"name"`
	Props     map[string]any `json:"props,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// SyncResult reports what a sync pass did.
type SyncResult struct {
	Synced   int `json:"synced"`
	Pending  int `json:"pending"`
	Uploaded int `json:"uploaded"`
	Pulled   int `json:"pulled"`
}
