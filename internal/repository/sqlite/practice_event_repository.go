package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/ksebe/streakd/internal/datekey"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/models"
	"github.com/ksebe/streakd/internal/repository"
)

type practiceEventRepository struct {
	db *sql.DB
}

// NewPracticeEventRepository creates a new PracticeEventRepository implementation
func NewPracticeEventRepository(db *sql.DB) repository.PracticeEventRepository {
	return &practiceEventRepository{db: db}
}

func (r *practiceEventRepository) Upsert(ctx context.Context, events []models.PracticeEvent) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("practice_event_repo")
	log.Debug("upserting %d practice events", len(events))
	if len(events) == 0 {
		return 0, nil
	}

	inserted := 0
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		for _, e := range events {
			createdAt := e.CreatedAt
			if createdAt.IsZero() {
				createdAt = time.Now().UTC()
			}
			source := e.Source
			if source == "" {
				source = models.SourceApp
			}
			query, args, err := sqlBuilder.Insert("practice_events").
				Columns("user_id", "day", "kind", "source", "created_at").
				Values(e.UserID, string(e.Day), e.Kind, source, createdAt).
				Suffix("ON CONFLICT(user_id, day, kind) DO NOTHING").
				ToSql()
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				log.Error("failed to upsert practice event: user_id=%s, day=%s, kind=%s: %v", e.UserID, e.Day, e.Kind, err)
				return err
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Debug("inserted %d new practice events", inserted)
	return inserted, nil
}

func (r *practiceEventRepository) Days(ctx context.Context, userID, kind string) ([]datekey.Key, error) {
	log := logger.FromContext(ctx).WithPrefix("practice_event_repo")
	log.Debug("listing practice days: user_id=%s, kind=%s", userID, kind)

	query, args, err := sqlBuilder.Select("day").
		From("practice_events").
		Where(squirrel.Eq{"user_id": userID, "kind": kind}).
		OrderBy("day ASC").
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query practice days: %v", err)
		return nil, err
	}
	defer rows.Close()

	var raw []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			log.Error("failed to scan practice day: %v", err)
			return nil, err
		}
		raw = append(raw, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	days, dropped := datekey.Lenient(raw)
	if dropped > 0 {
		log.Warn("skipped %d malformed practice days for user %s", dropped, userID)
	}
	return days, nil
}
