package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/models"
	"github.com/ksebe/streakd/internal/repository"
)

type appEventRepository struct {
	db *sql.DB
}

// NewAppEventRepository creates a new AppEventRepository implementation
func NewAppEventRepository(db *sql.DB) repository.AppEventRepository {
	return &appEventRepository{db: db}
}

func (r *appEventRepository) Insert(ctx context.Context, e models.AppEvent) error {
	log := logger.FromContext(ctx).WithPrefix("app_event_repo")

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	var props sql.NullString
	if len(e.Props) > 0 {
		b, err := json.Marshal(e.Props)
		if err != nil {
			return err
		}
		props = sql.NullString{String: string(b), Valid: true}
	}
	log.Debug("inserting app event: id=%s, user_id=%s, name=%s", e.ID, e.UserID, e.Name)

	query, args, err := sqlBuilder.Insert("app_events").
		Columns("id", "user_id", "name", "props", "created_at").
		Values(e.ID.String(), e.UserID, e.Name, props, e.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to insert app event: %v", err)
		return err
	}
	return nil
}

func (r *appEventRepository) List(ctx context.Context, userID string, limit int) ([]models.AppEvent, error) {
	log := logger.FromContext(ctx).WithPrefix("app_event_repo")
	if limit <= 0 {
		limit = 100
	}
	log.Debug("listing app events: user_id=%s, limit=%d", userID, limit)

	query, args, err := sqlBuilder.Select("id", "user_id", "name", "props", "created_at").
		From("app_events").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list app events: %v", err)
		return nil, err
	}
	defer rows.Close()

	events := make([]models.AppEvent, 0)
	for rows.Next() {
		var (
			e     models.AppEvent
			id    string
			props sql.NullString
		)
		if err := rows.Scan(&id, &e.UserID, &e.Name, &props, &e.CreatedAt); err != nil {
			log.Error("failed to scan app event row: %v", err)
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			log.Warn("app event with malformed id %q: %v", id, err)
		}
		if props.Valid {
			if err := json.Unmarshal([]byte(props.String), &e.Props); err != nil {
				log.Warn("app event %s has malformed props: %v", id, err)
			}
		}
		events = append(events, e)
	}
	log.Debug("found %d app events", len(events))
	return events, rows.Err()
}
