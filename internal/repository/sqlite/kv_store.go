package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/ksebe/streakd/internal/logger"
	"github.com/ksebe/streakd/internal/repository"
)

type kvStore struct {
	db *sql.DB
}

// NewKVStore creates a KVStore backed by the kv_store table
func NewKVStore(db *sql.DB) repository.KVStore {
	return &kvStore{db: db}
}

func (s *kvStore) Get(ctx context.Context, key string) (string, bool, error) {
	log := logger.FromContext(ctx).WithPrefix("kv_store")

	query, args, err := sqlBuilder.Select("store_value").
		From("kv_store").
		Where(squirrel.Eq{"store_key": key}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return "", false, err
	}

	var value string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("key not found: %s", key)
		return "", false, nil
	}
	if err != nil {
		log.Error("failed to get key %s: %v", key, err)
		return "", false, err
	}
	return value, true, nil
}

func (s *kvStore) Set(ctx context.Context, key, value string) error {
	log := logger.FromContext(ctx).WithPrefix("kv_store")
	log.Debug("setting key: %s (%d bytes)", key, len(value))

	query, args, err := sqlBuilder.Insert("kv_store").
		Columns("store_key", "store_value", "updated_at").
		Values(key, value, squirrel.Expr("CURRENT_TIMESTAMP")).
		Suffix("ON CONFLICT(store_key) DO UPDATE SET store_value = excluded.store_value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to set key %s: %v", key, err)
		return err
	}
	return nil
}

func (s *kvStore) Remove(ctx context.Context, key string) error {
	log := logger.FromContext(ctx).WithPrefix("kv_store")
	log.Debug("removing key: %s", key)

	query, args, err := sqlBuilder.Delete("kv_store").
		Where(squirrel.Eq{"store_key": key}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to remove key %s: %v", key, err)
		return err
	}
	return nil
}
