// Package sqlstore implements the repository interfaces over database/sql.
// Statements are built with squirrel so one implementation serves sqlite,
// postgres and mysql.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/vocabflash/internal/db"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/repository"
)

const kvTable = "kv_store"

type kvRepository struct {
	db      *sql.DB
	dialect db.Dialect
	sb      squirrel.StatementBuilderType
	now     func() time.Time
}

// NewKVRepository creates a KVStore backed by the kv_store table.
func NewKVRepository(sqlDB *sql.DB, dialect db.Dialect) repository.KVStore {
	return &kvRepository{db: sqlDB, dialect: dialect, sb: dialect.Builder(), now: time.Now}
}

func (r *kvRepository) Get(ctx context.Context, key string) (string, bool, error) {
	log := logger.FromContext(ctx).WithPrefix("kv_repo")
	log.Debug("getting key: %s", key)

	query, args, err := r.sb.Select("value").From(kvTable).Where(squirrel.Eq{"store_key": key}).ToSql()
	if err != nil {
		return "", false, err
	}

	var value string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&value)
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

func (r *kvRepository) upsert(key, value string) squirrel.InsertBuilder {
	return r.sb.Insert(kvTable).
		Columns("store_key", "value", "updated_at").
		Values(key, value, r.now().UnixMilli()).
		Suffix(r.dialect.UpsertSuffix("store_key", "value", "updated_at"))
}

func (r *kvRepository) Set(ctx context.Context, key, value string) error {
	log := logger.FromContext(ctx).WithPrefix("kv_repo")
	log.Debug("setting key: %s (%d bytes)", key, len(value))

	query, args, err := r.upsert(key, value).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to set key %s: %v", key, err)
		return err
	}
	return nil
}

func (r *kvRepository) Delete(ctx context.Context, key string) error {
	log := logger.FromContext(ctx).WithPrefix("kv_repo")
	log.Debug("deleting key: %s", key)

	query, args, err := r.sb.Delete(kvTable).Where(squirrel.Eq{"store_key": key}).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete key %s: %v", key, err)
	}
	return err
}

func (r *kvRepository) Snapshot(ctx context.Context) (map[string]string, error) {
	log := logger.FromContext(ctx).WithPrefix("kv_repo")

	query, args, err := r.sb.Select("store_key", "value").From(kvTable).OrderBy("store_key").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query snapshot: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			log.Error("failed to scan kv row: %v", err)
			return nil, err
		}
		out[k] = v
	}
	log.Debug("snapshot holds %d keys", len(out))
	return out, rows.Err()
}

func (r *kvRepository) Restore(ctx context.Context, values map[string]string) error {
	log := logger.FromContext(ctx).WithPrefix("kv_repo")
	log.Info("restoring %d keys", len(values))

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		for _, k := range keys {
			query, args, err := r.upsert(k, values[k]).ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				log.Error("failed to restore key %s: %v", k, err)
				return err
			}
		}
		return nil
	})
}
