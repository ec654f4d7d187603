package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/vocabflash/internal/db"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		in     string
		driver string
	}{
		{"sqlite", "sqlite3"},
		{"", "sqlite3"},
		{"Postgres", "postgres"},
		{"postgresql", "postgres"},
		{"mysql", "mysql"},
	}
	for _, tt := range tests {
		d, err := db.DialectFor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.driver, d.DriverName())
	}

	_, err := db.DialectFor("oracle")
	assert.Error(t, err)
}

func TestUpsertSuffix(t *testing.T) {
	assert.Equal(t,
		"ON CONFLICT (store_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		db.SQLite{}.UpsertSuffix("store_key", "value", "updated_at"))
	assert.Equal(t,
		"ON CONFLICT (store_key) DO UPDATE SET value = excluded.value",
		db.Postgres{}.UpsertSuffix("store_key", "value"))
	assert.Equal(t,
		"ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)",
		db.MySQL{}.UpsertSuffix("store_key", "value", "updated_at"))
}

func TestBuilderPlaceholders(t *testing.T) {
	q, _, err := db.Postgres{}.Builder().Select("value").From("kv_store").Where("store_key = ?", "k").ToSql()
	require.NoError(t, err)
	assert.Contains(t, q, "$1")

	q, _, err = db.MySQL{}.Builder().Select("value").From("kv_store").Where("store_key = ?", "k").ToSql()
	require.NoError(t, err)
	assert.Contains(t, q, "?")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:x.db?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL", db.SQLite{}.DSN("file:x.db", ""))
	assert.Equal(t, ":memory:?cache=shared", db.SQLite{}.DSN(":memory:?cache=shared", ""))
}

func TestOpen_AppliesMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vocab.db")

	first, err := db.Open(ctx, db.Options{Driver: "sqlite", Path: path})
	require.NoError(t, err)

	var count int
	require.NoError(t, first.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 3, count)
	require.NoError(t, first.Close())

	second, err := db.Open(ctx, db.Options{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, second.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 3, count)

	_, err = second.ExecContext(ctx, `INSERT INTO kv_store (store_key, value, updated_at) VALUES ('k', 'v', 1)`)
	assert.NoError(t, err)
}
