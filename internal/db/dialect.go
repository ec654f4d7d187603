package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect captures what differs between the supported databases.
type Dialect interface {
	// Name is the DB_DRIVER value, also the migrations subdirectory.
	Name() string
	// DriverName is the database/sql driver.
	DriverName() string
	// DSN builds the data source name from the configured path or URL.
	DSN(path, url string) string
	// ConfigureConnection applies pool settings after sql.Open.
	ConfigureConnection(db *sql.DB) error
	// Builder returns a squirrel builder with the right placeholders.
	Builder() squirrel.StatementBuilderType
	// UpsertSuffix returns the clause that turns an INSERT into an upsert on key.
	UpsertSuffix(key string, columns ...string) string
}

// DialectFor returns the dialect named by a DB_DRIVER value.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3", "":
		return SQLite{}, nil
	case "postgres", "postgresql":
		return Postgres{}, nil
	case "mysql":
		return MySQL{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", name)
	}
}

type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite3" }

func (SQLite) DSN(path, _ string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL", path)
}

func (SQLite) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(1) // single writer
	return nil
}

func (SQLite) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

func (SQLite) UpsertSuffix(key string, columns ...string) string {
	return onConflictSuffix(key, columns)
}

type Postgres struct{}

func (Postgres) Name() string { return "postgres" }
func (Postgres) DriverName() string { return "postgres" }
func (Postgres) DSN(_, url string) string { return url }

func (Postgres) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
	return nil
}

func (Postgres) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (Postgres) UpsertSuffix(key string, columns ...string) string {
	return onConflictSuffix(key, columns)
}

type MySQL struct{}

func (MySQL) Name() string { return "mysql" }
func (MySQL) DriverName() string { return "mysql" }
func (MySQL) DSN(_, url string) string { return url }

func (MySQL) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
	return nil
}

func (MySQL) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
}

func (MySQL) UpsertSuffix(_ string, columns ...string) string {
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = fmt.Sprintf("%s = VALUES(%s)", c, c)
	}
	return "ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}

func onConflictSuffix(key string, columns []string) string {
	sets := make([]string, len(columns))
	for i, c := range columns {
		sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", key, strings.Join(sets, ", "))
}
