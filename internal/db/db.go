package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/vytor/vocabflash/internal/logger"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

type DB struct {
	*sql.DB
	Dialect Dialect
	log     *logger.Logger
}

// Options selects the database to open. Path is used by sqlite, URL by
// postgres and mysql.
type Options struct {
	Driver string
	Path   string
	URL    string
}

func Open(ctx context.Context, opts Options) (*DB, error) {
	log := logger.Default().WithPrefix("db")

	dialect, err := DialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}
	log.Info("opening %s database", dialect.Name())

	sqlDB, err := sql.Open(dialect.DriverName(), dialect.DSN(opts.Path, opts.URL))
	if err != nil {
		log.Error("failed to open database: %v", err)
		return nil, err
	}
	if err := dialect.ConfigureConnection(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("configure connection: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		log.Error("database unreachable: %v", err)
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{DB: sqlDB, Dialect: dialect, log: log}

	log.Debug("applying migrations")
	if err := Migrate(ctx, sqlDB, dialect); err != nil {
		_ = sqlDB.Close()
		log.Error("failed to apply migrations: %v", err)
		return nil, err
	}

	log.Info("database ready")
	return db, nil
}

// Migrate applies the embedded migrations for dialect that have not run yet.
func Migrate(ctx context.Context, sqlDB *sql.DB, dialect Dialect) error {
	log := logger.FromContext(ctx).WithPrefix("db")

	if _, err := sqlDB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version VARCHAR(191) PRIMARY KEY, applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	dir := "migrations/" + dialect.Name()
	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	sb := dialect.Builder()
	for _, entry := range entries {
		version := entry.Name()
		applied, err := isMigrationApplied(ctx, sqlDB, dialect, version)
		if err != nil {
			return err
		}
		if applied {
			log.Debug("migration %s already applied, skipping", version)
			continue
		}
		sqlBytes, err := migrationsFS.ReadFile(dir + "/" + version)
		if err != nil {
			return err
		}
		log.Info("applying migration: %s", version)
		if _, err := sqlDB.ExecContext(ctx, string(sqlBytes)); err != nil {
			log.Error("migration %s failed: %v", version, err)
			return fmt.Errorf("apply migration %s: %w", version, err)
		}
		query, args, err := sb.Insert("schema_migrations").Columns("version").Values(version).ToSql()
		if err != nil {
			return err
		}
		if _, err := sqlDB.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func isMigrationApplied(ctx context.Context, sqlDB *sql.DB, dialect Dialect, version string) (bool, error) {
	query, args, err := dialect.Builder().
		Select("version").From("schema_migrations").
		Where("version = ?", version).ToSql()
	if err != nil {
		return false, err
	}
	var v string
	err = sqlDB.QueryRowContext(ctx, query, args...).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
