// Command vocabctl manages a VocabFlash database from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vytor/vocabflash/internal/cardstore"
	"github.com/vytor/vocabflash/internal/config"
	"github.com/vytor/vocabflash/internal/db"
	"github.com/vytor/vocabflash/internal/logger"
	"github.com/vytor/vocabflash/internal/repository"
	"github.com/vytor/vocabflash/internal/repository/sqlstore"
)

// app holds the collaborators shared by every command.
type app struct {
	db         *db.DB
	kv         repository.KVStore
	paragraphs repository.ParagraphRepository
	store      *cardstore.Store
}

func openApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	database, err := db.Open(ctx, db.Options{Driver: cfg.DBDriver, Path: cfg.DBPath, URL: cfg.DatabaseURL})
	if err != nil {
		return nil, err
	}
	kv := sqlstore.NewKVRepository(database.DB, database.Dialect)
	store, err := cardstore.Open(ctx, kv)
	if err != nil {
		database.Close()
		return nil, err
	}
	return &app{
		db:         database,
		kv:         kv,
		paragraphs: sqlstore.NewParagraphRepository(database.DB, database.Dialect),
		store:      store,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// withApp opens the database for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "vocabctl",
		Short:         "Manage VocabFlash cards, streaks and backups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logger.WARN
			if verbose {
				level = logger.DEBUG
			}
			logger.SetDefault(logger.New(logger.WithLevel(level), logger.WithOutput(cmd.ErrOrStderr())))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log database activity")

	root.AddCommand(
		newImportCmd(),
		newExportCmd(),
		newListCmd(),
		newStatsCmd(),
		newStreakCmd(),
		newBackupCmd(),
		newRestoreCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
