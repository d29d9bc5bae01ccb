package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/RezaEskandarii/scribeflow/internal/constants"
	"github.com/RezaEskandarii/scribeflow/internal/lock"
	"github.com/RezaEskandarii/scribeflow/internal/store/postgres"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const tablePlaceholder = "{{table}}"

// Open opens a postgres pool and verifies it with a ping.
func Open(ctx context.Context, postgresURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate creates the schema and the job record table.
//
// The steps run under constants.MigrationLock so that only one process
// applies them at a time:
//  1. Creates the schema if it does not exist.
//  2. Executes every embedded script in file name order, with the table
//     placeholder replaced by table.
//
// All statements are idempotent. table must already be validated as an
// identifier.
func Migrate(ctx context.Context, db *sql.DB, distributedLock lock.DistributedLockManager, table string, logger *zap.Logger) error {
	if err := distributedLock.Acquire(ctx, constants.MigrationLock); err != nil {
		return err
	}
	defer func() {
		if err := distributedLock.Release(context.Background(), constants.MigrationLock); err != nil {
			logger.Warn("failed to release migration lock", zap.Error(err))
		}
	}()

	if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", postgres.Schema)); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	scripts, err := readSQLScripts(table)
	if err != nil {
		return err
	}
	for _, script := range scripts {
		logger.Debug("applying migration", zap.String("script", script.name))
		if _, err := db.ExecContext(ctx, script.body); err != nil {
			return fmt.Errorf("apply %s: %w", script.name, err)
		}
	}

	logger.Info("migrations applied", zap.Int("scripts", len(scripts)), zap.String("table", table))
	return nil
}

type sqlScript struct {
	name string
	body string
}

func readSQLScripts(table string) ([]sqlScript, error) {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var scripts []sqlScript
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := migrations.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, sqlScript{
			name: entry.Name(),
			body: strings.ReplaceAll(string(content), tablePlaceholder, table),
		})
	}
	return scripts, nil
}
