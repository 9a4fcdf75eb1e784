package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

//go:embed scripts/initdb.sql
var bootstrapFS embed.FS

// schemaVersion is the version recorded by scripts/initdb.sql.
const schemaVersion = 1

// EnsureBootstrapped brings the schema up to schemaVersion and reports which collections
// are provisioned. initdb.sql only creates what is missing, so re-running it is safe.
func EnsureBootstrapped(ctx context.Context, db *sql.DB, log logrus.FieldLogger) error {
	ctxBoot, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	current, err := appliedVersion(ctxBoot, db)
	if err != nil {
		return err
	}
	if current < schemaVersion {
		log.WithField("from", current).WithField("to", schemaVersion).Info("bootstrapping vector schema")
		if err := runBootstrap(ctxBoot, db); err != nil {
			return err
		}
	}

	names, err := provisionedCollections(ctxBoot, db)
	if err != nil {
		return err
	}
	log.WithField("collections", names).Debug("vector schema ready")
	return nil
}

// appliedVersion is the highest recorded schema version, or 0 on an empty database.
func appliedVersion(ctx context.Context, db *sql.DB) (int, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
		  SELECT 1 FROM information_schema.tables
		  WHERE table_name = 'ingestion_meta'
		)`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("meta table check failed: %w", err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM ingestion_meta`).Scan(&version); err != nil {
		return 0, fmt.Errorf("meta version check failed: %w", err)
	}
	return version, nil
}

func provisionedCollections(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func runBootstrap(ctx context.Context, db *sql.DB) error {
	script, err := bootstrapFS.ReadFile("scripts/initdb.sql")
	if err != nil {
		return fmt.Errorf("read initdb.sql: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, string(script)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec bootstrap: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bootstrap: %w", err)
	}
	return nil
}
