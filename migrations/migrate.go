// Package migrations applies the embedded SQL schema files in name order.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed *.sql
var files embed.FS

// Up applies every embedded migration that is not yet recorded and returns
// the names it applied.
func Up(ctx context.Context, db *sql.DB) ([]string, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
	filename   text PRIMARY KEY,
	applied_at timestamptz NOT NULL DEFAULT now()
)`); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	names, err := Names()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range names {
		done, err := isApplied(ctx, db, name)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}
		if err := apply(ctx, db, name); err != nil {
			return applied, err
		}
		applied = append(applied, name)
	}
	return applied, nil
}

// Names lists the embedded migration files in the order they are applied.
func Names() ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list embedded migrations: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func apply(ctx context.Context, db *sql.DB, name string) error {
	body, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for %s: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, string(body)); err != nil {
		_ = tx.Rollback()
		if !isIgnorable(err) {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		// objects already exist from a manual setup; record and move on
		return markApplied(ctx, db, name)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}

func isApplied(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	if err := db.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename = $1)`,
		name,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return exists, nil
}

func markApplied(ctx context.Context, db *sql.DB, name string) error {
	_, err := db.ExecContext(
		ctx,
		`INSERT INTO schema_migrations (filename) VALUES ($1) ON CONFLICT (filename) DO NOTHING`,
		name,
	)
	if err != nil {
		return fmt.Errorf("record migration %s after ignored error: %w", name, err)
	}
	return nil
}

func isIgnorable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case "42P07", // duplicate_table
		"42710", // duplicate_object
		"42701": // duplicate_column
		return true
	default:
		return false
	}
}
