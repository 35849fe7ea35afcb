// Package migrations embeds the schema migrations for each supported
// database and applies them with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed mysql/*.sql postgres/*.sql
var Migrations embed.FS

// dialects maps a database/sql driver name to its goose dialect and the
// migration directory.
var dialects = map[string]struct{ dialect, dir string }{
	"mysql": {"mysql", "mysql"},
	"pgx":   {"pgx", "postgres"},
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Source returns the migration files for driver.
func Source(driver string) (fs.FS, string, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
	sub, err := fs.Sub(Migrations, d.dir)
	if err != nil {
		return nil, "", err
	}
	return sub, d.dialect, nil
}

// Run applies every pending migration for driver to db.
func Run(ctx context.Context, db *sql.DB, driver string) error {
	src, dialect, err := Source(driver)
	if err != nil {
		return err
	}
	goose.SetBaseFS(src)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}
