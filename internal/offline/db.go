// Package offline wires up the local SQLite staging database: opening a
// connection, applying the embedded migrations and constructing the
// repositories the sync layer works with.
package offline

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/controlsuite/auditfiles/internal/offline/migrations"
	"github.com/controlsuite/auditfiles/internal/offline/repositories/blobs"
	"github.com/controlsuite/auditfiles/internal/offline/repositories/synctasks"

	_ "modernc.org/sqlite"
)

// Repositories bundles the staging database access layers.
type Repositories struct {
	Blobs blobs.Repository
	Tasks synctasks.Repository
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens the staging database at dsn and brings its schema up to
// date. Use ":memory:" for tests.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open staging db: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate staging db: %w", err)
	}
	return db, nil
}

// NewRepositories constructs the repository set over an open database.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Blobs: blobs.NewSQLiteRepository(db),
		Tasks: synctasks.NewSQLiteRepository(db),
	}
}
