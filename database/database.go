// Package database opens the SQLite store behind bun and applies the
// embedded goose migrations.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"
	goosedb "github.com/pressly/goose/v3/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Options configures Open
type Options struct {
	// Debug logs every query through bundebug
	Debug bool
	// Migrate applies pending migrations after connecting
	Migrate bool
}

// Option mutates Options
type Option func(*Options)

// WithDebug enables query logging
func WithDebug(enabled bool) Option {
	return func(o *Options) {
		o.Debug = enabled
	}
}

// WithMigrations runs migrations on open
func WithMigrations() Option {
	return func(o *Options) {
		o.Migrate = true
	}
}

// Open connects to the SQLite database at dsn and returns a bun handle.
// Foreign keys are enabled through the DSN so every connection the pool
// opens enforces them, not only the first one.
func Open(ctx context.Context, dsn string, opts ...Option) (*bun.DB, error) {
	options := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, WithForeignKeys(dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)

	var enabled int
	if err := sqldb.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("check foreign keys: %w", err)
	}
	if enabled != 1 {
		_ = sqldb.Close()
		return nil, fmt.Errorf("foreign keys are disabled for %q", dsn)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if options.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if options.Migrate {
		if _, err := Migrate(ctx, sqldb); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}

// WithForeignKeys adds the connection parameters that turn on foreign key
// enforcement to dsn. Both the modernc (_pragma) and mattn (_foreign_keys)
// spellings are set since sqliteshim may pick either driver, each ignores
// the other's key. A dsn that already sets either key is returned as is.
func WithForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_foreign_keys=1"
}

// MigrationsFS returns the embedded migration files with the directory
// prefix stripped
func MigrationsFS() (fs.FS, error) {
	migrationFS, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create sub filesystem: %w", err)
	}
	return migrationFS, nil
}

// Migrate applies all pending migrations and returns the applied versions
func Migrate(ctx context.Context, db *sql.DB) ([]int64, error) {
	provider, err := newProvider(db)
	if err != nil {
		return nil, err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		applied = append(applied, r.Source.Version)
	}
	return applied, nil
}

// Version returns the current schema version
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	provider, err := newProvider(db)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}

func newProvider(db *sql.DB) (*goose.Provider, error) {
	migrationFS, err := MigrationsFS()
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(goosedb.DialectSQLite3, db, migrationFS)
	if err != nil {
		return nil, fmt.Errorf("failed to create goose provider: %w", err)
	}
	return provider, nil
}
