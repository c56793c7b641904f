// Package migrations provisions the embed cache table ahead of the first
// write, versioned through goose.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"Embeds/internal/core/embeds"
)

// Schema is the part of the repository the migrations drive
type Schema interface {
	Table() string
	Dialect() embeds.Dialect
	CreateTable(ctx context.Context) error
}

// maxIdentifierLength is the shorter of the Postgres (63) and MySQL (64) limits
const maxIdentifierLength = 63

// versionTable is the goose bookkeeping table for a cache table. Each cache
// table gets its own so that changing the configured name provisions again.
// Long names are cut and suffixed with a hash of the full name.
func versionTable(table string) string {
	const prefix, suffix = "goose_", "_version"
	name := prefix + table + suffix
	if len(name) <= maxIdentifierLength {
		return name
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(table))
	tag := fmt.Sprintf("_%08x", h.Sum32())
	keep := maxIdentifierLength - len(prefix) - len(suffix) - len(tag)
	return prefix + table[:keep] + tag + suffix
}

func gooseDialect(d embeds.Dialect) (database.Dialect, error) {
	switch d {
	case embeds.DialectPostgres:
		return database.DialectPostgres, nil
	case embeds.DialectMySQL:
		return database.DialectMySQL, nil
	case embeds.DialectSQLite:
		return database.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("%w: %q", embeds.ErrUnsupportedDriver, d)
	}
}

// NewProvider builds a goose provider whose only migration creates the cache table
func NewProvider(db *sql.DB, schema Schema) (*goose.Provider, error) {
	dialect, err := gooseDialect(schema.Dialect())
	if err != nil {
		return nil, err
	}

	store, err := database.NewStore(dialect, versionTable(schema.Table()))
	if err != nil {
		return nil, fmt.Errorf("failed to create goose store: %w", err)
	}

	createTable := goose.NewGoMigration(1, &goose.GoFunc{
		RunDB: func(ctx context.Context, _ *sql.DB) error {
			return schema.CreateTable(ctx)
		},
	}, nil)

	return goose.NewProvider("", db, nil,
		goose.WithStore(store),
		goose.WithDisableGlobalRegistry(true),
		goose.WithGoMigrations(createTable),
	)
}

// Up applies pending migrations and returns the resulting schema version
func Up(ctx context.Context, db *sql.DB, schema Schema) (int64, error) {
	provider, err := NewProvider(db, schema)
	if err != nil {
		return 0, err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, res := range results {
		slog.Info("[MIGRATE] applied",
			"table", schema.Table(),
			"version", res.Source.Version,
			"duration", res.Duration,
		)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
