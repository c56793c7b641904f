package embeds

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"Embeds/internal/metrics"
)

// DefaultTable is the cache table used when none is configured
const DefaultTable = "embed_cache"

const maxTableNameLength = 64

// Only alphanumeric characters and underscores are accepted as table names.
// SQL allows more, but the name is interpolated into statements.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ValidateTableName checks that name is a plain, non-empty identifier
func ValidateTableName(name string) error {
	if name == "" {
		return NewValidationError("table", "table name is required")
	}
	if len(name) > maxTableNameLength {
		return NewValidationError("table", fmt.Sprintf("table name %q exceeds %d characters", name, maxTableNameLength))
	}
	if !tableNamePattern.MatchString(name) {
		return NewValidationError("table", fmt.Sprintf("table name %q is invalid: must be alphanumeric / underscore", name))
	}
	return nil
}

// Table returns the cache table name
func (r *EmbedRepository) Table() string {
	return r.table
}

// Dialect returns the SQL dialect selected for the configured driver
func (r *EmbedRepository) Dialect() Dialect {
	return r.dialect
}

// TableExists probes the database catalog for the cache table
func (r *EmbedRepository) TableExists(ctx context.Context) (bool, error) {
	query := r.dialect.tableExistsQuery()
	r.logQuery(query, r.table)

	var count int
	if err := r.db.QueryRowContext(ctx, query, r.table).Scan(&count); err != nil {
		return false, &SchemaError{Op: "table exists", Table: r.table, Err: err}
	}
	return count > 0, nil
}

// CreateTable creates the cache table if it does not exist yet. Losing a
// creation race to another writer counts as success.
func (r *EmbedRepository) CreateTable(ctx context.Context) error {
	query := r.dialect.createTableQuery(r.table)
	r.logQuery(query)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		if !isDuplicateTable(err) {
			return &SchemaError{Op: "create table", Table: r.table, Err: err}
		}
		r.logger.Debug("[EMBED] cache table created concurrently", "table", r.table)
	} else {
		metrics.TableCreations.Inc()
	}

	r.provisioned.Store(true)
	return nil
}

// TableStructure describes the cache table's columns keyed by column name
func (r *EmbedRepository) TableStructure(ctx context.Context) (map[string]Column, error) {
	query := r.dialect.structureQuery(r.table)

	var (
		rows *sql.Rows
		err  error
	)
	if r.dialect == DialectPostgres {
		r.logQuery(query, r.table)
		rows, err = r.db.QueryContext(ctx, query, r.table)
	} else {
		r.logQuery(query)
		rows, err = r.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, &SchemaError{Op: "table structure", Table: r.table, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var struc map[string]Column
	switch r.dialect {
	case DialectSQLite:
		struc, err = scanSQLiteColumns(rows)
	case DialectMySQL:
		struc, err = scanMySQLColumns(rows)
	default:
		struc, err = scanPostgresColumns(rows)
	}
	if err != nil {
		return nil, &SchemaError{Op: "table structure", Table: r.table, Err: err}
	}
	return struc, nil
}

// scanSQLiteColumns reads PRAGMA table_info rows: cid, name, type, notnull, dflt_value, pk
func scanSQLiteColumns(rows *sql.Rows) (map[string]Column, error) {
	struc := make(map[string]Column)
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		struc[name] = Column{
			Type:       typ,
			Nullable:   notNull == 0,
			Default:    nullString(dflt),
			PrimaryKey: pk > 0,
		}
	}
	return struc, rows.Err()
}

// scanMySQLColumns reads SHOW COLUMNS rows: Field, Type, Null, Key, Default, Extra
func scanMySQLColumns(rows *sql.Rows) (map[string]Column, error) {
	struc := make(map[string]Column)
	for rows.Next() {
		var (
			field    string
			typ      string
			nullable string
			key      string
			dflt     sql.NullString
			extra    string
		)
		if err := rows.Scan(&field, &typ, &nullable, &key, &dflt, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		struc[field] = Column{
			Type:       typ,
			Nullable:   nullable == "YES",
			Default:    nullString(dflt),
			PrimaryKey: key == "PRI",
		}
	}
	return struc, rows.Err()
}

// scanPostgresColumns reads information_schema rows: name, type, is_nullable, default, is_primary
func scanPostgresColumns(rows *sql.Rows) (map[string]Column, error) {
	struc := make(map[string]Column)
	for rows.Next() {
		var (
			name      string
			typ       string
			nullable  string
			dflt      sql.NullString
			isPrimary bool
		)
		if err := rows.Scan(&name, &typ, &nullable, &dflt, &isPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		struc[name] = Column{
			Type:       typ,
			Nullable:   nullable == "YES",
			Default:    nullString(dflt),
			PrimaryKey: isPrimary,
		}
	}
	return struc, rows.Err()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
