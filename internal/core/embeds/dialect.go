package embeds

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Dialect identifies the SQL flavour spoken by the cache database
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// Error codes raised when two writers create the same table at once.
// Postgres may report either code depending on which catalog insert loses.
const (
	pgDuplicateTable  = "42P07"
	pgUniqueViolation = "23505"
	mysqlTableExists  = 1050
)

const tableCreateColumns = `ident VARCHAR(255) NOT NULL DEFAULT '',
		embed_data TEXT,
		PRIMARY KEY (ident)`

// DialectForDriver maps a database/sql driver name to its dialect
func DialectForDriver(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "pgx", "pgx/v5":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// quote quotes an already validated table name
func (d Dialect) quote(name string) string {
	if d == DialectMySQL {
		return "`" + name + "`"
	}
	return `"` + name + `"`
}

// bind returns the n-th (1-based) positional placeholder
func (d Dialect) bind(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) tableExistsQuery() string {
	switch d {
	case DialectSQLite:
		return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	case DialectMySQL:
		return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`
	default:
		return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
	}
}

func (d Dialect) createTableQuery(table string) string {
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t\t%s\n\t)", d.quote(table), tableCreateColumns)
	if d == DialectMySQL {
		query += " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	}
	return query
}

func (d Dialect) selectQuery(table string) string {
	return fmt.Sprintf("SELECT ident, embed_data FROM %s WHERE ident = %s LIMIT 1", d.quote(table), d.bind(1))
}

// insertQuery inserts a row, leaving an existing row for the same ident untouched
func (d Dialect) insertQuery(table string) string {
	switch d {
	case DialectSQLite:
		return fmt.Sprintf("INSERT OR IGNORE INTO %s (ident, embed_data) VALUES (?, ?)", d.quote(table))
	case DialectMySQL:
		return fmt.Sprintf("INSERT INTO %s (ident, embed_data) VALUES (?, ?) ON DUPLICATE KEY UPDATE ident = ident", d.quote(table))
	default:
		return fmt.Sprintf("INSERT INTO %s (ident, embed_data) VALUES ($1, $2) ON CONFLICT (ident) DO NOTHING", d.quote(table))
	}
}

func (d Dialect) structureQuery(table string) string {
	switch d {
	case DialectSQLite:
		return fmt.Sprintf("PRAGMA table_info(%s)", d.quote(table))
	case DialectMySQL:
		return fmt.Sprintf("SHOW COLUMNS FROM %s", d.quote(table))
	default:
		return `
		SELECT c.column_name, c.data_type, c.is_nullable, c.column_default,
		       EXISTS (
		           SELECT 1
		           FROM information_schema.table_constraints tc
		           JOIN information_schema.key_column_usage kcu
		             ON tc.constraint_name = kcu.constraint_name
		            AND tc.table_schema = kcu.table_schema
		           WHERE tc.constraint_type = 'PRIMARY KEY'
		             AND tc.table_schema = c.table_schema
		             AND tc.table_name = c.table_name
		             AND kcu.column_name = c.column_name
		       ) AS is_primary
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema() AND c.table_name = $1
		ORDER BY c.ordinal_position
	`
	}
}

// isDuplicateTable reports whether err means the table was created concurrently
func isDuplicateTable(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgDuplicateTable || pqErr.Code == pgUniqueViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDuplicateTable || pgErr.Code == pgUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlTableExists
	}

	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
