package embeds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"Embeds/internal/metrics"
)

const maxIdentLength = 255

// RepositoryConfig carries the dependencies of an EmbedRepository
type RepositoryConfig struct {
	// DB is the cache database handle.
	DB *sql.DB

	// Provider fetches third-party metadata. Ignored when Resolver is set.
	Provider MetadataProvider

	// Resolver overrides the default EmbedResolver built from Provider.
	Resolver Resolver

	// Logger receives query and resolution logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Driver is the database/sql driver name DB was opened with (e.g. "postgres", "sqlite").
	Driver string

	// Table is the cache table name. Defaults to DefaultTable.
	Table string

	// DisableNegativeCache stops failed resolutions from being persisted as null rows.
	DisableNegativeCache bool
}

// EmbedRepository is the SQL-backed embed cache. It resolves each ident at
// most once and lazily creates its own table.
type EmbedRepository struct {
	db            *sql.DB
	fanout        *Fanout
	logger        *slog.Logger
	dialect       Dialect
	table         string
	cacheFailures bool
	provisioned   atomic.Bool
}

// NewRepository validates cfg and creates an EmbedRepository. The table name
// is checked here once and never re-validated per query.
func NewRepository(cfg RepositoryConfig) (*EmbedRepository, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("%w: database", ErrNilDependency)
	}

	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}

	dialect, err := DialectForDriver(cfg.Driver)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	resolver := cfg.Resolver
	if resolver == nil {
		if cfg.Provider == nil {
			return nil, fmt.Errorf("%w: metadata provider or resolver", ErrNilDependency)
		}
		if resolver, err = NewResolver(cfg.Provider); err != nil {
			return nil, err
		}
	}

	fanout, err := NewFanout(resolver, logger)
	if err != nil {
		return nil, err
	}

	return &EmbedRepository{
		db:            cfg.DB,
		fanout:        fanout,
		logger:        logger,
		dialect:       dialect,
		table:         table,
		cacheFailures: !cfg.DisableNegativeCache,
	}, nil
}

// SaveEmbedData returns the stored record for ident. On a miss the ident is
// resolved with format and persisted; later calls return that first record
// even when they ask for a different format.
func (r *EmbedRepository) SaveEmbedData(ctx context.Context, ident string, format OutputFormat) (*EmbedRecord, error) {
	if err := validateIdent(ident); err != nil {
		return nil, err
	}

	item, err := r.loadItem(ctx, ident)
	if err != nil {
		return nil, err
	}
	if item != nil {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		r.logger.Debug("[EMBED] cache hit", "ident", ident)
		return item, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	record, res := r.processEmbed(ctx, ident, format)
	if res.Err != nil && transientFailure(ctx, res.Err) {
		r.logger.Warn("[EMBED] provider unavailable, not persisting",
			"ident", ident,
			"error", res.Err,
		)
		return record, nil
	}
	if res.Err != nil && !r.cacheFailures {
		r.logger.Info("[EMBED] resolution failed, negative cache disabled; not persisting",
			"ident", ident,
			"error", res.Err,
		)
		return record, nil
	}

	return r.saveItem(ctx, record)
}

// EmbedData returns the stored record for ident without resolving.
// Returns nil, nil if no row exists.
func (r *EmbedRepository) EmbedData(ctx context.Context, ident string) (*EmbedRecord, error) {
	if err := validateIdent(ident); err != nil {
		return nil, err
	}
	return r.loadItem(ctx, ident)
}

// processEmbed resolves ident into a fresh, unsaved record
func (r *EmbedRepository) processEmbed(ctx context.Context, ident string, format OutputFormat) (*EmbedRecord, Result) {
	res := r.fanout.FormatOne(ctx, ident, format)
	if res.Err != nil {
		metrics.Resolutions.WithLabelValues("failure").Inc()
	} else {
		metrics.Resolutions.WithLabelValues("success").Inc()
	}

	return &EmbedRecord{
		Ident:     ident,
		EmbedData: res.Value,
	}, res
}

// loadItem fetches a row by primary key. A missing table is a miss, not an error.
func (r *EmbedRepository) loadItem(ctx context.Context, ident string) (*EmbedRecord, error) {
	ready, err := r.tableReady(ctx)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, nil
	}

	query := r.dialect.selectQuery(r.table)
	r.logQuery(query, ident)

	var (
		record EmbedRecord
		data   sql.NullString
	)
	err = r.db.QueryRowContext(ctx, query, ident).Scan(&record.Ident, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "load item", Err: err}
	}

	if data.Valid {
		value, err := decodeValue(data.String)
		if err != nil {
			return nil, &StorageError{Op: "decode item", Err: err}
		}
		record.EmbedData = value
	}

	return &record, nil
}

// saveItem inserts record, creating the table first if needed. When another
// writer stored the same ident first, the winner's row is returned.
func (r *EmbedRepository) saveItem(ctx context.Context, record *EmbedRecord) (*EmbedRecord, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}

	data, valid, err := encodeValue(record.EmbedData)
	if err != nil {
		return nil, &StorageError{Op: "encode item", Err: err}
	}
	embedData := sql.NullString{String: data, Valid: valid}

	query := r.dialect.insertQuery(r.table)
	r.logQuery(query, record.Ident, embedData)

	result, err := r.db.ExecContext(ctx, query, record.Ident, embedData)
	if err != nil {
		return nil, &StorageError{Op: "save item", Err: err}
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		r.logger.Debug("[EMBED] ident stored concurrently, reloading", "ident", record.Ident)
		existing, err := r.loadItem(ctx, record.Ident)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	return record, nil
}

// tableReady reports whether the cache table is known to exist, probing the
// catalog until it has been seen once.
func (r *EmbedRepository) tableReady(ctx context.Context) (bool, error) {
	if r.provisioned.Load() {
		return true, nil
	}
	exists, err := r.TableExists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		r.provisioned.Store(true)
	}
	return exists, nil
}

func (r *EmbedRepository) ensureTable(ctx context.Context) error {
	ready, err := r.tableReady(ctx)
	if err != nil {
		return err
	}
	if ready {
		return nil
	}
	r.logger.Info("[EMBED] creating cache table", "table", r.table, "dialect", r.dialect)
	return r.CreateTable(ctx)
}

func (r *EmbedRepository) logQuery(query string, args ...any) {
	r.logger.Debug("[EMBED] query", "sql", strings.TrimSpace(query), "args", args)
}

// transientFailure reports whether a failed resolution never reached a verdict
// on the URL: the provider was unavailable or the caller gave up.
func transientFailure(ctx context.Context, err error) bool {
	return errors.Is(err, ErrProviderUnavailable) || ctx.Err() != nil
}

func validateIdent(ident string) error {
	if strings.TrimSpace(ident) == "" {
		return NewValidationError("ident", "ident is required")
	}
	if utf8.RuneCountInString(ident) > maxIdentLength {
		return NewValidationError("ident", fmt.Sprintf("ident exceeds %d characters", maxIdentLength))
	}
	return nil
}
