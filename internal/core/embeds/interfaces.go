package embeds

import "context"

// MetadataProvider fetches a URL and reports the provider's embed markup,
// name and candidate preview images.
type MetadataProvider interface {
	Fetch(ctx context.Context, url string) (*Metadata, error)
}

// Resolver turns a single media reference into an EmbedValue
type Resolver interface {
	// Resolve returns (nil, nil) for a blank reference.
	Resolve(ctx context.Context, url string, format OutputFormat) (*EmbedValue, error)
}

// Repository is the embed cache contract. Implementations must resolve a
// given ident at most once and return the stored record on later calls.
// Wrappers (see NewCachedRepository) may layer on top without changing it.
type Repository interface {
	// SaveEmbedData returns the cached record for ident, resolving and
	// persisting it first if no row exists yet.
	SaveEmbedData(ctx context.Context, ident string, format OutputFormat) (*EmbedRecord, error)

	// EmbedData looks up ident without resolving.
	// Returns nil, nil if no row exists (not an error condition).
	EmbedData(ctx context.Context, ident string) (*EmbedRecord, error)
}

// SchemaManager provisions and describes the backing cache table
type SchemaManager interface {
	Table() string
	TableExists(ctx context.Context) (bool, error)
	CreateTable(ctx context.Context) error
	TableStructure(ctx context.Context) (map[string]Column, error)
}
