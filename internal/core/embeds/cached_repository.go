package embeds

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cachedRepository wraps a base Repository with an in-process LRU.
// Null (negative) records are not memoized, so the base stays the single
// authority on whether a failed resolution was persisted.
type cachedRepository struct {
	base  Repository
	cache *expirable.LRU[string, *EmbedRecord]
}

// NewCachedRepository wraps base with an LRU of the given size. A ttl of
// zero keeps entries until they are evicted by size.
func NewCachedRepository(base Repository, size int, ttl time.Duration) Repository {
	return &cachedRepository{
		base:  base,
		cache: expirable.NewLRU[string, *EmbedRecord](size, nil, ttl),
	}
}

// SaveEmbedData serves from memory first, then falls back to base
func (r *cachedRepository) SaveEmbedData(ctx context.Context, ident string, format OutputFormat) (*EmbedRecord, error) {
	if record, ok := r.cache.Get(ident); ok {
		return record, nil
	}

	record, err := r.base.SaveEmbedData(ctx, ident, format)
	if err != nil {
		return nil, err
	}
	if record.EmbedData != nil {
		r.cache.Add(ident, record)
	}
	return record, nil
}

// EmbedData serves from memory first, then falls back to base
func (r *cachedRepository) EmbedData(ctx context.Context, ident string) (*EmbedRecord, error) {
	if record, ok := r.cache.Get(ident); ok {
		return record, nil
	}

	record, err := r.base.EmbedData(ctx, ident)
	if err != nil || record == nil {
		return record, err
	}
	if record.EmbedData != nil {
		r.cache.Add(ident, record)
	}
	return record, nil
}
