package embeds

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config validation errors
var (
	// ErrInvalidMemoryCacheSize is returned when MemoryCacheSize is negative
	ErrInvalidMemoryCacheSize = errors.New("MemoryCacheSize cannot be negative")
	// ErrInvalidMemoryCacheTTL is returned when MemoryCacheTTL is negative
	ErrInvalidMemoryCacheTTL = errors.New("MemoryCacheTTL cannot be negative")
	// ErrInvalidFetchTimeout is returned when FetchTimeout is not positive
	ErrInvalidFetchTimeout = errors.New("FetchTimeout must be positive")
)

// Config holds the embed cache settings that are not process wiring
type Config struct {
	// Table is the cache table name.
	Table string

	// UserAgent is sent with metadata fetches.
	UserAgent string

	// CacheFailures persists failed resolutions as null rows so they are never retried.
	CacheFailures bool

	// MemoryCacheSize enables an in-process LRU in front of the table when positive.
	MemoryCacheSize int

	// MemoryCacheTTL bounds the age of in-process entries. 0 keeps them until evicted.
	MemoryCacheTTL time.Duration

	// FetchTimeout is the maximum time allowed for one metadata fetch.
	FetchTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Table:           DefaultTable,
		UserAgent:       "EmbedsBot/1.0",
		CacheFailures:   true,
		MemoryCacheSize: 0,
		MemoryCacheTTL:  0,
		FetchTimeout:    10 * time.Second,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if err := ValidateTableName(c.Table); err != nil {
		return err
	}
	if c.MemoryCacheSize < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMemoryCacheSize, c.MemoryCacheSize)
	}
	if c.MemoryCacheTTL < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidMemoryCacheTTL, c.MemoryCacheTTL)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidFetchTimeout, c.FetchTimeout)
	}
	return nil
}

// ConfigFromEnv creates a Config from environment variables.
// Uses defaults for any missing environment variables.
//
// Environment variables:
//   - EMBED_TABLE: cache table name (default: "embed_cache")
//   - EMBED_USER_AGENT: User-Agent for metadata fetches (default: "EmbedsBot/1.0")
//   - EMBED_CACHE_FAILURES: "false"/"0" (any strconv.ParseBool form) to stop persisting failed resolutions (default: true)
//   - EMBED_MEMORY_CACHE_SIZE: in-process LRU entries, 0 to disable (default: 0)
//   - EMBED_MEMORY_CACHE_TTL_SECONDS: in-process entry lifetime, 0 for no expiry (default: 0)
//   - EMBED_FETCH_TIMEOUT_SECONDS: metadata fetch timeout in seconds (default: 10)
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("EMBED_TABLE"); v != "" {
		cfg.Table = v
	}

	if v := os.Getenv("EMBED_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}

	if v := os.Getenv("EMBED_CACHE_FAILURES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CacheFailures = b
		} else {
			slog.Warn("[EMBED] invalid EMBED_CACHE_FAILURES value, using default",
				"value", v,
				"default", cfg.CacheFailures,
				"error", err,
			)
		}
	}

	if v := os.Getenv("EMBED_MEMORY_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MemoryCacheSize = n
		} else {
			slog.Warn("[EMBED] invalid EMBED_MEMORY_CACHE_SIZE value, using default",
				"value", v,
				"default", cfg.MemoryCacheSize,
				"error", err,
			)
		}
	}

	if v := os.Getenv("EMBED_MEMORY_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MemoryCacheTTL = time.Duration(n) * time.Second
		} else {
			slog.Warn("[EMBED] invalid EMBED_MEMORY_CACHE_TTL_SECONDS value, using default",
				"value", v,
				"default_seconds", int(cfg.MemoryCacheTTL.Seconds()),
				"error", err,
			)
		}
	}

	if v := os.Getenv("EMBED_FETCH_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchTimeout = time.Duration(n) * time.Second
		} else {
			slog.Warn("[EMBED] invalid EMBED_FETCH_TIMEOUT_SECONDS value, using default",
				"value", v,
				"default_seconds", int(cfg.FetchTimeout.Seconds()),
				"error", err,
			)
		}
	}

	return cfg
}
