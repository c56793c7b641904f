package embeds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "embed_cache", cfg.Table)
	assert.True(t, cfg.CacheFailures)
	assert.Equal(t, 0, cfg.MemoryCacheSize)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		wantErr error
		modify  func(*Config)
		name    string
	}{
		{
			name:    "negative memory cache size",
			modify:  func(c *Config) { c.MemoryCacheSize = -1 },
			wantErr: ErrInvalidMemoryCacheSize,
		},
		{
			name:    "negative memory cache ttl",
			modify:  func(c *Config) { c.MemoryCacheTTL = -time.Second },
			wantErr: ErrInvalidMemoryCacheTTL,
		},
		{
			name:    "zero fetch timeout",
			modify:  func(c *Config) { c.FetchTimeout = 0 },
			wantErr: ErrInvalidFetchTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}

	t.Run("invalid table", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Table = "embeds;--"
		assert.True(t, IsValidationError(cfg.Validate()))
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("EMBED_TABLE", "video_embeds")
	t.Setenv("EMBED_USER_AGENT", "TestBot/2.0")
	t.Setenv("EMBED_CACHE_FAILURES", "false")
	t.Setenv("EMBED_MEMORY_CACHE_SIZE", "500")
	t.Setenv("EMBED_MEMORY_CACHE_TTL_SECONDS", "3600")
	t.Setenv("EMBED_FETCH_TIMEOUT_SECONDS", "3")

	cfg := ConfigFromEnv()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "video_embeds", cfg.Table)
	assert.Equal(t, "TestBot/2.0", cfg.UserAgent)
	assert.False(t, cfg.CacheFailures)
	assert.Equal(t, 500, cfg.MemoryCacheSize)
	assert.Equal(t, time.Hour, cfg.MemoryCacheTTL)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
}

func TestConfigFromEnv_InvalidValuesUseDefaults(t *testing.T) {
	t.Setenv("EMBED_MEMORY_CACHE_SIZE", "lots")
	t.Setenv("EMBED_MEMORY_CACHE_TTL_SECONDS", "-5")
	t.Setenv("EMBED_FETCH_TIMEOUT_SECONDS", "0")

	cfg := ConfigFromEnv()
	defaults := DefaultConfig()

	assert.Equal(t, defaults.MemoryCacheSize, cfg.MemoryCacheSize)
	assert.Equal(t, defaults.MemoryCacheTTL, cfg.MemoryCacheTTL)
	assert.Equal(t, defaults.FetchTimeout, cfg.FetchTimeout)
}

func TestConfigFromEnv_CacheFailures(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{value: "true", expected: true},
		{value: "TRUE", expected: true},
		{value: "1", expected: true},
		{value: "false", expected: false},
		{value: "FALSE", expected: false},
		{value: "0", expected: false},
		{value: "maybe", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("EMBED_CACHE_FAILURES", tt.value)
			assert.Equal(t, tt.expected, ConfigFromEnv().CacheFailures)
		})
	}
}
