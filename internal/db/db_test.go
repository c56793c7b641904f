package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Embeds/internal/core/embeds"
)

func TestSettingsFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DATABASE_DRIVER", "")
		t.Setenv("DATABASE_URL", "")

		s := SettingsFromEnv()
		assert.Equal(t, defaultDriver, s.Driver)
		assert.Equal(t, defaultURL, s.URL)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("DATABASE_DRIVER", "sqlite")
		t.Setenv("DATABASE_URL", "file:embeds.db")

		s := SettingsFromEnv()
		assert.Equal(t, Settings{Driver: "sqlite", URL: "file:embeds.db"}, s)
	})
}

func TestOpen_SQLite(t *testing.T) {
	db, err := Open(context.Background(), Settings{Driver: "sqlite", URL: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	var one int
	require.NoError(t, db.QueryRow("SELECT 1").Scan(&one))
	assert.Equal(t, 1, one)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Settings{Driver: "oracle", URL: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, embeds.ErrUnsupportedDriver))
}
