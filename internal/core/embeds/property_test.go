package embeds

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewProperty(t *testing.T) {
	_, err := NewProperty(nil, FormatArray)
	assert.ErrorIs(t, err, ErrNilDependency)

	prop, err := NewProperty(new(mockRepository), "")
	require.NoError(t, err)
	assert.Equal(t, FormatArray, prop.Format())
}

func TestProperty_Save(t *testing.T) {
	tests := []struct {
		value    LocalizedValue
		name     string
		locale   string
		expected string
	}{
		{
			name:     "current locale",
			value:    LocalizedValue{"en": "https://en.example", "fr": "https://fr.example"},
			locale:   "fr",
			expected: "https://fr.example",
		},
		{
			name:     "falls back to first filled locale",
			value:    LocalizedValue{"fr": "https://fr.example", "de": "  ", "en": "https://en.example"},
			locale:   "de",
			expected: "https://en.example",
		},
		{
			name:     "missing locale",
			value:    LocalizedValue{"nl": "https://nl.example"},
			locale:   "en",
			expected: "https://nl.example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRepository)
			repo.On("SaveEmbedData", mock.Anything, tt.expected, FormatIFrame).
				Return(&EmbedRecord{Ident: tt.expected}, nil)

			prop, err := NewProperty(repo, FormatIFrame)
			require.NoError(t, err)

			saved, err := prop.Save(context.Background(), tt.value, tt.locale)
			require.NoError(t, err)
			assert.Equal(t, tt.value, saved, "value is returned unchanged")
			repo.AssertExpectations(t)
		})
	}
}

func TestProperty_SaveBlank(t *testing.T) {
	repo := new(mockRepository)
	prop, err := NewProperty(repo, FormatArray)
	require.NoError(t, err)

	value := LocalizedValue{"en": "", "fr": " "}
	saved, err := prop.Save(context.Background(), value, "en")
	require.NoError(t, err)
	assert.Equal(t, value, saved)
	repo.AssertNotCalled(t, "SaveEmbedData", mock.Anything, mock.Anything, mock.Anything)
}

func TestProperty_SaveError(t *testing.T) {
	repo := new(mockRepository)
	repo.On("SaveEmbedData", mock.Anything, "https://a.example", FormatArray).
		Return(nil, &StorageError{Op: "save item", Err: assert.AnError})

	prop, err := NewProperty(repo, FormatArray)
	require.NoError(t, err)

	_, err = prop.Save(context.Background(), LocalizedValue{"en": "https://a.example"}, "en")
	require.Error(t, err)
	assert.True(t, IsStorageError(err))
}
