package embeds

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OutputFormat selects the shape of a resolved embed
type OutputFormat string

const (
	FormatIFrame OutputFormat = "iframe" // Sanitized iframe markup (default)
	FormatSrc    OutputFormat = "src"    // Direct playable source URL
	FormatArray  OutputFormat = "array"  // Structured EmbedData record
)

// ParseOutputFormat maps a requested format name to an OutputFormat.
// An empty name selects the default iframe format.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatIFrame:
		return FormatIFrame, nil
	case FormatSrc:
		return FormatSrc, nil
	case FormatArray:
		return FormatArray, nil
	default:
		return "", NewValidationError("format", fmt.Sprintf("unknown output format %q", s))
	}
}

// Image is a candidate preview image reported by a metadata provider
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Metadata is the raw result of fetching a URL through a MetadataProvider
type Metadata struct {
	Code         string  // Provider embed markup
	ProviderName string  // e.g. "YouTube", "Vimeo"
	Image        string  // Provider's default preview image
	Images       []Image // Candidate images, in provider order
}

// EmbedData is the structured ("array") representation of an embed
type EmbedData struct {
	Image    *string `json:"image"`
	ID       *string `json:"id"`
	IFrame   string  `json:"iframe"`
	Src      string  `json:"src"`
	Provider string  `json:"provider"`
}

// EmbedValue is a resolved embed payload. Text holds the markup or source
// URL for the iframe and src formats; Data holds the array record.
// A nil *EmbedValue is the null value (failed or negative resolution).
type EmbedValue struct {
	Data   *EmbedData
	Format OutputFormat
	Text   string
}

// String returns the textual payload, or the iframe markup for array values.
func (v *EmbedValue) String() string {
	if v == nil {
		return ""
	}
	if v.Format == FormatArray && v.Data != nil {
		return v.Data.IFrame
	}
	return v.Text
}

// MarshalJSON encodes array values as an object and the other formats as a string.
func (v EmbedValue) MarshalJSON() ([]byte, error) {
	if v.Format == FormatArray {
		return json.Marshal(v.Data)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts either an EmbedData object or a string.
func (v *EmbedValue) UnmarshalJSON(b []byte) error {
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*v = EmbedValue{Format: textFormat(text), Text: text}
		return nil
	}
	var data EmbedData
	if err := json.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("failed to decode embed value: %w", err)
	}
	*v = EmbedValue{Format: FormatArray, Data: &data}
	return nil
}

// LocalizedValue maps a locale code to a raw embed reference
type LocalizedValue map[string]string

// EmbedRecord is one row of the embed cache table
type EmbedRecord struct {
	EmbedData *EmbedValue `json:"embed_data"`
	Ident     string      `json:"ident"`
}

// Column is the normalized description of one cache table column
type Column struct {
	Default    *string `json:"default"`
	Type       string  `json:"type"`
	Nullable   bool    `json:"nullable"`
	PrimaryKey bool    `json:"isPrimaryKey"`
}

// encodeValue serializes an EmbedValue into the embed_data column.
// The second return is false for the null value.
func encodeValue(v *EmbedValue) (string, bool, error) {
	if v == nil {
		return "", false, nil
	}
	if v.Format != FormatArray {
		return v.Text, true, nil
	}
	b, err := json.Marshal(v.Data)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal embed data: %w", err)
	}
	return string(b), true, nil
}

// decodeValue restores an EmbedValue from the embed_data column. The stored
// shape is inferred: a JSON object is an array record, markup starting with
// "<" is iframe, anything else is a source URL.
func decodeValue(raw string) (*EmbedValue, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var data EmbedData
		if err := json.Unmarshal([]byte(trimmed), &data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embed data: %w", err)
		}
		return &EmbedValue{Format: FormatArray, Data: &data}, nil
	}
	return &EmbedValue{Format: textFormat(raw), Text: raw}, nil
}

func textFormat(text string) OutputFormat {
	if strings.HasPrefix(strings.TrimSpace(text), "<") {
		return FormatIFrame
	}
	return FormatSrc
}
