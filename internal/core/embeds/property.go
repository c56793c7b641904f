package embeds

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Property persists embed references entered in a form field. Saving a
// value warms the cache so the embed is resolved before it is first rendered.
type Property struct {
	repo   Repository
	format OutputFormat
}

// NewProperty creates a property that caches embeds in format.
// An empty format selects FormatArray.
func NewProperty(repo Repository, format OutputFormat) (*Property, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: repository", ErrNilDependency)
	}
	if format == "" {
		format = FormatArray
	}
	return &Property{repo: repo, format: format}, nil
}

// Format returns the output format used when caching
func (p *Property) Format() OutputFormat {
	return p.format
}

// Save caches the embed for the value shown in locale and returns value
// unchanged. When locale has no value, the first non-blank locale in
// alphabetical order is used. A fully blank value is not cached.
func (p *Property) Save(ctx context.Context, value LocalizedValue, locale string) (LocalizedValue, error) {
	ident := translation(value, locale)
	if ident == "" {
		return value, nil
	}

	if _, err := p.repo.SaveEmbedData(ctx, ident, p.format); err != nil {
		return value, fmt.Errorf("failed to cache embed for %q: %w", ident, err)
	}
	return value, nil
}

func translation(value LocalizedValue, locale string) string {
	if v := strings.TrimSpace(value[locale]); v != "" {
		return v
	}

	locales := make([]string, 0, len(value))
	for l := range value {
		locales = append(locales, l)
	}
	sort.Strings(locales)

	for _, l := range locales {
		if v := strings.TrimSpace(value[l]); v != "" {
			return v
		}
	}
	return ""
}
