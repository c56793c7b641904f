package embeds

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Result is the outcome of resolving one item. A failed item carries Err
// and a nil Value; a blank input carries neither.
type Result struct {
	Err   error
	Value *EmbedValue
	Input string
}

// Skipped reports whether the input was blank and never resolved
func (r Result) Skipped() bool {
	return r.Err == nil && strings.TrimSpace(r.Input) == ""
}

// OK reports whether the item resolved to a non-null value
func (r Result) OK() bool {
	return r.Err == nil && r.Value != nil
}

// LocalizedResult holds one Result per locale
type LocalizedResult map[string]Result

// Values returns the per-locale values, with nil for failed locales
func (lr LocalizedResult) Values() map[string]*EmbedValue {
	values := make(map[string]*EmbedValue, len(lr))
	for locale, res := range lr {
		values[locale] = res.Value
	}
	return values
}

// Err aggregates the per-locale failures, or returns nil when every locale succeeded
func (lr LocalizedResult) Err() error {
	locales := make([]string, 0, len(lr))
	for locale := range lr {
		locales = append(locales, locale)
	}
	sort.Strings(locales)

	var result error
	for _, locale := range locales {
		if err := lr[locale].Err; err != nil {
			result = multierror.Append(result, multierror.Prefix(err, fmt.Sprintf("[%s]", locale)))
		}
	}
	return result
}

// Errors aggregates the failures in results, or returns nil when none failed
func Errors(results []Result) error {
	var result error
	for _, res := range results {
		if res.Err != nil {
			result = multierror.Append(result, res.Err)
		}
	}
	return result
}

// Fanout applies a Resolver to a single value, a list, or a localized value,
// isolating failures so one bad item never affects its siblings.
type Fanout struct {
	resolver Resolver
	logger   *slog.Logger
}

// NewFanout creates a fanout over resolver. A nil logger uses slog.Default().
func NewFanout(resolver Resolver, logger *slog.Logger) (*Fanout, error) {
	if resolver == nil {
		return nil, fmt.Errorf("%w: resolver", ErrNilDependency)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{resolver: resolver, logger: logger}, nil
}

// FormatOne resolves a scalar value
func (f *Fanout) FormatOne(ctx context.Context, raw string, format OutputFormat) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{Input: raw}
	}
	return f.resolveItem(ctx, raw, format)
}

// FormatList resolves every element independently, preserving order
func (f *Fanout) FormatList(ctx context.Context, values []string, format OutputFormat) []Result {
	results := make([]Result, len(values))
	for i, v := range values {
		results[i] = f.FormatOne(ctx, v, format)
	}
	return results
}

// FormatLocalized resolves every locale independently
func (f *Fanout) FormatLocalized(ctx context.Context, value LocalizedValue, format OutputFormat) LocalizedResult {
	results := make(LocalizedResult, len(value))
	for locale, v := range value {
		results[locale] = f.FormatOne(ctx, v, format)
	}
	return results
}

func (f *Fanout) resolveItem(ctx context.Context, raw string, format OutputFormat) (res Result) {
	res.Input = raw

	defer func() {
		if p := recover(); p != nil {
			res.Value = nil
			res.Err = &ProviderFetchError{URL: raw, Err: fmt.Errorf("panic during resolution: %v", p)}
			f.logger.Error("[EMBED] resolver panicked",
				"url", raw,
				"format", format,
				"panic", p,
			)
		}
	}()

	value, err := f.resolver.Resolve(ctx, raw, format)
	if err != nil {
		f.logger.Warn("[EMBED] resolution failed, storing null value",
			"url", raw,
			"format", format,
			"error", err,
		)
		res.Err = err
		return res
	}

	res.Value = value
	return res
}
