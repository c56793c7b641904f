package embeds

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMarkup is returned when a provider answers without any embed code
	ErrEmptyMarkup = errors.New("provider returned empty embed markup")

	// ErrNilDependency is returned when a required constructor dependency is missing
	ErrNilDependency = errors.New("required dependency is nil")

	// ErrUnsupportedDriver is returned when no SQL dialect matches the configured driver
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	// ErrProviderUnavailable marks a fetch failure that says nothing about the
	// URL itself (provider down, rate limited, skipped). Such failures are not cached.
	ErrProviderUnavailable = errors.New("metadata provider temporarily unavailable")
)

// ValidationError represents an invalid argument with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// ProviderFetchError wraps a metadata fetch or parse failure for a single URL.
// It is absorbed per item by the fanout and never aborts sibling items.
type ProviderFetchError struct {
	Err error
	URL string
}

func (e *ProviderFetchError) Error() string {
	return fmt.Sprintf("failed to fetch embed metadata for %s: %v", e.URL, e.Err)
}

func (e *ProviderFetchError) Unwrap() error {
	return e.Err
}

// IsProviderFetchError checks if error is a provider fetch error
func IsProviderFetchError(err error) bool {
	var fetchErr *ProviderFetchError
	return errors.As(err, &fetchErr)
}

// StorageError wraps a connection or query failure during lookup or insert
type StorageError struct {
	Err error
	Op  string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("embed storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError checks if error is a storage error
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// SchemaError wraps a table creation or introspection failure
type SchemaError struct {
	Err   error
	Op    string
	Table string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("embed schema %s on %q failed: %v", e.Op, e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsSchemaError checks if error is a schema error
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}
