package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Client input errors
	ErrMalformedDescriptor = errors.New("malformed descriptor")
	ErrUnknownColumn       = fmt.Errorf("%w: unknown column", ErrMalformedDescriptor)

	// Statistics errors
	ErrUnsupportedAggregate = errors.New("unsupported aggregate")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")

	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRowNotFound = fmt.Errorf("%w: row", ErrNotFound)
)

// Error constructors with context
func NewMalformedError(key string, reason string) error {
	return fmt.Errorf("%w: key %q %s", ErrMalformedDescriptor, key, reason)
}

func NewUnsupportedAggregateError(kind string, columnType string) error {
	return fmt.Errorf("%w: %s statistics for %s column", ErrUnsupportedAggregate, kind, columnType)
}

func NewStoreError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// Error checking helpers
func IsMalformedError(err error) bool {
	return errors.Is(err, ErrMalformedDescriptor)
}

func IsUnsupportedAggregate(err error) bool {
	return errors.Is(err, ErrUnsupportedAggregate)
}

func IsStoreError(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
